// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vesting implements per-beneficiary linear release schedules with a
// cliff. The engine escrows the scheduled tokens at its own address and pays
// out exactly the newly vested delta on each release.
package vesting

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin/authority"
	"github.com/aurum-network/aurum/builtin/errs"
	"github.com/aurum-network/aurum/builtin/ledger"
	"github.com/aurum-network/aurum/runtime"
)

var scheduleCountKey = aurum.Blake2b([]byte("schedule-count"))

// beUint64 encodes v as fixed 8 bytes so multi-field key inputs
// cannot alias each other.
func beUint64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func scheduleKey(id uint64) aurum.Bytes32 {
	return aurum.Blake2b([]byte("schedule"), beUint64(id))
}

func beneficiaryKey(addr aurum.Address) aurum.Bytes32 {
	return aurum.Blake2b([]byte("b"), addr.Bytes())
}

// dedupeKey guards against re-creating a schedule with the same parameters.
// Every field but Total is fixed width, so the hash input is unambiguous.
func dedupeKey(s *Schedule) aurum.Bytes32 {
	return aurum.Keccak256(
		s.Beneficiary.Bytes(),
		s.Total.Bytes(),
		beUint64(s.Start),
		beUint64(s.Cliff),
		beUint64(s.Duration),
	)
}

// Vesting binds the vesting engine to an execution environment.
type Vesting struct {
	addr  aurum.Address
	env   *runtime.Env
	auth  *authority.Authority
	token *ledger.Ledger
}

// New creates a vesting engine binding.
func New(addr aurum.Address, env *runtime.Env, auth *authority.Authority, token *ledger.Ledger) *Vesting {
	return &Vesting{addr, env, auth, token}
}

// Address returns the engine address.
func (v *Vesting) Address() aurum.Address {
	return v.addr
}

// Count returns the number of schedules ever created. IDs run from 1 to Count.
func (v *Vesting) Count() (uint64, error) {
	return v.env.State().GetUint64(v.addr, scheduleCountKey)
}

// Get returns the schedule with the given id.
func (v *Vesting) Get(id uint64) (*Schedule, error) {
	var s Schedule
	if err := v.env.State().GetStructuredStorage(v.addr, scheduleKey(id), &s); err != nil {
		return nil, err
	}
	if s.IsEmpty() {
		return nil, errs.InvalidInput("unknown schedule %d", id)
	}
	return &s, nil
}

func (v *Vesting) set(id uint64, s *Schedule) error {
	return v.env.State().SetStructuredStorage(v.addr, scheduleKey(id), s)
}

// SchedulesOf lists the schedule ids of a beneficiary.
func (v *Vesting) SchedulesOf(beneficiary aurum.Address) ([]uint64, error) {
	var ids []uint64
	if err := v.env.State().DecodeStorage(v.addr, beneficiaryKey(beneficiary), func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &ids)
	}); err != nil {
		return nil, err
	}
	return ids, nil
}

// AddSchedule creates a schedule and escrows its total amount, pulled from
// the caller's balance. Master only. A zero start means "now".
// Returns the new schedule id.
func (v *Vesting) AddSchedule(
	beneficiary aurum.Address,
	total *big.Int,
	start, cliff, duration uint64,
	revocable bool,
) (uint64, error) {
	if err := v.auth.CheckMaster(); err != nil {
		return 0, err
	}
	if beneficiary.IsZero() {
		return 0, errs.InvalidInput("zero beneficiary")
	}
	if total == nil || total.Sign() <= 0 {
		return 0, errs.InvalidInput("total must be positive")
	}
	if duration == 0 || cliff > duration {
		return 0, errs.InvalidInput("cliff %d exceeds duration %d", cliff, duration)
	}
	if start == 0 {
		start = v.env.Now()
	}

	s := &Schedule{
		Beneficiary: beneficiary,
		Total:       total,
		Released:    &big.Int{},
		Start:       start,
		Cliff:       cliff,
		Duration:    duration,
		Revocable:   revocable,
	}

	st := v.env.State()
	dk := dedupeKey(s)
	used, err := st.GetBool(v.addr, dk)
	if err != nil {
		return 0, err
	}
	if used {
		return 0, errs.InvalidState("duplicate schedule for %v", beneficiary)
	}

	// escrow before recording; the pull fails if the caller lacks balance
	if err := v.token.Move(v.env.Caller(), v.addr, total); err != nil {
		return 0, err
	}

	count, err := v.Count()
	if err != nil {
		return 0, err
	}
	id := count + 1
	if err := st.SetUint64(v.addr, scheduleCountKey, id); err != nil {
		return 0, err
	}
	if err := st.SetBool(v.addr, dk, true); err != nil {
		return 0, err
	}
	if err := v.set(id, s); err != nil {
		return 0, err
	}

	ids, err := v.SchedulesOf(beneficiary)
	if err != nil {
		return 0, err
	}
	if err := st.EncodeStorage(v.addr, beneficiaryKey(beneficiary), func() ([]byte, error) {
		return rlp.EncodeToBytes(append(ids, id))
	}); err != nil {
		return 0, err
	}

	v.env.Emit(v.addr, "admin_schedule_added",
		runtime.Attr{Key: "schedule", Value: uintString(id)},
		runtime.Attr{Key: "beneficiary", Value: beneficiary.String()},
		runtime.Attr{Key: "total", Value: total.String()},
	)
	return id, nil
}

// ReleasableAmount returns the amount releasable right now for a schedule.
func (v *Vesting) ReleasableAmount(id uint64) (*big.Int, error) {
	s, err := v.Get(id)
	if err != nil {
		return nil, err
	}
	return s.ReleasableAt(v.env.Now()), nil
}

// Release pays out the vested-but-unreleased delta of a schedule to its
// beneficiary. Releasing twice in the same instant transfers zero the second
// time, signalled as InvalidState.
func (v *Vesting) Release(id uint64) (*big.Int, error) {
	s, err := v.Get(id)
	if err != nil {
		return nil, err
	}
	caller := v.env.Caller()
	master, err := v.auth.Master()
	if err != nil {
		return nil, err
	}
	if caller != s.Beneficiary && caller != master {
		return nil, errs.Unauthorized("caller %v may not release schedule %d", caller, id)
	}

	delta := s.ReleasableAt(v.env.Now())
	if delta.Sign() == 0 {
		return nil, errs.InvalidState("nothing to release for schedule %d", id)
	}

	s.Released = new(big.Int).Add(s.Released, delta)
	if err := v.set(id, s); err != nil {
		return nil, err
	}
	if err := v.token.Move(v.addr, s.Beneficiary, delta); err != nil {
		return nil, err
	}

	v.env.Emit(v.addr, "released",
		runtime.Attr{Key: "schedule", Value: uintString(id)},
		runtime.Attr{Key: "beneficiary", Value: s.Beneficiary.String()},
		runtime.Attr{Key: "amount", Value: delta.String()},
	)
	return delta, nil
}

// Revoke halts future vesting of a revocable schedule and returns the
// not-yet-vested remainder to the caller (the master). Amounts already vested
// remain claimable by the beneficiary.
func (v *Vesting) Revoke(id uint64) error {
	if err := v.auth.CheckMaster(); err != nil {
		return err
	}
	s, err := v.Get(id)
	if err != nil {
		return err
	}
	if !s.Revocable {
		return errs.InvalidState("schedule %d is not revocable", id)
	}
	if s.RevokedAt != 0 {
		return errs.InvalidState("schedule %d already revoked", id)
	}

	now := v.env.Now()
	vested := s.VestedAt(now)
	unvested := new(big.Int).Sub(s.Total, vested)

	s.RevokedAt = now
	if err := v.set(id, s); err != nil {
		return err
	}
	if unvested.Sign() > 0 {
		if err := v.token.Move(v.addr, v.env.Caller(), unvested); err != nil {
			return err
		}
	}

	v.env.Emit(v.addr, "admin_schedule_revoked",
		runtime.Attr{Key: "schedule", Value: uintString(id)},
		runtime.Attr{Key: "returned", Value: unvested.String()},
	)
	return nil
}

func uintString(v uint64) string {
	return new(big.Int).SetUint64(v).String()
}
