// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vesting

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/aurum-network/aurum/aurum"
)

// Schedule is one cliff-and-linear release schedule.
// Multiple schedules per beneficiary are independent records.
type Schedule struct {
	Beneficiary aurum.Address
	Total       *big.Int
	Released    *big.Int
	Start       uint64
	Cliff       uint64 // seconds after Start
	Duration    uint64 // seconds after Start, >= Cliff
	Revocable   bool
	RevokedAt   uint64 // 0 when not revoked
}

// IsEmpty returns whether the schedule slot was never written.
func (s *Schedule) IsEmpty() bool {
	return s.Beneficiary.IsZero()
}

// Encode implements state.StructuredStorage.
func (s *Schedule) Encode() ([]byte, error) {
	if s.IsEmpty() {
		return nil, nil
	}
	return rlp.EncodeToBytes(s)
}

// Decode implements state.StructuredStorage.
func (s *Schedule) Decode(data []byte) error {
	if len(data) == 0 {
		*s = Schedule{Total: &big.Int{}, Released: &big.Int{}}
		return nil
	}
	return rlp.DecodeBytes(data, s)
}

// VestedAt returns the vested amount at time t: zero before the cliff, the
// full total after the duration, linear in between. Revocation freezes the
// curve at the revocation time.
func (s *Schedule) VestedAt(t uint64) *big.Int {
	if s.RevokedAt != 0 && t > s.RevokedAt {
		t = s.RevokedAt
	}
	if t < s.Start+s.Cliff {
		return &big.Int{}
	}
	if t >= s.Start+s.Duration {
		return new(big.Int).Set(s.Total)
	}
	elapsed := new(big.Int).SetUint64(t - s.Start)
	vested := new(big.Int).Mul(s.Total, elapsed)
	return vested.Div(vested, new(big.Int).SetUint64(s.Duration))
}

// ReleasableAt returns the vested-but-unreleased amount at time t.
func (s *Schedule) ReleasableAt(t uint64) *big.Int {
	vested := s.VestedAt(t)
	return vested.Sub(vested, s.Released)
}
