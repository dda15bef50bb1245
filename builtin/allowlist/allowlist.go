// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package allowlist implements the consumable Merkle allocation registry.
// An account's allocation is proven once per published root version, then
// drawn down by trusted consumers in arbitrary increments. Publishing a new
// root bumps the version; bookkeeping of earlier versions is kept intact.
package allowlist

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin/authority"
	"github.com/aurum-network/aurum/builtin/errs"
	"github.com/aurum-network/aurum/builtin/merkle"
	"github.com/aurum-network/aurum/runtime"
)

var (
	rootKey        = aurum.Blake2b([]byte("root"))
	rootVersionKey = aurum.Blake2b([]byte("root-version"))
)

// beUint64 encodes v as fixed 8 bytes so multi-field key inputs
// cannot alias each other.
func beUint64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func recordKey(version uint64, account aurum.Address) aurum.Bytes32 {
	return aurum.Blake2b([]byte("r"), beUint64(version), account.Bytes())
}

// record is the per (version, account) drawdown bookkeeping.
type record struct {
	Allocation *big.Int
	Consumed   *big.Int
}

func (r *record) Encode() ([]byte, error) {
	if r.Allocation == nil || r.Allocation.Sign() == 0 {
		return nil, nil
	}
	return rlp.EncodeToBytes(r)
}

func (r *record) Decode(data []byte) error {
	if len(data) == 0 {
		*r = record{Allocation: &big.Int{}, Consumed: &big.Int{}}
		return nil
	}
	return rlp.DecodeBytes(data, r)
}

// Allowlist binds the consumption registry to an execution environment.
type Allowlist struct {
	addr aurum.Address
	env  *runtime.Env
	auth *authority.Authority
}

// New creates an allowlist engine binding.
func New(addr aurum.Address, env *runtime.Env, auth *authority.Authority) *Allowlist {
	return &Allowlist{addr, env, auth}
}

// Address returns the engine address.
func (l *Allowlist) Address() aurum.Address {
	return l.addr
}

// Root returns the published root commitment.
func (l *Allowlist) Root() (aurum.Bytes32, error) {
	return l.env.State().GetBytes32(l.addr, rootKey)
}

// RootVersion returns the current root generation. Zero before any root is
// published.
func (l *Allowlist) RootVersion() (uint64, error) {
	return l.env.State().GetUint64(l.addr, rootVersionKey)
}

// SetRoot publishes a new root and bumps the version. Master only.
// Drawdown records of earlier versions stay in place for audit.
func (l *Allowlist) SetRoot(root aurum.Bytes32) (uint64, error) {
	if err := l.auth.CheckMaster(); err != nil {
		return 0, err
	}
	if root.IsZero() {
		return 0, errs.InvalidInput("zero root")
	}
	st := l.env.State()
	version, err := l.RootVersion()
	if err != nil {
		return 0, err
	}
	version++
	if err := st.SetUint64(l.addr, rootVersionKey, version); err != nil {
		return 0, err
	}
	if err := st.SetBytes32(l.addr, rootKey, root); err != nil {
		return 0, err
	}
	l.env.Emit(l.addr, "admin_root_set",
		runtime.Attr{Key: "version", Value: new(big.Int).SetUint64(version).String()},
		runtime.Attr{Key: "root", Value: root.String()},
	)
	return version, nil
}

// Verify checks (account, allocation) membership against the current root.
func (l *Allowlist) Verify(account aurum.Address, allocation *big.Int, proof []aurum.Bytes32) (bool, error) {
	root, err := l.Root()
	if err != nil {
		return false, err
	}
	if allocation == nil || allocation.Sign() <= 0 {
		return false, nil
	}
	return merkle.Verify(root, merkle.AccountLeaf(account, allocation), proof), nil
}

func (l *Allowlist) getRecord(account aurum.Address) (*record, uint64, error) {
	version, err := l.RootVersion()
	if err != nil {
		return nil, 0, err
	}
	var r record
	if err := l.env.State().GetStructuredStorage(l.addr, recordKey(version, account), &r); err != nil {
		return nil, 0, err
	}
	return &r, version, nil
}

// Remaining returns allocation minus consumed under the current root
// version. Zero for an account that never proved its allocation.
func (l *Allowlist) Remaining(account aurum.Address) (*big.Int, error) {
	r, _, err := l.getRecord(account)
	if err != nil {
		return nil, err
	}
	if r.Allocation.Sign() == 0 {
		return &big.Int{}, nil
	}
	return new(big.Int).Sub(r.Allocation, r.Consumed), nil
}

// Consume draws amount down from an account's proven allocation. Restricted
// to the consumer role; the registry is driven by other engines, never by the
// account itself. The proof is verified on first use per root version and the
// proven allocation is pinned from then on.
func (l *Allowlist) Consume(account aurum.Address, allocation, amount *big.Int, proof []aurum.Bytes32) error {
	if err := l.auth.CheckRole(aurum.RoleConsumer); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return errs.InvalidInput("amount must be positive")
	}
	if allocation == nil || allocation.Sign() <= 0 {
		return errs.InvalidInput("allocation must be positive")
	}

	r, version, err := l.getRecord(account)
	if err != nil {
		return err
	}
	if r.Allocation.Sign() == 0 {
		ok, err := l.Verify(account, allocation, proof)
		if err != nil {
			return err
		}
		if !ok {
			return errs.InvalidProof("allocation proof rejected for %v", account)
		}
		r.Allocation = allocation
	} else if r.Allocation.Cmp(allocation) != 0 {
		return errs.InvalidInput("allocation %v does not match proven %v", allocation, r.Allocation)
	}

	consumed := new(big.Int).Add(r.Consumed, amount)
	if consumed.Cmp(r.Allocation) > 0 {
		return errs.ExceedsLimit("consumption %v exceeds allocation %v", consumed, r.Allocation)
	}
	r.Consumed = consumed
	if err := l.env.State().SetStructuredStorage(l.addr, recordKey(version, account), r); err != nil {
		return err
	}

	l.env.Emit(l.addr, "consumed",
		runtime.Attr{Key: "account", Value: account.String()},
		runtime.Attr{Key: "amount", Value: amount.String()},
		runtime.Attr{Key: "remaining", Value: new(big.Int).Sub(r.Allocation, r.Consumed).String()},
	)
	return nil
}
