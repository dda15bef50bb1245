// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package authority implements the flat role registry.
// A role is a 32-byte identifier mapped to a set of authorized addresses,
// checked at the top of each gated engine operation.
package authority

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin/errs"
	"github.com/aurum-network/aurum/runtime"
)

var masterKey = aurum.Blake2b([]byte("master"))

func membersKey(role aurum.Bytes32) aurum.Bytes32 {
	return aurum.Blake2b([]byte("members"), role.Bytes())
}

// Authority binds the role registry to an execution environment.
type Authority struct {
	addr aurum.Address
	env  *runtime.Env
}

// New creates a registry binding.
func New(addr aurum.Address, env *runtime.Env) *Authority {
	return &Authority{addr, env}
}

// Address returns the registry address.
func (a *Authority) Address() aurum.Address {
	return a.addr
}

// Master returns the administrative owner address.
func (a *Authority) Master() (aurum.Address, error) {
	return a.env.State().GetAddress(a.addr, masterKey)
}

// InitMaster sets the master address. Allowed only while unset (genesis).
func (a *Authority) InitMaster(master aurum.Address) error {
	current, err := a.Master()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return errs.InvalidState("master already initialized")
	}
	if master.IsZero() {
		return errs.InvalidInput("zero master address")
	}
	return a.env.State().SetAddress(a.addr, masterKey, master)
}

// CheckMaster fails with Unauthorized unless the caller is the master.
func (a *Authority) CheckMaster() error {
	master, err := a.Master()
	if err != nil {
		return err
	}
	if a.env.Caller() != master {
		return errs.Unauthorized("caller %v is not master", a.env.Caller())
	}
	return nil
}

// Members lists the addresses holding the given role.
func (a *Authority) Members(role aurum.Bytes32) ([]aurum.Address, error) {
	var members []aurum.Address
	if err := a.env.State().DecodeStorage(a.addr, membersKey(role), func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &members)
	}); err != nil {
		return nil, err
	}
	return members, nil
}

func (a *Authority) setMembers(role aurum.Bytes32, members []aurum.Address) error {
	return a.env.State().EncodeStorage(a.addr, membersKey(role), func() ([]byte, error) {
		if len(members) == 0 {
			return nil, nil
		}
		return rlp.EncodeToBytes(members)
	})
}

// Has reports whether addr holds the given role.
func (a *Authority) Has(role aurum.Bytes32, addr aurum.Address) (bool, error) {
	members, err := a.Members(role)
	if err != nil {
		return false, err
	}
	for _, m := range members {
		if m == addr {
			return true, nil
		}
	}
	return false, nil
}

// CheckRole fails with Unauthorized unless the caller holds the role.
// The master implicitly holds every role.
func (a *Authority) CheckRole(role aurum.Bytes32) error {
	master, err := a.Master()
	if err != nil {
		return err
	}
	if a.env.Caller() == master {
		return nil
	}
	ok, err := a.Has(role, a.env.Caller())
	if err != nil {
		return err
	}
	if !ok {
		return errs.Unauthorized("caller %v lacks required role", a.env.Caller())
	}
	return nil
}

// Grant adds addr to the role member set. Master only.
func (a *Authority) Grant(role aurum.Bytes32, addr aurum.Address) error {
	if err := a.CheckMaster(); err != nil {
		return err
	}
	if addr.IsZero() {
		return errs.InvalidInput("zero address")
	}
	members, err := a.Members(role)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m == addr {
			return errs.InvalidState("role already granted to %v", addr)
		}
	}
	if err := a.setMembers(role, append(members, addr)); err != nil {
		return err
	}
	a.env.Emit(a.addr, "admin_role_granted",
		runtime.Attr{Key: "role", Value: role.String()},
		runtime.Attr{Key: "address", Value: addr.String()},
	)
	return nil
}

// Revoke removes addr from the role member set. Master only.
func (a *Authority) Revoke(role aurum.Bytes32, addr aurum.Address) error {
	if err := a.CheckMaster(); err != nil {
		return err
	}
	members, err := a.Members(role)
	if err != nil {
		return err
	}
	for i, m := range members {
		if m == addr {
			if err := a.setMembers(role, append(members[:i:i], members[i+1:]...)); err != nil {
				return err
			}
			a.env.Emit(a.addr, "admin_role_revoked",
				runtime.Attr{Key: "role", Value: role.String()},
				runtime.Attr{Key: "address", Value: addr.String()},
			)
			return nil
		}
	}
	return errs.InvalidState("role not granted to %v", addr)
}
