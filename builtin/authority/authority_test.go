// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package authority_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin"
	"github.com/aurum-network/aurum/builtin/errs"
	"github.com/aurum-network/aurum/fortest"
)

func TestMasterInitializedAtGenesis(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)

	require.NoError(t, bench.View(func(e *builtin.Engines) error {
		master, err := e.Authority.Master()
		require.NoError(t, err)
		assert.Equal(t, fortest.Accounts[0].Address, master)
		return nil
	}))

	// second init must fail
	err = bench.Call(fortest.Accounts[0].Address, func(e *builtin.Engines) error {
		return e.Authority.InitMaster(fortest.Accounts[1].Address)
	})
	assert.True(t, errs.IsKind(err, errs.KindInvalidState))
}

func TestGrantRevoke(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)
	master := fortest.Accounts[0].Address
	minter := fortest.Accounts[1].Address

	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		return e.Authority.Grant(aurum.RoleMinter, minter)
	}))

	require.NoError(t, bench.View(func(e *builtin.Engines) error {
		ok, err := e.Authority.Has(aurum.RoleMinter, minter)
		require.NoError(t, err)
		assert.True(t, ok)

		members, err := e.Authority.Members(aurum.RoleMinter)
		require.NoError(t, err)
		assert.Equal(t, []aurum.Address{minter}, members)
		return nil
	}))

	// duplicate grant rejected
	err = bench.Call(master, func(e *builtin.Engines) error {
		return e.Authority.Grant(aurum.RoleMinter, minter)
	})
	assert.True(t, errs.IsKind(err, errs.KindInvalidState))

	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		return e.Authority.Revoke(aurum.RoleMinter, minter)
	}))

	require.NoError(t, bench.View(func(e *builtin.Engines) error {
		ok, err := e.Authority.Has(aurum.RoleMinter, minter)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	}))
}

func TestGrantRequiresMaster(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)

	err = bench.Call(fortest.Accounts[1].Address, func(e *builtin.Engines) error {
		return e.Authority.Grant(aurum.RoleMinter, fortest.Accounts[2].Address)
	})
	assert.True(t, errs.IsKind(err, errs.KindUnauthorized))
}

func TestMasterImplicitlyHoldsRoles(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)

	// minting is gated on the minter role; the master was never granted it
	// explicitly but must pass the check
	require.NoError(t, bench.Call(fortest.Accounts[0].Address, func(e *builtin.Engines) error {
		return e.BaseToken.Mint(fortest.Accounts[1].Address, fortest.Tokens(1))
	}))
}
