// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin"
	"github.com/aurum-network/aurum/builtin/errs"
	"github.com/aurum-network/aurum/fortest"
)

var (
	master = fortest.Accounts[0].Address
	alice  = fortest.Accounts[1].Address
	bob    = fortest.Accounts[2].Address
)

func TestGenesisBalances(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)

	require.NoError(t, bench.View(func(e *builtin.Engines) error {
		name, err := e.BaseToken.Name()
		require.NoError(t, err)
		assert.Equal(t, "Aurum", name)

		bal, err := e.BaseToken.BalanceOf(alice)
		require.NoError(t, err)
		assert.Equal(t, fortest.InitialBalance, bal)

		supply, err := e.BaseToken.TotalSupply()
		require.NoError(t, err)
		expected := new(big.Int).Mul(fortest.InitialBalance, big.NewInt(int64(len(fortest.Accounts))))
		assert.Equal(t, expected, supply)
		return nil
	}))
}

func TestTransfer(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)

	require.NoError(t, bench.Call(alice, func(e *builtin.Engines) error {
		return e.BaseToken.Transfer(bob, fortest.Tokens(100))
	}))

	require.NoError(t, bench.View(func(e *builtin.Engines) error {
		balA, err := e.BaseToken.BalanceOf(alice)
		require.NoError(t, err)
		balB, err := e.BaseToken.BalanceOf(bob)
		require.NoError(t, err)
		assert.Equal(t, new(big.Int).Sub(fortest.InitialBalance, fortest.Tokens(100)), balA)
		assert.Equal(t, new(big.Int).Add(fortest.InitialBalance, fortest.Tokens(100)), balB)
		return nil
	}))

	// overdraw
	err = bench.Call(alice, func(e *builtin.Engines) error {
		return e.BaseToken.Transfer(bob, new(big.Int).Add(fortest.InitialBalance, fortest.Tokens(1)))
	})
	assert.True(t, errs.IsKind(err, errs.KindExceedsLimit))

	// zero amount
	err = bench.Call(alice, func(e *builtin.Engines) error {
		return e.BaseToken.Transfer(bob, big.NewInt(0))
	})
	assert.True(t, errs.IsKind(err, errs.KindInvalidInput))
}

func TestApproveTransferFrom(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)

	require.NoError(t, bench.Call(alice, func(e *builtin.Engines) error {
		return e.BaseToken.Approve(bob, fortest.Tokens(50))
	}))

	require.NoError(t, bench.Call(bob, func(e *builtin.Engines) error {
		return e.BaseToken.TransferFrom(alice, bob, fortest.Tokens(30))
	}))

	require.NoError(t, bench.View(func(e *builtin.Engines) error {
		allowance, err := e.BaseToken.Allowance(alice, bob)
		require.NoError(t, err)
		assert.Equal(t, fortest.Tokens(20), allowance)
		return nil
	}))

	// exceeding the remaining allowance fails and changes nothing
	err = bench.Call(bob, func(e *builtin.Engines) error {
		return e.BaseToken.TransferFrom(alice, bob, fortest.Tokens(21))
	})
	assert.True(t, errs.IsKind(err, errs.KindExceedsLimit))
}

func TestMintBurnSupply(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)

	supplyBefore := new(big.Int)
	require.NoError(t, bench.View(func(e *builtin.Engines) error {
		s, err := e.BaseToken.TotalSupply()
		supplyBefore.Set(s)
		return err
	}))

	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		return e.BaseToken.Mint(alice, fortest.Tokens(500))
	}))
	require.NoError(t, bench.Call(alice, func(e *builtin.Engines) error {
		return e.BaseToken.Burn(fortest.Tokens(200))
	}))

	require.NoError(t, bench.View(func(e *builtin.Engines) error {
		supply, err := e.BaseToken.TotalSupply()
		require.NoError(t, err)
		expected := new(big.Int).Add(supplyBefore, fortest.Tokens(300))
		assert.Equal(t, expected, supply)

		minted, err := e.BaseToken.TotalMinted()
		require.NoError(t, err)
		burned, err := e.BaseToken.TotalBurned()
		require.NoError(t, err)
		assert.Equal(t, supply, minted.Sub(minted, burned))
		return nil
	}))

	// mint requires the minter role
	err = bench.Call(alice, func(e *builtin.Engines) error {
		return e.BaseToken.Mint(alice, fortest.Tokens(1))
	})
	assert.True(t, errs.IsKind(err, errs.KindUnauthorized))
}

func TestMintToZeroAddressRejected(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)

	err = bench.Call(master, func(e *builtin.Engines) error {
		return e.BaseToken.Mint(aurum.Address{}, fortest.Tokens(1))
	})
	assert.True(t, errs.IsKind(err, errs.KindInvalidInput))

	// supply untouched by the rejected mint
	require.NoError(t, bench.View(func(e *builtin.Engines) error {
		minted, err := e.BaseToken.TotalMinted()
		require.NoError(t, err)
		expected := new(big.Int).Mul(fortest.InitialBalance, big.NewInt(int64(len(fortest.Accounts))))
		assert.Equal(t, expected, minted)
		return nil
	}))
}

func TestPauseBlocksMovement(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)

	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		return e.BaseToken.Pause()
	}))

	err = bench.Call(alice, func(e *builtin.Engines) error {
		return e.BaseToken.Transfer(bob, fortest.Tokens(1))
	})
	assert.True(t, errs.IsKind(err, errs.KindInvalidState))

	err = bench.Call(alice, func(e *builtin.Engines) error {
		return e.BaseToken.Burn(fortest.Tokens(1))
	})
	assert.True(t, errs.IsKind(err, errs.KindInvalidState))

	// the quote ledger pauses independently
	require.NoError(t, bench.Call(alice, func(e *builtin.Engines) error {
		return e.QuoteToken.Transfer(bob, fortest.Tokens(1))
	}))

	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		return e.BaseToken.Unpause()
	}))
	require.NoError(t, bench.Call(alice, func(e *builtin.Engines) error {
		return e.BaseToken.Transfer(bob, fortest.Tokens(1))
	}))
}

func TestDenylistFailsClosed(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)

	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		return e.BaseToken.SetDenied(bob, true)
	}))

	// blocked as sender
	err = bench.Call(bob, func(e *builtin.Engines) error {
		return e.BaseToken.Transfer(alice, fortest.Tokens(1))
	})
	assert.True(t, errs.IsKind(err, errs.KindInvalidState))

	// blocked as recipient
	err = bench.Call(alice, func(e *builtin.Engines) error {
		return e.BaseToken.Transfer(bob, fortest.Tokens(1))
	})
	assert.True(t, errs.IsKind(err, errs.KindInvalidState))

	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		return e.BaseToken.SetDenied(bob, false)
	}))
	require.NoError(t, bench.Call(alice, func(e *builtin.Engines) error {
		return e.BaseToken.Transfer(bob, fortest.Tokens(1))
	}))
}
