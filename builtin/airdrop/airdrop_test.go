// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package airdrop_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin"
	"github.com/aurum-network/aurum/builtin/errs"
	"github.com/aurum-network/aurum/builtin/merkle"
	"github.com/aurum-network/aurum/fortest"
)

var master = fortest.Accounts[0].Address

type entry struct {
	index   uint64
	account aurum.Address
	amount  *big.Int
}

func makeRound(t *testing.T, bench *fortest.Bench, entries []entry, advance bool) (uint64, *merkle.Tree) {
	t.Helper()
	leaves := make([]aurum.Bytes32, 0, len(entries))
	total := new(big.Int)
	for _, e := range entries {
		leaves = append(leaves, merkle.Leaf(e.index, e.account, e.amount))
		total.Add(total, e.amount)
	}
	tree := merkle.NewTree(leaves)

	var round uint64
	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		var err error
		if round, err = e.Airdrop.SetRoot(tree.Root(), advance); err != nil {
			return err
		}
		return e.BaseToken.Mint(builtin.AirdropAddress, total)
	}))
	return round, tree
}

func defaultEntries() []entry {
	return []entry{
		{0, fortest.Accounts[1].Address, fortest.Tokens(100)},
		{1, fortest.Accounts[2].Address, fortest.Tokens(200)},
		{2, fortest.Accounts[3].Address, fortest.Tokens(300)},
	}
}

func TestClaim(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)
	entries := defaultEntries()
	round, tree := makeRound(t, bench, entries, false)
	assert.Equal(t, uint64(1), round)

	claimant := entries[1]
	require.NoError(t, bench.Call(claimant.account, func(e *builtin.Engines) error {
		return e.Airdrop.Claim(claimant.index, claimant.account, claimant.amount, tree.Proof(1))
	}))

	require.NoError(t, bench.View(func(e *builtin.Engines) error {
		bal, err := e.BaseToken.BalanceOf(claimant.account)
		require.NoError(t, err)
		assert.Equal(t, new(big.Int).Add(fortest.InitialBalance, claimant.amount), bal)

		claimed, err := e.Airdrop.IsClaimed(round, claimant.index)
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = e.Airdrop.IsClaimed(round, 0)
		require.NoError(t, err)
		assert.False(t, claimed)
		return nil
	}))
}

func TestDoubleClaimRejected(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)
	entries := defaultEntries()
	_, tree := makeRound(t, bench, entries, false)

	claim := func() error {
		return bench.Call(entries[0].account, func(e *builtin.Engines) error {
			return e.Airdrop.Claim(0, entries[0].account, entries[0].amount, tree.Proof(0))
		})
	}
	require.NoError(t, claim())
	assert.True(t, errs.IsKind(claim(), errs.KindAlreadyClaimed))
}

func TestTamperedClaimRejected(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)
	entries := defaultEntries()
	_, tree := makeRound(t, bench, entries, false)

	// inflated amount
	err = bench.Call(entries[0].account, func(e *builtin.Engines) error {
		return e.Airdrop.Claim(0, entries[0].account, fortest.Tokens(999), tree.Proof(0))
	})
	assert.True(t, errs.IsKind(err, errs.KindInvalidProof))

	// someone else's entry redirected
	err = bench.Call(master, func(e *builtin.Engines) error {
		return e.Airdrop.Claim(0, master, entries[0].amount, tree.Proof(0))
	})
	assert.True(t, errs.IsKind(err, errs.KindInvalidProof))
}

func TestHistoricalRoundStaysClaimable(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)
	entries := defaultEntries()
	round1, tree1 := makeRound(t, bench, entries, false)

	// a second round with its own root and bitmap
	later := []entry{{0, fortest.Accounts[4].Address, fortest.Tokens(50)}}
	round2, tree2 := makeRound(t, bench, later, true)
	assert.Equal(t, round1+1, round2)

	// Claim targets the current round
	require.NoError(t, bench.Call(later[0].account, func(e *builtin.Engines) error {
		return e.Airdrop.Claim(0, later[0].account, later[0].amount, tree2.Proof(0))
	}))

	// index 0 of round 1 is untouched and still claimable explicitly
	require.NoError(t, bench.Call(entries[0].account, func(e *builtin.Engines) error {
		return e.Airdrop.ClaimFromRound(round1, 0, entries[0].account, entries[0].amount, tree1.Proof(0))
	}))
}

func TestClaimedBitmapScopedPerRound(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)

	// a high index lands in bitmap word 2 of round 1; that word must stay
	// distinct from word 0 of round 258
	alice := fortest.Accounts[1].Address
	amount := fortest.Tokens(10)
	round1, tree1 := makeRound(t, bench, []entry{{512, alice, amount}}, false)
	require.NoError(t, bench.Call(alice, func(e *builtin.Engines) error {
		return e.Airdrop.ClaimFromRound(round1, 512, alice, amount, tree1.Proof(0))
	}))

	require.NoError(t, bench.View(func(e *builtin.Engines) error {
		for _, index := range []uint64{0, 127, 255} {
			claimed, err := e.Airdrop.IsClaimed(258, index)
			require.NoError(t, err)
			assert.False(t, claimed)
		}
		return nil
	}))

	// and the round-258 entry is still claimable
	bob := fortest.Accounts[2].Address
	tree2 := merkle.NewTree([]aurum.Bytes32{merkle.Leaf(0, bob, amount)})
	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		round := round1
		for round < 258 {
			var err error
			if round, err = e.Airdrop.SetRoot(tree2.Root(), true); err != nil {
				return err
			}
		}
		return e.BaseToken.Mint(builtin.AirdropAddress, amount)
	}))
	require.NoError(t, bench.Call(bob, func(e *builtin.Engines) error {
		return e.Airdrop.ClaimFromRound(258, 0, bob, amount, tree2.Proof(0))
	}))
}

func TestPauseBlocksClaims(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)
	entries := defaultEntries()
	round, tree := makeRound(t, bench, entries, false)

	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		return e.Airdrop.Pause()
	}))
	err = bench.Call(entries[0].account, func(e *builtin.Engines) error {
		return e.Airdrop.Claim(0, entries[0].account, entries[0].amount, tree.Proof(0))
	})
	assert.True(t, errs.IsKind(err, errs.KindInvalidState))

	// the airdrop pause is independent of the ledger pause
	require.NoError(t, bench.Call(entries[0].account, func(e *builtin.Engines) error {
		return e.BaseToken.Transfer(entries[1].account, fortest.Tokens(1))
	}))

	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		return e.Airdrop.Unpause()
	}))
	require.NoError(t, bench.Call(entries[0].account, func(e *builtin.Engines) error {
		return e.Airdrop.Claim(0, entries[0].account, entries[0].amount, tree.Proof(0))
	}))

	claimed := false
	require.NoError(t, bench.View(func(e *builtin.Engines) error {
		var err error
		claimed, err = e.Airdrop.IsClaimed(round, 0)
		return err
	}))
	assert.True(t, claimed)
}

func TestUnderfundedClaimFailsLoudly(t *testing.T) {
	bench, err := fortest.NewBench()
	require.NoError(t, err)

	entries := []entry{{0, fortest.Accounts[1].Address, fortest.Tokens(100)}}
	leaves := []aurum.Bytes32{merkle.Leaf(0, entries[0].account, entries[0].amount)}
	tree := merkle.NewTree(leaves)

	// root published but the escrow never funded
	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		_, err := e.Airdrop.SetRoot(tree.Root(), false)
		return err
	}))

	err = bench.Call(entries[0].account, func(e *builtin.Engines) error {
		return e.Airdrop.Claim(0, entries[0].account, entries[0].amount, tree.Proof(0))
	})
	assert.True(t, errs.IsKind(err, errs.KindExhausted))

	// funding afterwards makes the same claim pass
	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		if err := e.BaseToken.Mint(master, fortest.Tokens(100)); err != nil {
			return err
		}
		return e.Airdrop.Fund(fortest.Tokens(100))
	}))
	require.NoError(t, bench.Call(entries[0].account, func(e *builtin.Engines) error {
		return e.Airdrop.Claim(0, entries[0].account, entries[0].amount, tree.Proof(0))
	}))
}
