// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sale_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin"
	"github.com/aurum-network/aurum/builtin/errs"
	"github.com/aurum-network/aurum/builtin/merkle"
	"github.com/aurum-network/aurum/builtin/sale"
	"github.com/aurum-network/aurum/fortest"
)

var (
	master   = fortest.Accounts[0].Address
	alice    = fortest.Accounts[1].Address
	treasury = fortest.Accounts[5].Address
)

// price in quote units per whole base token, scaled like token amounts
func price(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), aurum.DecimalScale)
}

// newSale configures two tiers (100 tokens at price 2, 500 tokens at price 3)
// opening in one hour and running for a day, with 600 tokens of inventory.
func newSale(t *testing.T) *fortest.Bench {
	t.Helper()
	bench, err := fortest.NewBench()
	require.NoError(t, err)

	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		if err := e.Sale.ConfigureTiers([]*sale.Tier{
			{Price: price(2), Remaining: fortest.Tokens(100)},
			{Price: price(3), Remaining: fortest.Tokens(500)},
		}); err != nil {
			return err
		}
		if err := e.Sale.SetWindow(bench.Now()+3600, bench.Now()+3600+86400); err != nil {
			return err
		}
		if err := e.Sale.SetTreasury(treasury); err != nil {
			return err
		}
		return e.BaseToken.Mint(builtin.SaleAddress, fortest.Tokens(600))
	}))
	return bench
}

func openSale(bench *fortest.Bench) {
	bench.AdvanceTime(3600)
}

func purchase(bench *fortest.Bench, buyer aurum.Address, quote *big.Int) ([]*sale.Fill, error) {
	var fills []*sale.Fill
	err := bench.Call(buyer, func(e *builtin.Engines) error {
		if err := e.QuoteToken.Approve(builtin.SaleAddress, quote); err != nil {
			return err
		}
		var err error
		fills, err = e.Sale.Purchase(quote, nil, nil)
		return err
	})
	return fills, err
}

func TestStatusTransitions(t *testing.T) {
	bench := newSale(t)

	status := func() sale.Status {
		var st sale.Status
		require.NoError(t, bench.View(func(e *builtin.Engines) error {
			var err error
			st, err = e.Sale.Status()
			return err
		}))
		return st
	}

	assert.Equal(t, sale.StatusNotStarted, status())
	openSale(bench)
	assert.Equal(t, sale.StatusActive, status())
	bench.AdvanceTime(86400)
	assert.Equal(t, sale.StatusEnded, status())
}

func TestPurchaseBeforeStartAndAfterEnd(t *testing.T) {
	bench := newSale(t)

	_, err := purchase(bench, alice, fortest.Tokens(10))
	assert.True(t, errs.IsKind(err, errs.KindInvalidState))

	openSale(bench)
	bench.AdvanceTime(86400)
	_, err = purchase(bench, alice, fortest.Tokens(10))
	assert.True(t, errs.IsKind(err, errs.KindInvalidState))
}

func TestPurchaseWithinOneTier(t *testing.T) {
	bench := newSale(t)
	openSale(bench)

	fills, err := purchase(bench, alice, fortest.Tokens(50))
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, 0, fills[0].Tier)
	assert.Equal(t, fortest.Tokens(25), fills[0].TokensOut)

	require.NoError(t, bench.View(func(e *builtin.Engines) error {
		bal, err := e.BaseToken.BalanceOf(alice)
		require.NoError(t, err)
		assert.Equal(t, new(big.Int).Add(fortest.InitialBalance, fortest.Tokens(25)), bal)

		quoteBal, err := e.QuoteToken.BalanceOf(alice)
		require.NoError(t, err)
		assert.Equal(t, new(big.Int).Sub(fortest.InitialBalance, fortest.Tokens(50)), quoteBal)

		tiers, err := e.Sale.Tiers()
		require.NoError(t, err)
		assert.Equal(t, fortest.Tokens(75), tiers[0].Remaining)
		return nil
	}))
}

func TestPurchaseCrossesTierBoundary(t *testing.T) {
	bench := newSale(t)
	openSale(bench)

	// 250 quote: 200 clears tier 0 (100 tokens at price 2), the remaining
	// 50 buys into tier 1 at price 3
	fills, err := purchase(bench, alice, fortest.Tokens(250))
	require.NoError(t, err)
	require.Len(t, fills, 2)

	assert.Equal(t, 0, fills[0].Tier)
	assert.Equal(t, fortest.Tokens(200), fills[0].QuoteSpent)
	assert.Equal(t, fortest.Tokens(100), fills[0].TokensOut)

	assert.Equal(t, 1, fills[1].Tier)
	assert.Equal(t, fortest.Tokens(50), fills[1].QuoteSpent)
	expected := new(big.Int).Div(new(big.Int).Mul(fortest.Tokens(50), aurum.DecimalScale), price(3))
	assert.Equal(t, expected, fills[1].TokensOut)

	// each portion was charged at its own tier's price
	require.NoError(t, bench.View(func(e *builtin.Engines) error {
		tiers, err := e.Sale.Tiers()
		require.NoError(t, err)
		assert.Equal(t, 0, tiers[0].Remaining.Sign())
		assert.Equal(t, new(big.Int).Sub(fortest.Tokens(500), expected), tiers[1].Remaining)
		return nil
	}))
}

func TestPurchaseFailsWhenTiersExhausted(t *testing.T) {
	bench := newSale(t)
	openSale(bench)

	// total capacity costs 200 + 1500 quote; one token more must fail whole
	_, err := purchase(bench, alice, fortest.Tokens(1701))
	assert.True(t, errs.IsKind(err, errs.KindExhausted))

	// nothing moved
	require.NoError(t, bench.View(func(e *builtin.Engines) error {
		bal, err := e.QuoteToken.BalanceOf(alice)
		require.NoError(t, err)
		assert.Equal(t, fortest.InitialBalance, bal)

		contribution, err := e.Sale.ContributionOf(alice)
		require.NoError(t, err)
		assert.Equal(t, 0, contribution.Sign())
		return nil
	}))

	// the exact capacity clears
	fills, err := purchase(bench, alice, fortest.Tokens(1700))
	require.NoError(t, err)
	assert.Len(t, fills, 2)
}

func TestContributionBounds(t *testing.T) {
	bench := newSale(t)
	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		return e.Sale.SetContributionBounds(fortest.Tokens(10), fortest.Tokens(100))
	}))
	openSale(bench)

	_, err := purchase(bench, alice, fortest.Tokens(5))
	assert.True(t, errs.IsKind(err, errs.KindExceedsLimit))

	_, err = purchase(bench, alice, fortest.Tokens(60))
	require.NoError(t, err)

	// the cap applies to the cumulative contribution
	_, err = purchase(bench, alice, fortest.Tokens(41))
	assert.True(t, errs.IsKind(err, errs.KindExceedsLimit))

	_, err = purchase(bench, alice, fortest.Tokens(40))
	require.NoError(t, err)
}

func TestWhitelistedPurchase(t *testing.T) {
	bench := newSale(t)

	cap1 := fortest.Tokens(100)
	cap2 := fortest.Tokens(50)
	leaves := []aurum.Bytes32{
		merkle.AccountLeaf(alice, cap1),
		merkle.AccountLeaf(fortest.Accounts[2].Address, cap2),
	}
	tree := merkle.NewTree(leaves)
	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		return e.Sale.SetWhitelistRoot(tree.Root())
	}))
	openSale(bench)

	buy := func(buyer aurum.Address, quote, cap *big.Int, proof []aurum.Bytes32) error {
		return bench.Call(buyer, func(e *builtin.Engines) error {
			if err := e.QuoteToken.Approve(builtin.SaleAddress, quote); err != nil {
				return err
			}
			_, err := e.Sale.Purchase(quote, cap, proof)
			return err
		})
	}

	// no proof
	err := buy(alice, fortest.Tokens(10), nil, nil)
	assert.True(t, errs.IsKind(err, errs.KindInvalidInput))

	// tampered cap
	err = buy(alice, fortest.Tokens(10), fortest.Tokens(500), tree.Proof(0))
	assert.True(t, errs.IsKind(err, errs.KindInvalidProof))

	// genuine proof
	require.NoError(t, buy(alice, fortest.Tokens(80), cap1, tree.Proof(0)))

	// cumulative contribution may not exceed the proven cap
	err = buy(alice, fortest.Tokens(21), cap1, tree.Proof(0))
	assert.True(t, errs.IsKind(err, errs.KindExceedsLimit))
}

func TestReconfigurationFrozenAfterStart(t *testing.T) {
	bench := newSale(t)
	openSale(bench)

	err := bench.Call(master, func(e *builtin.Engines) error {
		return e.Sale.ConfigureTiers([]*sale.Tier{{Price: price(1), Remaining: fortest.Tokens(1)}})
	})
	assert.True(t, errs.IsKind(err, errs.KindInvalidState))

	err = bench.Call(master, func(e *builtin.Engines) error {
		return e.Sale.SetWindow(bench.Now()+10, bench.Now()+20)
	})
	assert.True(t, errs.IsKind(err, errs.KindInvalidState))

	err = bench.Call(master, func(e *builtin.Engines) error {
		return e.Sale.SetWhitelistRoot(aurum.Bytes32{0x01})
	})
	assert.True(t, errs.IsKind(err, errs.KindInvalidState))

	// the treasury is not price-relevant and stays settable
	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		return e.Sale.SetTreasury(fortest.Accounts[4].Address)
	}))
}

func TestWithdrawSweepsProceeds(t *testing.T) {
	bench := newSale(t)
	openSale(bench)

	_, err := purchase(bench, alice, fortest.Tokens(200))
	require.NoError(t, err)

	require.NoError(t, bench.Call(master, func(e *builtin.Engines) error {
		amount, err := e.Sale.Withdraw()
		if err != nil {
			return err
		}
		assert.Equal(t, fortest.Tokens(200), amount)
		return nil
	}))

	require.NoError(t, bench.View(func(e *builtin.Engines) error {
		bal, err := e.QuoteToken.BalanceOf(treasury)
		require.NoError(t, err)
		assert.Equal(t, new(big.Int).Add(fortest.InitialBalance, fortest.Tokens(200)), bal)
		return nil
	}))

	// nothing left to sweep
	err = bench.Call(master, func(e *builtin.Engines) error {
		_, err := e.Sale.Withdraw()
		return err
	})
	assert.True(t, errs.IsKind(err, errs.KindInvalidState))
}
