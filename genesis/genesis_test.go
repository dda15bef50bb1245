// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin"
	"github.com/aurum-network/aurum/builtin/sale"
	"github.com/aurum-network/aurum/genesis"
	"github.com/aurum-network/aurum/lvldb"
	"github.com/aurum-network/aurum/runtime"
	"github.com/aurum-network/aurum/state"
)

const launchTime uint64 = 1_700_000_000

var (
	masterAddr = aurum.BytesToAddress([]byte("master"))
	investor   = aurum.BytesToAddress([]byte("investor"))
	treasury   = aurum.BytesToAddress([]byte("treasury"))
)

func amount(tokens int64) *math.HexOrDecimal256 {
	v := new(big.Int).Mul(big.NewInt(tokens), aurum.DecimalScale)
	out := math.HexOrDecimal256(*v)
	return &out
}

func testConfig() *genesis.Config {
	return &genesis.Config{
		Master: masterAddr,
		BaseToken: genesis.TokenConfig{
			Name:   "Aurum",
			Symbol: "AUR",
			Mints:  []genesis.Mint{{To: investor, Amount: amount(1000)}},
		},
		QuoteToken: genesis.TokenConfig{
			Name:   "Stable",
			Symbol: "STBL",
			Mints:  []genesis.Mint{{To: investor, Amount: amount(5000)}},
		},
		Roles: []genesis.RoleGrant{
			{Role: "minter", Address: investor},
			{Role: "pauser", Address: investor},
		},
		Sale: &genesis.SaleConfig{
			Tiers: []genesis.TierConfig{
				{Price: amount(2), Supply: amount(100)},
			},
			WindowStart: launchTime + 3600,
			WindowEnd:   launchTime + 7200,
			Treasury:    treasury,
			Inventory:   amount(100),
		},
	}
}

func build(t *testing.T, cfg *genesis.Config) *runtime.Runtime {
	t.Helper()
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	rt := runtime.New(state.New(db), runtime.Options{
		NowFunc: func() uint64 { return launchTime },
	})
	require.NoError(t, genesis.Build(rt, cfg))
	return rt
}

func TestBuild(t *testing.T) {
	rt := build(t, testConfig())

	require.NoError(t, rt.View(func(env *runtime.Env) error {
		e := builtin.Bind(env)

		master, err := e.Authority.Master()
		require.NoError(t, err)
		assert.Equal(t, masterAddr, master)

		symbol, err := e.BaseToken.Symbol()
		require.NoError(t, err)
		assert.Equal(t, "AUR", symbol)

		bal, err := e.QuoteToken.BalanceOf(investor)
		require.NoError(t, err)
		assert.Equal(t, (*big.Int)(amount(5000)), bal)

		ok, err := e.Authority.Has(aurum.RoleMinter, investor)
		require.NoError(t, err)
		assert.True(t, ok)

		status, err := e.Sale.Status()
		require.NoError(t, err)
		assert.Equal(t, sale.StatusNotStarted, status)

		inventory, err := e.BaseToken.BalanceOf(builtin.SaleAddress)
		require.NoError(t, err)
		assert.Equal(t, (*big.Int)(amount(100)), inventory)
		return nil
	}))
}

func TestBuildDeterministic(t *testing.T) {
	read := func(rt *runtime.Runtime) (supply *big.Int, members []aurum.Address) {
		require.NoError(t, rt.View(func(env *runtime.Env) error {
			e := builtin.Bind(env)
			var err error
			if supply, err = e.BaseToken.TotalSupply(); err != nil {
				return err
			}
			members, err = e.Authority.Members(aurum.RoleMinter)
			return err
		}))
		return
	}

	supplyA, membersA := read(build(t, testConfig()))
	supplyB, membersB := read(build(t, testConfig()))
	assert.Equal(t, supplyA, supplyB)
	assert.Equal(t, membersA, membersB)
}

func TestBuildRejectsUnknownRole(t *testing.T) {
	cfg := testConfig()
	cfg.Roles = append(cfg.Roles, genesis.RoleGrant{Role: "overlord", Address: investor})

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	rt := runtime.New(state.New(db), runtime.Options{
		NowFunc: func() uint64 { return launchTime },
	})
	require.Error(t, genesis.Build(rt, cfg))

	// the failed build left the state empty
	require.NoError(t, rt.View(func(env *runtime.Env) error {
		master, err := builtin.Bind(env).Authority.Master()
		require.NoError(t, err)
		assert.True(t, master.IsZero())
		return nil
	}))
}

func TestBuildRequiresMaster(t *testing.T) {
	cfg := testConfig()
	cfg.Master = aurum.Address{}

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	rt := runtime.New(state.New(db), runtime.Options{})
	require.Error(t, genesis.Build(rt, cfg))
}
