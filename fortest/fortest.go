// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fortest provides fixtures shared by engine tests: funded accounts
// with known private keys and an in-memory bench with a controllable clock.
package fortest

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin"
	"github.com/aurum-network/aurum/genesis"
	"github.com/aurum-network/aurum/lvldb"
	"github.com/aurum-network/aurum/runtime"
	"github.com/aurum-network/aurum/state"
)

// Account is a test identity with a known private key.
type Account struct {
	Address    aurum.Address
	PrivateKey *ecdsa.PrivateKey
}

// Accounts are the funded test identities. Accounts[0] is the genesis master.
var Accounts = []Account{
	hexToAccount("dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65"),
	hexToAccount("321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51"),
	hexToAccount("2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2"),
	hexToAccount("593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e"),
	hexToAccount("ca7b25fc980c759df5f3ce17a3d881d6e19a38e651fc4315fc08917edab41058"),
	hexToAccount("88d2d80b12b92feaa0da6d62309463d20408157723f2d7e799b6a74ead9a673b"),
}

func hexToAccount(str string) Account {
	pk, err := crypto.HexToECDSA(str)
	if err != nil {
		panic(err)
	}
	return Account{
		Address:    aurum.PubkeyToAddress(&pk.PublicKey),
		PrivateKey: pk,
	}
}

// GenesisTime is the bench clock at genesis.
const GenesisTime uint64 = 1_700_000_000

// InitialBalance is minted to every funded account in both tokens.
var InitialBalance = new(big.Int).Mul(big.NewInt(1_000_000), aurum.DecimalScale)

// Bench is an in-memory runtime with genesis applied and a manual clock.
type Bench struct {
	Runtime *runtime.Runtime
	now     uint64
}

// GenesisConfig returns the bench genesis: Accounts[0] is master, every
// account is funded with InitialBalance of both tokens.
func GenesisConfig() *genesis.Config {
	amount := math.HexOrDecimal256(*InitialBalance)
	var baseMints, quoteMints []genesis.Mint
	for _, acc := range Accounts {
		baseMints = append(baseMints, genesis.Mint{To: acc.Address, Amount: &amount})
		quoteMints = append(quoteMints, genesis.Mint{To: acc.Address, Amount: &amount})
	}
	return &genesis.Config{
		Master: Accounts[0].Address,
		BaseToken: genesis.TokenConfig{
			Name:   "Aurum",
			Symbol: "AUR",
			Mints:  baseMints,
		},
		QuoteToken: genesis.TokenConfig{
			Name:   "Aurum Quote",
			Symbol: "AURQ",
			Mints:  quoteMints,
		},
	}
}

// NewBench creates a bench over a fresh in-memory state.
func NewBench() (*Bench, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	b := &Bench{now: GenesisTime}
	b.Runtime = runtime.New(state.New(db), runtime.Options{
		NowFunc: func() uint64 { return b.now },
	})
	if err := genesis.Build(b.Runtime, GenesisConfig()); err != nil {
		return nil, err
	}
	return b, nil
}

// Now returns the bench clock.
func (b *Bench) Now() uint64 {
	return b.now
}

// SetTime moves the bench clock to t.
func (b *Bench) SetTime(t uint64) {
	b.now = t
}

// AdvanceTime moves the bench clock forward by d seconds.
func (b *Bench) AdvanceTime(d uint64) {
	b.now += d
}

// Call runs fn as one atomic transition with the engines bound.
func (b *Bench) Call(actor aurum.Address, fn func(*builtin.Engines) error) error {
	return b.Runtime.Call(actor, func(env *runtime.Env) error {
		return fn(builtin.Bind(env))
	})
}

// View runs fn read-only with the engines bound.
func (b *Bench) View(fn func(*builtin.Engines) error) error {
	return b.Runtime.View(func(env *runtime.Env) error {
		return fn(builtin.Bind(env))
	})
}

// Tokens returns amount whole tokens in base units.
func Tokens(amount int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(amount), aurum.DecimalScale)
}
