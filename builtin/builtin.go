// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin holds the well-known engine addresses and binds the whole
// engine set to an execution environment.
package builtin

import (
	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin/airdrop"
	"github.com/aurum-network/aurum/builtin/allowlist"
	"github.com/aurum-network/aurum/builtin/authority"
	"github.com/aurum-network/aurum/builtin/ledger"
	"github.com/aurum-network/aurum/builtin/sale"
	"github.com/aurum-network/aurum/builtin/staking"
	"github.com/aurum-network/aurum/builtin/vesting"
	"github.com/aurum-network/aurum/runtime"
)

// Well-known engine addresses, fixed for the lifetime of a deployment.
var (
	AuthorityAddress  = aurum.BytesToAddress([]byte("Authority"))
	BaseTokenAddress  = aurum.BytesToAddress([]byte("BaseToken"))
	QuoteTokenAddress = aurum.BytesToAddress([]byte("QuoteToken"))
	SaleAddress       = aurum.BytesToAddress([]byte("Sale"))
	StakingAddress    = aurum.BytesToAddress([]byte("Staking"))
	VestingAddress    = aurum.BytesToAddress([]byte("Vesting"))
	AirdropAddress    = aurum.BytesToAddress([]byte("Airdrop"))
	AllowlistAddress  = aurum.BytesToAddress([]byte("Allowlist"))
)

// Engines is the full engine set bound to one execution environment.
// The bindings are cheap to construct and carry no state of their own; a
// fresh set is made for every call.
type Engines struct {
	Authority  *authority.Authority
	BaseToken  *ledger.Ledger
	QuoteToken *ledger.Ledger
	Sale       *sale.Sale
	Staking    *staking.Staking
	Vesting    *vesting.Vesting
	Airdrop    *airdrop.Airdrop
	Allowlist  *allowlist.Allowlist
}

// Bind wires every engine to env at its well-known address.
// The sale sells the base token against the quote token; staking stakes the
// base token and pays rewards in the quote token, keeping staked principal
// and the reward pool in separate ledgers; vesting and airdrop escrow the
// base token.
func Bind(env *runtime.Env) *Engines {
	auth := authority.New(AuthorityAddress, env)
	base := ledger.New(BaseTokenAddress, env, auth)
	quote := ledger.New(QuoteTokenAddress, env, auth)
	return &Engines{
		Authority:  auth,
		BaseToken:  base,
		QuoteToken: quote,
		Sale:       sale.New(SaleAddress, env, auth, base, quote),
		Staking:    staking.New(StakingAddress, env, auth, base, quote),
		Vesting:    vesting.New(VestingAddress, env, auth, base),
		Airdrop:    airdrop.New(AirdropAddress, env, auth, base),
		Allowlist:  allowlist.New(AllowlistAddress, env, auth),
	}
}
