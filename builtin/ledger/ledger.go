// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger implements the fungible-token account model.
// A Ledger instance is bound to one address; several instances over distinct
// addresses form independent tokens (e.g. the base token and the sale's
// quote token).
package ledger

import (
	"math/big"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin/authority"
	"github.com/aurum-network/aurum/builtin/errs"
	"github.com/aurum-network/aurum/runtime"
)

var (
	totalMintedKey = aurum.Blake2b([]byte("total-minted"))
	totalBurnedKey = aurum.Blake2b([]byte("total-burned"))
	pausedKey      = aurum.Blake2b([]byte("paused"))
	nameKey        = aurum.Blake2b([]byte("name"))
	symbolKey      = aurum.Blake2b([]byte("symbol"))
)

func accountKey(addr aurum.Address) aurum.Bytes32 {
	return aurum.Blake2b([]byte("a"), addr.Bytes())
}

func allowanceKey(owner, spender aurum.Address) aurum.Bytes32 {
	return aurum.Keccak256(owner.Bytes(), spender.Bytes())
}

func deniedKey(addr aurum.Address) aurum.Bytes32 {
	return aurum.Blake2b([]byte("d"), addr.Bytes())
}

func nonceKey(addr aurum.Address) aurum.Bytes32 {
	return aurum.Blake2b([]byte("n"), addr.Bytes())
}

// Ledger binds one token ledger to an execution environment.
type Ledger struct {
	addr aurum.Address
	env  *runtime.Env
	auth *authority.Authority
}

// New creates a ledger binding.
func New(addr aurum.Address, env *runtime.Env, auth *authority.Authority) *Ledger {
	return &Ledger{addr, env, auth}
}

// Address returns the ledger address.
func (l *Ledger) Address() aurum.Address {
	return l.addr
}

// Init sets token metadata. Allowed only while unset (genesis).
func (l *Ledger) Init(name, symbol string) error {
	existing, err := l.Name()
	if err != nil {
		return err
	}
	if existing != "" {
		return errs.InvalidState("ledger already initialized")
	}
	if name == "" || symbol == "" {
		return errs.InvalidInput("empty token name or symbol")
	}
	st := l.env.State()
	if err := st.EncodeStorage(l.addr, nameKey, func() ([]byte, error) {
		return []byte(name), nil
	}); err != nil {
		return err
	}
	return st.EncodeStorage(l.addr, symbolKey, func() ([]byte, error) {
		return []byte(symbol), nil
	})
}

// Name returns the token name.
func (l *Ledger) Name() (name string, err error) {
	err = l.env.State().DecodeStorage(l.addr, nameKey, func(raw []byte) error {
		name = string(raw)
		return nil
	})
	return
}

// Symbol returns the token symbol.
func (l *Ledger) Symbol() (symbol string, err error) {
	err = l.env.State().DecodeStorage(l.addr, symbolKey, func(raw []byte) error {
		symbol = string(raw)
		return nil
	})
	return
}

// TotalMinted returns the cumulative minted amount.
func (l *Ledger) TotalMinted() (*big.Int, error) {
	return l.env.State().GetBigInt(l.addr, totalMintedKey)
}

// TotalBurned returns the cumulative burned amount.
func (l *Ledger) TotalBurned() (*big.Int, error) {
	return l.env.State().GetBigInt(l.addr, totalBurnedKey)
}

// TotalSupply returns total minted minus total burned.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	minted, err := l.TotalMinted()
	if err != nil {
		return nil, err
	}
	burned, err := l.TotalBurned()
	if err != nil {
		return nil, err
	}
	return minted.Sub(minted, burned), nil
}

// BalanceOf returns the balance of an account.
func (l *Ledger) BalanceOf(addr aurum.Address) (*big.Int, error) {
	return l.env.State().GetBigInt(l.addr, accountKey(addr))
}

// Allowance returns the remaining amount spender may move out of owner.
func (l *Ledger) Allowance(owner, spender aurum.Address) (*big.Int, error) {
	return l.env.State().GetBigInt(l.addr, allowanceKey(owner, spender))
}

// Paused returns whether balance-moving operations are suspended.
func (l *Ledger) Paused() (bool, error) {
	return l.env.State().GetBool(l.addr, pausedKey)
}

// Denied returns whether an address is denylisted.
func (l *Ledger) Denied(addr aurum.Address) (bool, error) {
	return l.env.State().GetBool(l.addr, deniedKey(addr))
}

// Nonce returns the permit nonce of an owner.
func (l *Ledger) Nonce(owner aurum.Address) (uint64, error) {
	return l.env.State().GetUint64(l.addr, nonceKey(owner))
}

// checkMovable fails closed when the ledger is paused or any of the given
// parties is denylisted.
func (l *Ledger) checkMovable(parties ...aurum.Address) error {
	paused, err := l.Paused()
	if err != nil {
		return err
	}
	if paused {
		return errs.InvalidState("ledger is paused")
	}
	for _, p := range parties {
		denied, err := l.Denied(p)
		if err != nil {
			return err
		}
		if denied {
			return errs.InvalidState("address %v is denylisted", p)
		}
	}
	return nil
}

func (l *Ledger) addBalance(addr aurum.Address, amount *big.Int) error {
	bal, err := l.BalanceOf(addr)
	if err != nil {
		return err
	}
	return l.env.State().SetBigInt(l.addr, accountKey(addr), bal.Add(bal, amount))
}

func (l *Ledger) subBalance(addr aurum.Address, amount *big.Int) error {
	bal, err := l.BalanceOf(addr)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return errs.ExceedsLimit("insufficient balance: have %v, need %v", bal, amount)
	}
	return l.env.State().SetBigInt(l.addr, accountKey(addr), bal.Sub(bal, amount))
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errs.InvalidInput("amount must be positive")
	}
	return nil
}

// Mint credits newly created tokens to an account. Minter role required.
func (l *Ledger) Mint(to aurum.Address, amount *big.Int) error {
	if err := l.auth.CheckRole(aurum.RoleMinter); err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	if to.IsZero() {
		return errs.InvalidInput("mint to zero address")
	}
	if err := l.checkMovable(to); err != nil {
		return err
	}
	if err := l.addBalance(to, amount); err != nil {
		return err
	}
	minted, err := l.TotalMinted()
	if err != nil {
		return err
	}
	if err := l.env.State().SetBigInt(l.addr, totalMintedKey, minted.Add(minted, amount)); err != nil {
		return err
	}
	l.env.Emit(l.addr, "mint",
		runtime.Attr{Key: "to", Value: to.String()},
		runtime.Attr{Key: "amount", Value: amount.String()},
	)
	return nil
}

// Burn destroys tokens from the caller's balance.
func (l *Ledger) Burn(amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	caller := l.env.Caller()
	if err := l.checkMovable(caller); err != nil {
		return err
	}
	if err := l.subBalance(caller, amount); err != nil {
		return err
	}
	burned, err := l.TotalBurned()
	if err != nil {
		return err
	}
	if err := l.env.State().SetBigInt(l.addr, totalBurnedKey, burned.Add(burned, amount)); err != nil {
		return err
	}
	l.env.Emit(l.addr, "burn",
		runtime.Attr{Key: "from", Value: caller.String()},
		runtime.Attr{Key: "amount", Value: amount.String()},
	)
	return nil
}

// Transfer moves tokens from the caller to another account.
func (l *Ledger) Transfer(to aurum.Address, amount *big.Int) error {
	return l.Move(l.env.Caller(), to, amount)
}

// Move moves tokens between two accounts without an allowance check.
// Reserved for trusted engine code which either moves its own inventory or
// pulls an amount the caller explicitly submitted in the same call.
func (l *Ledger) Move(from, to aurum.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if to.IsZero() {
		return errs.InvalidInput("transfer to zero address")
	}
	if err := l.checkMovable(from, to); err != nil {
		return err
	}
	if err := l.subBalance(from, amount); err != nil {
		return err
	}
	if err := l.addBalance(to, amount); err != nil {
		return err
	}
	l.env.Emit(l.addr, "transfer",
		runtime.Attr{Key: "from", Value: from.String()},
		runtime.Attr{Key: "to", Value: to.String()},
		runtime.Attr{Key: "amount", Value: amount.String()},
	)
	return nil
}

// Approve grants spender the right to move up to amount out of the caller.
func (l *Ledger) Approve(spender aurum.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errs.InvalidInput("negative allowance")
	}
	if spender.IsZero() {
		return errs.InvalidInput("approve zero address")
	}
	caller := l.env.Caller()
	if err := l.env.State().SetBigInt(l.addr, allowanceKey(caller, spender), amount); err != nil {
		return err
	}
	l.env.Emit(l.addr, "approval",
		runtime.Attr{Key: "owner", Value: caller.String()},
		runtime.Attr{Key: "spender", Value: spender.String()},
		runtime.Attr{Key: "amount", Value: amount.String()},
	)
	return nil
}

// TransferFrom moves tokens on behalf of from, with the caller as spender.
func (l *Ledger) TransferFrom(from, to aurum.Address, amount *big.Int) error {
	if err := l.spendAllowance(from, l.env.Caller(), amount); err != nil {
		return err
	}
	return l.Move(from, to, amount)
}

// Pull moves tokens from an owner to a trusted engine address, consuming the
// allowance the owner granted that engine.
func (l *Ledger) Pull(from, to aurum.Address, amount *big.Int) error {
	if err := l.spendAllowance(from, to, amount); err != nil {
		return err
	}
	return l.Move(from, to, amount)
}

func (l *Ledger) spendAllowance(owner, spender aurum.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	allowed, err := l.Allowance(owner, spender)
	if err != nil {
		return err
	}
	if allowed.Cmp(amount) < 0 {
		return errs.ExceedsLimit("insufficient allowance: have %v, need %v", allowed, amount)
	}
	return l.env.State().SetBigInt(l.addr, allowanceKey(owner, spender), allowed.Sub(allowed, amount))
}

// Pause suspends all balance-moving operations. Pauser role required.
func (l *Ledger) Pause() error {
	if err := l.auth.CheckRole(aurum.RolePauser); err != nil {
		return err
	}
	paused, err := l.Paused()
	if err != nil {
		return err
	}
	if paused {
		return errs.InvalidState("already paused")
	}
	if err := l.env.State().SetBool(l.addr, pausedKey, true); err != nil {
		return err
	}
	l.env.Emit(l.addr, "admin_paused")
	return nil
}

// Unpause resumes balance-moving operations. Pauser role required.
func (l *Ledger) Unpause() error {
	if err := l.auth.CheckRole(aurum.RolePauser); err != nil {
		return err
	}
	paused, err := l.Paused()
	if err != nil {
		return err
	}
	if !paused {
		return errs.InvalidState("not paused")
	}
	if err := l.env.State().SetBool(l.addr, pausedKey, false); err != nil {
		return err
	}
	l.env.Emit(l.addr, "admin_unpaused")
	return nil
}

// SetDenied updates the denylist membership of an address. Master only.
func (l *Ledger) SetDenied(addr aurum.Address, denied bool) error {
	if err := l.auth.CheckMaster(); err != nil {
		return err
	}
	if addr.IsZero() {
		return errs.InvalidInput("zero address")
	}
	if err := l.env.State().SetBool(l.addr, deniedKey(addr), denied); err != nil {
		return err
	}
	l.env.Emit(l.addr, "admin_denied_set",
		runtime.Attr{Key: "address", Value: addr.String()},
		runtime.Attr{Key: "denied", Value: boolString(denied)},
	)
	return nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
