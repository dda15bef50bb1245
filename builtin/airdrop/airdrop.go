// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package airdrop implements multi-round one-shot Merkle claims. Each round
// carries its own root and its own claimed bitmap; rounds are append-only and
// historical rounds stay claimable until paused. The bitmap is packed 256
// claims per storage word so a round of any size costs bounded state.
package airdrop

import (
	"encoding/binary"
	"math/big"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin/authority"
	"github.com/aurum-network/aurum/builtin/errs"
	"github.com/aurum-network/aurum/builtin/ledger"
	"github.com/aurum-network/aurum/builtin/merkle"
	"github.com/aurum-network/aurum/runtime"
)

var (
	currentRoundKey = aurum.Blake2b([]byte("current-round"))
	pausedKey       = aurum.Blake2b([]byte("paused"))
)

// beUint64 encodes v as fixed 8 bytes so multi-field key inputs
// cannot alias each other.
func beUint64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func rootKey(round uint64) aurum.Bytes32 {
	return aurum.Blake2b([]byte("root"), beUint64(round))
}

// claimedWordKey addresses the bitmap word holding bits
// [word*256, word*256+255] of a round.
func claimedWordKey(round, word uint64) aurum.Bytes32 {
	return aurum.Blake2b([]byte("claimed"), beUint64(round), beUint64(word))
}

// Airdrop binds the claim engine to an execution environment.
type Airdrop struct {
	addr  aurum.Address
	env   *runtime.Env
	auth  *authority.Authority
	token *ledger.Ledger
}

// New creates an airdrop engine binding.
func New(addr aurum.Address, env *runtime.Env, auth *authority.Authority, token *ledger.Ledger) *Airdrop {
	return &Airdrop{addr, env, auth, token}
}

// Address returns the engine address.
func (a *Airdrop) Address() aurum.Address {
	return a.addr
}

// CurrentRound returns the highest configured round id. Zero means no root
// has ever been published.
func (a *Airdrop) CurrentRound() (uint64, error) {
	return a.env.State().GetUint64(a.addr, currentRoundKey)
}

// Root returns the published root of a round.
func (a *Airdrop) Root(round uint64) (aurum.Bytes32, error) {
	return a.env.State().GetBytes32(a.addr, rootKey(round))
}

// Paused reports whether claiming is suspended.
func (a *Airdrop) Paused() (bool, error) {
	return a.env.State().GetBool(a.addr, pausedKey)
}

// SetRoot publishes root for the current round, or opens a new round when
// advance is set (or when no round exists yet). Master only.
func (a *Airdrop) SetRoot(root aurum.Bytes32, advance bool) (uint64, error) {
	if err := a.auth.CheckMaster(); err != nil {
		return 0, err
	}
	if root.IsZero() {
		return 0, errs.InvalidInput("zero root")
	}
	st := a.env.State()
	round, err := a.CurrentRound()
	if err != nil {
		return 0, err
	}
	if advance || round == 0 {
		round++
		if err := st.SetUint64(a.addr, currentRoundKey, round); err != nil {
			return 0, err
		}
	}
	if err := st.SetBytes32(a.addr, rootKey(round), root); err != nil {
		return 0, err
	}
	a.env.Emit(a.addr, "admin_root_set",
		runtime.Attr{Key: "round", Value: uintString(round)},
		runtime.Attr{Key: "root", Value: root.String()},
	)
	return round, nil
}

// Pause suspends claiming. Requires the pauser role. Claim history is kept.
func (a *Airdrop) Pause() error {
	return a.setPaused(true)
}

// Unpause resumes claiming. Requires the pauser role.
func (a *Airdrop) Unpause() error {
	return a.setPaused(false)
}

func (a *Airdrop) setPaused(paused bool) error {
	if err := a.auth.CheckRole(aurum.RolePauser); err != nil {
		return err
	}
	cur, err := a.Paused()
	if err != nil {
		return err
	}
	if cur == paused {
		return errs.InvalidState("already in requested pause state")
	}
	if err := a.env.State().SetBool(a.addr, pausedKey, paused); err != nil {
		return err
	}
	name := "admin_paused"
	if !paused {
		name = "admin_unpaused"
	}
	a.env.Emit(a.addr, name)
	return nil
}

// IsClaimed reports whether the (round, index) bit is set.
func (a *Airdrop) IsClaimed(round, index uint64) (bool, error) {
	word, err := a.env.State().GetBytes32(a.addr, claimedWordKey(round, index/256))
	if err != nil {
		return false, err
	}
	return new(big.Int).SetBytes(word.Bytes()).Bit(int(index%256)) == 1, nil
}

func (a *Airdrop) setClaimed(round, index uint64) error {
	st := a.env.State()
	key := claimedWordKey(round, index/256)
	word, err := st.GetBytes32(a.addr, key)
	if err != nil {
		return err
	}
	bits := new(big.Int).SetBytes(word.Bytes())
	bits.SetBit(bits, int(index%256), 1)
	return st.SetBytes32(a.addr, key, aurum.BytesToBytes32(bits.Bytes()))
}

// Claim claims the (index, account, amount) entry of the current round.
// Anyone may submit the claim; the tokens always go to account.
func (a *Airdrop) Claim(index uint64, account aurum.Address, amount *big.Int, proof []aurum.Bytes32) error {
	round, err := a.CurrentRound()
	if err != nil {
		return err
	}
	return a.ClaimFromRound(round, index, account, amount, proof)
}

// ClaimFromRound is Claim against an explicit, possibly historical, round.
func (a *Airdrop) ClaimFromRound(round, index uint64, account aurum.Address, amount *big.Int, proof []aurum.Bytes32) error {
	paused, err := a.Paused()
	if err != nil {
		return err
	}
	if paused {
		return errs.InvalidState("airdrop is paused")
	}
	if amount == nil || amount.Sign() <= 0 {
		return errs.InvalidInput("amount must be positive")
	}
	root, err := a.Root(round)
	if err != nil {
		return err
	}
	if root.IsZero() {
		return errs.InvalidState("round %d has no root", round)
	}

	claimed, err := a.IsClaimed(round, index)
	if err != nil {
		return err
	}
	if claimed {
		return errs.AlreadyClaimed("round %d index %d already claimed", round, index)
	}
	if !merkle.Verify(root, merkle.Leaf(index, account, amount), proof) {
		return errs.InvalidProof("claim proof rejected for round %d index %d", round, index)
	}

	balance, err := a.token.BalanceOf(a.addr)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return errs.Exhausted("airdrop pool balance %v below claim %v", balance, amount)
	}

	// bit first, transfer last
	if err := a.setClaimed(round, index); err != nil {
		return err
	}
	if err := a.token.Move(a.addr, account, amount); err != nil {
		return err
	}

	a.env.Emit(a.addr, "claimed",
		runtime.Attr{Key: "round", Value: uintString(round)},
		runtime.Attr{Key: "index", Value: uintString(index)},
		runtime.Attr{Key: "account", Value: account.String()},
		runtime.Attr{Key: "amount", Value: amount.String()},
	)
	return nil
}

// Fund moves claimable inventory from the caller into the engine escrow.
// Requires the funder role.
func (a *Airdrop) Fund(amount *big.Int) error {
	if err := a.auth.CheckRole(aurum.RoleFunder); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return errs.InvalidInput("amount must be positive")
	}
	if err := a.token.Move(a.env.Caller(), a.addr, amount); err != nil {
		return err
	}
	a.env.Emit(a.addr, "admin_funded",
		runtime.Attr{Key: "amount", Value: amount.String()},
	)
	return nil
}

func uintString(v uint64) string {
	return new(big.Int).SetUint64(v).String()
}
