// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin/errs"
	"github.com/aurum-network/aurum/runtime"
)

// permitPrefix domain-separates permit digests from any other signed payload.
var permitPrefix = []byte("\x19aurum permit:\n")

// PermitMessage is the structured message signed by an owner to grant an
// allowance without submitting the call itself.
type PermitMessage struct {
	Ledger   aurum.Address
	Owner    aurum.Address
	Spender  aurum.Address
	Value    *big.Int
	Nonce    uint64
	Deadline uint64
}

// SigningHash returns the digest the owner signs.
func (m *PermitMessage) SigningHash() (aurum.Bytes32, error) {
	encoded, err := rlp.EncodeToBytes(m)
	if err != nil {
		return aurum.Bytes32{}, err
	}
	return aurum.Keccak256(permitPrefix, encoded), nil
}

// Sign signs the permit message with the given private key.
func (m *PermitMessage) Sign(pk *ecdsa.PrivateKey) ([]byte, error) {
	hash, err := m.SigningHash()
	if err != nil {
		return nil, err
	}
	return crypto.Sign(hash.Bytes(), pk)
}

// Permit applies a signed allowance grant.
// The message must target this ledger, carry the owner's current nonce and an
// unexpired deadline, and be signed by the owner. A consumed nonce can never
// be replayed: each successful permit increments it.
func (l *Ledger) Permit(msg *PermitMessage, sig []byte) error {
	if msg == nil || msg.Value == nil || msg.Value.Sign() < 0 {
		return errs.InvalidInput("malformed permit message")
	}
	if msg.Ledger != l.addr {
		return errs.InvalidInput("permit targets ledger %v, not %v", msg.Ledger, l.addr)
	}
	if msg.Owner.IsZero() || msg.Spender.IsZero() {
		return errs.InvalidInput("zero owner or spender")
	}
	if l.env.Now() > msg.Deadline {
		return errs.InvalidState("permit expired at %d", msg.Deadline)
	}
	nonce, err := l.Nonce(msg.Owner)
	if err != nil {
		return err
	}
	if msg.Nonce != nonce {
		return errs.InvalidState("permit nonce %d, expected %d", msg.Nonce, nonce)
	}

	hash, err := msg.SigningHash()
	if err != nil {
		return err
	}
	if len(sig) != 65 {
		return errs.InvalidInput("signature must be 65 bytes")
	}
	pub, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return errs.InvalidInput("unrecoverable signature: %v", err)
	}
	if aurum.PubkeyToAddress(pub) != msg.Owner {
		return errs.Unauthorized("signature does not match owner %v", msg.Owner)
	}

	st := l.env.State()
	if err := st.SetUint64(l.addr, nonceKey(msg.Owner), nonce+1); err != nil {
		return err
	}
	if err := st.SetBigInt(l.addr, allowanceKey(msg.Owner, msg.Spender), msg.Value); err != nil {
		return err
	}
	l.env.Emit(l.addr, "permit",
		runtime.Attr{Key: "owner", Value: msg.Owner.String()},
		runtime.Attr{Key: "spender", Value: msg.Spender.String()},
		runtime.Attr{Key: "amount", Value: msg.Value.String()},
	)
	return nil
}
