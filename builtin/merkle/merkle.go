// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package merkle implements the eligibility verification primitive shared by
// the sale, airdrop and allowlist engines: proving that "(index, account,
// amount) is in a published set" against a 32-byte root commitment.
package merkle

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/aurum-network/aurum/aurum"
)

// Leaf computes the leaf commitment of one eligible entry.
// The digest is hashed twice so a leaf can never be confused with an
// interior branch value (second-preimage hardening).
func Leaf(index uint64, account aurum.Address, amount *big.Int) aurum.Bytes32 {
	encoded, _ := rlp.EncodeToBytes([]any{index, account, amount})
	inner := aurum.Keccak256(encoded)
	return aurum.Keccak256(inner.Bytes())
}

// AccountLeaf computes the leaf commitment of an index-less (account, amount)
// entry, as published for sale whitelists and allowlist allocations.
func AccountLeaf(account aurum.Address, amount *big.Int) aurum.Bytes32 {
	encoded, _ := rlp.EncodeToBytes([]any{account, amount})
	inner := aurum.Keccak256(encoded)
	return aurum.Keccak256(inner.Bytes())
}

// combine hashes an ordered pair, sorting first so proof generation does not
// need to track left/right position.
func combine(a, b aurum.Bytes32) aurum.Bytes32 {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return aurum.Keccak256(a.Bytes(), b.Bytes())
}

// Verify recomputes the root by folding leaf with each proof sibling and
// compares it to root. A pure function; an empty proof means the tree holds
// a single leaf, whose root is the leaf itself.
func Verify(root, leaf aurum.Bytes32, proof []aurum.Bytes32) bool {
	if root.IsZero() {
		return false
	}
	computed := leaf
	for _, sibling := range proof {
		computed = combine(computed, sibling)
	}
	return computed == root
}

// Tree is an in-memory Merkle tree, used to publish roots and produce proofs
// in tests and operational tooling. The on-chain side only ever needs Verify.
type Tree struct {
	levels [][]aurum.Bytes32 // levels[0] = leaves
}

// NewTree builds a tree over the given leaves.
func NewTree(leaves []aurum.Bytes32) *Tree {
	if len(leaves) == 0 {
		return &Tree{}
	}
	levels := [][]aurum.Bytes32{append([]aurum.Bytes32(nil), leaves...)}
	for len(levels[len(levels)-1]) > 1 {
		cur := levels[len(levels)-1]
		next := make([]aurum.Bytes32, 0, (len(cur)+1)/2)
		for i := 0; i < len(cur); i += 2 {
			if i+1 < len(cur) {
				next = append(next, combine(cur[i], cur[i+1]))
			} else {
				// odd node is promoted unchanged
				next = append(next, cur[i])
			}
		}
		levels = append(levels, next)
	}
	return &Tree{levels}
}

// Root returns the root commitment. Zero for an empty tree.
func (t *Tree) Root() aurum.Bytes32 {
	if len(t.levels) == 0 {
		return aurum.Bytes32{}
	}
	return t.levels[len(t.levels)-1][0]
}

// Proof returns the sibling path of the leaf at the given index.
func (t *Tree) Proof(index int) []aurum.Bytes32 {
	if len(t.levels) == 0 || index < 0 || index >= len(t.levels[0]) {
		return nil
	}
	var proof []aurum.Bytes32
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		index >>= 1
	}
	return proof
}
