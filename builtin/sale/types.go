// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sale

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
)

// Tier is one price/quantity bracket, consumed in order.
// Price is quote units per whole base token, scaled by 10^18.
type Tier struct {
	Price     *big.Int
	Remaining *big.Int
}

// tierList is the stored form of the ordered tier configuration.
type tierList []*Tier

func (l *tierList) Encode() ([]byte, error) {
	if len(*l) == 0 {
		return nil, nil
	}
	return rlp.EncodeToBytes(l)
}

func (l *tierList) Decode(data []byte) error {
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return rlp.DecodeBytes(data, l)
}

// Status is the sale phase, derived from the configured window.
type Status string

const (
	// StatusUnconfigured no window set.
	StatusUnconfigured Status = "unconfigured"
	// StatusNotStarted window set, start not reached.
	StatusNotStarted Status = "not_started"
	// StatusActive start <= now < end.
	StatusActive Status = "active"
	// StatusEnded now >= end.
	StatusEnded Status = "ended"
)

// Fill is the portion of a purchase filled by one tier.
type Fill struct {
	Tier       int
	Price      *big.Int
	QuoteSpent *big.Int
	TokensOut  *big.Int
}
