// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/aurum-network/aurum/aurum"
)

// DevMaster is the well-known development master account.
var DevMaster = aurum.BytesToAddress([]byte("dev-master"))

// DevConfig returns a development genesis: the dev master holds all roles
// and a large balance of both tokens. No sale is configured.
func DevConfig() *Config {
	million := new(big.Int).Mul(big.NewInt(1_000_000), aurum.DecimalScale)
	amount := math.HexOrDecimal256(*million)
	return &Config{
		Master: DevMaster,
		BaseToken: TokenConfig{
			Name:   "Aurum",
			Symbol: "AUR",
			Mints:  []Mint{{To: DevMaster, Amount: &amount}},
		},
		QuoteToken: TokenConfig{
			Name:   "Aurum Quote",
			Symbol: "AURQ",
			Mints:  []Mint{{To: DevMaster, Amount: &amount}},
		},
	}
}
