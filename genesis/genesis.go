// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis builds the initial world state from a declarative config:
// master, token metadata, initial mints, role grants and the sale setup.
// Applying the same config to an empty state always yields the same state.
package genesis

import (
	"encoding/json"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin"
	"github.com/aurum-network/aurum/builtin/sale"
	"github.com/aurum-network/aurum/runtime"
)

// Mint is one initial balance allocation.
type Mint struct {
	To     aurum.Address         `json:"to"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// TokenConfig is the metadata and initial allocation of one ledger token.
type TokenConfig struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Mints  []Mint `json:"mints"`
}

// RoleGrant assigns a named role to an address.
// Role is one of "minter", "pauser", "funder", "consumer".
type RoleGrant struct {
	Role    string        `json:"role"`
	Address aurum.Address `json:"address"`
}

// TierConfig is one sale price bracket.
type TierConfig struct {
	Price  *math.HexOrDecimal256 `json:"price"`
	Supply *math.HexOrDecimal256 `json:"supply"`
}

// SaleConfig is the optional initial sale setup. Inventory is minted
// directly to the sale engine escrow.
type SaleConfig struct {
	Tiers           []TierConfig          `json:"tiers"`
	WindowStart     uint64                `json:"windowStart"`
	WindowEnd       uint64                `json:"windowEnd"`
	MinContribution *math.HexOrDecimal256 `json:"minContribution,omitempty"`
	MaxContribution *math.HexOrDecimal256 `json:"maxContribution,omitempty"`
	WhitelistRoot   *aurum.Bytes32        `json:"whitelistRoot,omitempty"`
	Treasury        aurum.Address         `json:"treasury"`
	Inventory       *math.HexOrDecimal256 `json:"inventory"`
}

// Config is the user supplied genesis description.
type Config struct {
	Master     aurum.Address `json:"master"`
	BaseToken  TokenConfig   `json:"baseToken"`
	QuoteToken TokenConfig   `json:"quoteToken"`
	Roles      []RoleGrant   `json:"roles"`
	Sale       *SaleConfig   `json:"sale,omitempty"`
}

// LoadConfig reads a genesis config from a JSON file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis config")
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse genesis config")
	}
	return &cfg, nil
}

var roleIDs = map[string]aurum.Bytes32{
	"minter":   aurum.RoleMinter,
	"pauser":   aurum.RolePauser,
	"funder":   aurum.RoleFunder,
	"consumer": aurum.RoleConsumer,
}

func bigOrNil(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return nil
	}
	return (*big.Int)(v)
}

// Build applies cfg to an empty state through the runtime, acting as the
// configured master. The call is atomic; a malformed config leaves the state
// empty.
func Build(rt *runtime.Runtime, cfg *Config) error {
	if cfg.Master.IsZero() {
		return errors.New("genesis: master must be set")
	}
	return rt.Call(cfg.Master, func(env *runtime.Env) error {
		engines := builtin.Bind(env)

		if err := engines.Authority.InitMaster(cfg.Master); err != nil {
			return err
		}
		if err := engines.BaseToken.Init(cfg.BaseToken.Name, cfg.BaseToken.Symbol); err != nil {
			return err
		}
		if err := engines.QuoteToken.Init(cfg.QuoteToken.Name, cfg.QuoteToken.Symbol); err != nil {
			return err
		}

		for _, m := range cfg.BaseToken.Mints {
			if err := engines.BaseToken.Mint(m.To, bigOrNil(m.Amount)); err != nil {
				return err
			}
		}
		for _, m := range cfg.QuoteToken.Mints {
			if err := engines.QuoteToken.Mint(m.To, bigOrNil(m.Amount)); err != nil {
				return err
			}
		}

		for _, g := range cfg.Roles {
			role, ok := roleIDs[g.Role]
			if !ok {
				return errors.Errorf("genesis: unknown role %q", g.Role)
			}
			if err := engines.Authority.Grant(role, g.Address); err != nil {
				return err
			}
		}

		if cfg.Sale != nil {
			if err := buildSale(engines, cfg.Sale); err != nil {
				return err
			}
		}
		return nil
	})
}

func buildSale(engines *builtin.Engines, cfg *SaleConfig) error {
	tiers := make([]*sale.Tier, 0, len(cfg.Tiers))
	for _, t := range cfg.Tiers {
		tiers = append(tiers, &sale.Tier{
			Price:     bigOrNil(t.Price),
			Remaining: bigOrNil(t.Supply),
		})
	}
	if err := engines.Sale.ConfigureTiers(tiers); err != nil {
		return err
	}
	if err := engines.Sale.SetWindow(cfg.WindowStart, cfg.WindowEnd); err != nil {
		return err
	}
	if cfg.MinContribution != nil || cfg.MaxContribution != nil {
		minContrib, maxContrib := bigOrNil(cfg.MinContribution), bigOrNil(cfg.MaxContribution)
		if minContrib == nil {
			minContrib = &big.Int{}
		}
		if maxContrib == nil {
			maxContrib = &big.Int{}
		}
		if err := engines.Sale.SetContributionBounds(minContrib, maxContrib); err != nil {
			return err
		}
	}
	if cfg.WhitelistRoot != nil {
		if err := engines.Sale.SetWhitelistRoot(*cfg.WhitelistRoot); err != nil {
			return err
		}
	}
	if err := engines.Sale.SetTreasury(cfg.Treasury); err != nil {
		return err
	}
	// sale inventory is minted straight into the engine escrow
	if inventory := bigOrNil(cfg.Inventory); inventory != nil && inventory.Sign() > 0 {
		if err := engines.BaseToken.Mint(engines.Sale.Address(), inventory); err != nil {
			return err
		}
	}
	return nil
}
