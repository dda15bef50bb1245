// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package sale implements the time-windowed, tier-priced purchase flow.
// The engine escrows the base-token inventory at its own address, pulls the
// quote currency via allowance, and walks the tier ladder on each purchase:
// a purchase crossing an exhausted tier boundary charges each portion at its
// own tier's price, and fails entirely if it cannot be fully filled.
package sale

import (
	"math/big"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin/authority"
	"github.com/aurum-network/aurum/builtin/errs"
	"github.com/aurum-network/aurum/builtin/ledger"
	"github.com/aurum-network/aurum/builtin/merkle"
	"github.com/aurum-network/aurum/runtime"
)

var (
	tiersKey         = aurum.Blake2b([]byte("tiers"))
	windowStartKey   = aurum.Blake2b([]byte("window-start"))
	windowEndKey     = aurum.Blake2b([]byte("window-end"))
	minContribKey    = aurum.Blake2b([]byte("min-contribution"))
	maxContribKey    = aurum.Blake2b([]byte("max-contribution"))
	whitelistRootKey = aurum.Blake2b([]byte("whitelist-root"))
	treasuryKey      = aurum.Blake2b([]byte("treasury"))
)

func contributionKey(addr aurum.Address) aurum.Bytes32 {
	return aurum.Blake2b([]byte("c"), addr.Bytes())
}

// Sale binds the tiered sale engine to an execution environment.
type Sale struct {
	addr       aurum.Address
	env        *runtime.Env
	auth       *authority.Authority
	baseToken  *ledger.Ledger
	quoteToken *ledger.Ledger
}

// New creates a sale engine binding.
func New(addr aurum.Address, env *runtime.Env, auth *authority.Authority, baseToken, quoteToken *ledger.Ledger) *Sale {
	return &Sale{addr, env, auth, baseToken, quoteToken}
}

// Address returns the engine address.
func (s *Sale) Address() aurum.Address {
	return s.addr
}

// Tiers returns the ordered tier configuration.
func (s *Sale) Tiers() ([]*Tier, error) {
	var tiers tierList
	if err := s.env.State().GetStructuredStorage(s.addr, tiersKey, &tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}

// Window returns the sale window. Both zero means unconfigured.
func (s *Sale) Window() (start, end uint64, err error) {
	st := s.env.State()
	if start, err = st.GetUint64(s.addr, windowStartKey); err != nil {
		return
	}
	end, err = st.GetUint64(s.addr, windowEndKey)
	return
}

// ContributionBounds returns the global (min, max) cumulative contribution
// bounds. A zero max means uncapped.
func (s *Sale) ContributionBounds() (minContrib, maxContrib *big.Int, err error) {
	st := s.env.State()
	if minContrib, err = st.GetBigInt(s.addr, minContribKey); err != nil {
		return
	}
	maxContrib, err = st.GetBigInt(s.addr, maxContribKey)
	return
}

// WhitelistRoot returns the whitelist commitment. Zero means the whitelist
// gate is disabled.
func (s *Sale) WhitelistRoot() (aurum.Bytes32, error) {
	return s.env.State().GetBytes32(s.addr, whitelistRootKey)
}

// Treasury returns the address sales proceeds are swept to.
func (s *Sale) Treasury() (aurum.Address, error) {
	return s.env.State().GetAddress(s.addr, treasuryKey)
}

// ContributionOf returns the cumulative quote contribution of an account.
func (s *Sale) ContributionOf(addr aurum.Address) (*big.Int, error) {
	return s.env.State().GetBigInt(s.addr, contributionKey(addr))
}

// Status derives the sale phase from the window and the time snapshot.
func (s *Sale) Status() (Status, error) {
	start, end, err := s.Window()
	if err != nil {
		return StatusUnconfigured, err
	}
	if start == 0 && end == 0 {
		return StatusUnconfigured, nil
	}
	now := s.env.Now()
	switch {
	case now < start:
		return StatusNotStarted, nil
	case now < end:
		return StatusActive, nil
	default:
		return StatusEnded, nil
	}
}

// started reports whether the configured window has opened; configuration is
// frozen from that point on to rule out retroactive price changes.
func (s *Sale) started() (bool, error) {
	start, _, err := s.Window()
	if err != nil {
		return false, err
	}
	return start != 0 && s.env.Now() >= start, nil
}

func (s *Sale) checkConfigurable() error {
	if err := s.auth.CheckMaster(); err != nil {
		return err
	}
	started, err := s.started()
	if err != nil {
		return err
	}
	if started {
		return errs.InvalidState("sale already started")
	}
	return nil
}

// ConfigureTiers replaces the tier ladder. Master only, before sale start.
func (s *Sale) ConfigureTiers(tiers []*Tier) error {
	if err := s.checkConfigurable(); err != nil {
		return err
	}
	if len(tiers) == 0 {
		return errs.InvalidInput("empty tier list")
	}
	for i, t := range tiers {
		if t == nil || t.Price == nil || t.Price.Sign() <= 0 {
			return errs.InvalidInput("tier %d: price must be positive", i)
		}
		if t.Remaining == nil || t.Remaining.Sign() <= 0 {
			return errs.InvalidInput("tier %d: supply must be positive", i)
		}
	}
	list := tierList(tiers)
	if err := s.env.State().SetStructuredStorage(s.addr, tiersKey, &list); err != nil {
		return err
	}
	s.env.Emit(s.addr, "admin_tiers_configured",
		runtime.Attr{Key: "count", Value: big.NewInt(int64(len(tiers))).String()},
	)
	return nil
}

// SetWindow configures the sale window. Master only, before sale start.
func (s *Sale) SetWindow(start, end uint64) error {
	if err := s.checkConfigurable(); err != nil {
		return err
	}
	if start == 0 || end <= start {
		return errs.InvalidInput("invalid window [%d, %d)", start, end)
	}
	st := s.env.State()
	if err := st.SetUint64(s.addr, windowStartKey, start); err != nil {
		return err
	}
	if err := st.SetUint64(s.addr, windowEndKey, end); err != nil {
		return err
	}
	s.env.Emit(s.addr, "admin_window_set",
		runtime.Attr{Key: "start", Value: uintString(start)},
		runtime.Attr{Key: "end", Value: uintString(end)},
	)
	return nil
}

// SetContributionBounds configures the global cumulative contribution
// bounds. Master only, before sale start. A zero max means unbounded.
func (s *Sale) SetContributionBounds(minContrib, maxContrib *big.Int) error {
	if err := s.checkConfigurable(); err != nil {
		return err
	}
	if minContrib == nil || maxContrib == nil || minContrib.Sign() < 0 || maxContrib.Sign() < 0 {
		return errs.InvalidInput("negative contribution bound")
	}
	if maxContrib.Sign() > 0 && minContrib.Cmp(maxContrib) > 0 {
		return errs.InvalidInput("min bound exceeds max")
	}
	st := s.env.State()
	if err := st.SetBigInt(s.addr, minContribKey, minContrib); err != nil {
		return err
	}
	if err := st.SetBigInt(s.addr, maxContribKey, maxContrib); err != nil {
		return err
	}
	s.env.Emit(s.addr, "admin_contribution_bounds_set",
		runtime.Attr{Key: "min", Value: minContrib.String()},
		runtime.Attr{Key: "max", Value: maxContrib.String()},
	)
	return nil
}

// SetWhitelistRoot publishes the whitelist commitment. Zero disables the
// gate. Master only, before sale start.
func (s *Sale) SetWhitelistRoot(root aurum.Bytes32) error {
	if err := s.checkConfigurable(); err != nil {
		return err
	}
	if err := s.env.State().SetBytes32(s.addr, whitelistRootKey, root); err != nil {
		return err
	}
	s.env.Emit(s.addr, "admin_whitelist_root_set",
		runtime.Attr{Key: "root", Value: root.String()},
	)
	return nil
}

// SetTreasury sets the sweep destination. Master only.
func (s *Sale) SetTreasury(treasury aurum.Address) error {
	if err := s.auth.CheckMaster(); err != nil {
		return err
	}
	if treasury.IsZero() {
		return errs.InvalidInput("zero treasury address")
	}
	if err := s.env.State().SetAddress(s.addr, treasuryKey, treasury); err != nil {
		return err
	}
	s.env.Emit(s.addr, "admin_treasury_set",
		runtime.Attr{Key: "treasury", Value: treasury.String()},
	)
	return nil
}

// Purchase buys base tokens with quoteAmount of the quote currency, walking
// the tier ladder from the current tier. The whole amount is spent or the
// call fails; no partial fill is ever kept. When the whitelist gate is
// enabled the caller proves (caller, allocationCap) membership and the
// post-purchase cumulative contribution must stay within the cap.
// Returns the per-tier fills.
func (s *Sale) Purchase(quoteAmount *big.Int, allocationCap *big.Int, proof []aurum.Bytes32) ([]*Fill, error) {
	if quoteAmount == nil || quoteAmount.Sign() <= 0 {
		return nil, errs.InvalidInput("quote amount must be positive")
	}
	caller := s.env.Caller()

	// paused/denylist would surface on the token pulls anyway; checked
	// upfront so the failure kind is unambiguous
	for _, l := range []*ledger.Ledger{s.baseToken, s.quoteToken} {
		paused, err := l.Paused()
		if err != nil {
			return nil, err
		}
		if paused {
			return nil, errs.InvalidState("ledger is paused")
		}
		denied, err := l.Denied(caller)
		if err != nil {
			return nil, err
		}
		if denied {
			return nil, errs.InvalidState("address %v is denylisted", caller)
		}
	}

	status, err := s.Status()
	if err != nil {
		return nil, err
	}
	switch status {
	case StatusActive:
	case StatusNotStarted:
		return nil, errs.InvalidState("sale not started")
	case StatusEnded:
		return nil, errs.InvalidState("sale ended")
	default:
		return nil, errs.InvalidState("sale not configured")
	}

	contributed, err := s.ContributionOf(caller)
	if err != nil {
		return nil, err
	}
	newContribution := new(big.Int).Add(contributed, quoteAmount)

	root, err := s.WhitelistRoot()
	if err != nil {
		return nil, err
	}
	if !root.IsZero() {
		if allocationCap == nil || allocationCap.Sign() <= 0 {
			return nil, errs.InvalidInput("allocation cap required for whitelisted sale")
		}
		if !merkle.Verify(root, merkle.AccountLeaf(caller, allocationCap), proof) {
			return nil, errs.InvalidProof("whitelist proof rejected for %v", caller)
		}
		if newContribution.Cmp(allocationCap) > 0 {
			return nil, errs.ExceedsLimit("contribution %v exceeds whitelist cap %v", newContribution, allocationCap)
		}
	}

	minContrib, maxContrib, err := s.ContributionBounds()
	if err != nil {
		return nil, err
	}
	if newContribution.Cmp(minContrib) < 0 {
		return nil, errs.ExceedsLimit("contribution %v below minimum %v", newContribution, minContrib)
	}
	if maxContrib.Sign() > 0 && newContribution.Cmp(maxContrib) > 0 {
		return nil, errs.ExceedsLimit("contribution %v above maximum %v", newContribution, maxContrib)
	}

	tiers, err := s.Tiers()
	if err != nil {
		return nil, err
	}
	fills, totalTokens, err := fillTiers(tiers, quoteAmount)
	if err != nil {
		return nil, err
	}

	// all bookkeeping precedes the token movements
	list := tierList(tiers)
	st := s.env.State()
	if err := st.SetStructuredStorage(s.addr, tiersKey, &list); err != nil {
		return nil, err
	}
	if err := st.SetBigInt(s.addr, contributionKey(caller), newContribution); err != nil {
		return nil, err
	}
	if err := s.quoteToken.Pull(caller, s.addr, quoteAmount); err != nil {
		return nil, err
	}
	if err := s.baseToken.Move(s.addr, caller, totalTokens); err != nil {
		return nil, err
	}

	for _, fill := range fills {
		s.env.Emit(s.addr, "purchased",
			runtime.Attr{Key: "buyer", Value: caller.String()},
			runtime.Attr{Key: "tier", Value: big.NewInt(int64(fill.Tier)).String()},
			runtime.Attr{Key: "price", Value: fill.Price.String()},
			runtime.Attr{Key: "quote", Value: fill.QuoteSpent.String()},
			runtime.Attr{Key: "tokens", Value: fill.TokensOut.String()},
		)
	}
	return fills, nil
}

// fillTiers walks the ladder, mutating tiers in place, and returns the
// per-tier fills. The whole quoteAmount is spent or an error is returned.
func fillTiers(tiers []*Tier, quoteAmount *big.Int) ([]*Fill, *big.Int, error) {
	var (
		fills       []*Fill
		totalTokens = new(big.Int)
		left        = new(big.Int).Set(quoteAmount)
	)
	for i, tier := range tiers {
		if left.Sign() == 0 {
			break
		}
		if tier.Remaining.Sign() == 0 {
			continue
		}

		// quote needed to clear the whole tier, rounded up
		tierCost := new(big.Int).Mul(tier.Remaining, tier.Price)
		tierCost = ceilDiv(tierCost, aurum.DecimalScale)

		var fill *Fill
		if left.Cmp(tierCost) >= 0 {
			// clear the tier, roll the remainder into the next one
			fill = &Fill{
				Tier:       i,
				Price:      tier.Price,
				QuoteSpent: tierCost,
				TokensOut:  tier.Remaining,
			}
			tier.Remaining = new(big.Int)
			left.Sub(left, tierCost)
		} else {
			tokens := new(big.Int).Mul(left, aurum.DecimalScale)
			tokens.Div(tokens, tier.Price)
			if tokens.Sign() == 0 {
				return nil, nil, errs.InvalidInput("quote remainder %v buys nothing at tier %d", left, i)
			}
			fill = &Fill{
				Tier:       i,
				Price:      tier.Price,
				QuoteSpent: new(big.Int).Set(left),
				TokensOut:  tokens,
			}
			tier.Remaining = new(big.Int).Sub(tier.Remaining, tokens)
			left.SetInt64(0)
		}
		totalTokens.Add(totalTokens, fill.TokensOut)
		fills = append(fills, fill)
	}
	if left.Sign() > 0 {
		return nil, nil, errs.Exhausted("tiers exhausted with %v quote unspent", left)
	}
	return fills, totalTokens, nil
}

func ceilDiv(a, b *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// Withdraw sweeps the accumulated quote currency to the treasury. Master
// only. Unsold base-token inventory stays untouched.
func (s *Sale) Withdraw() (*big.Int, error) {
	if err := s.auth.CheckMaster(); err != nil {
		return nil, err
	}
	treasury, err := s.Treasury()
	if err != nil {
		return nil, err
	}
	if treasury.IsZero() {
		return nil, errs.InvalidState("treasury not configured")
	}
	balance, err := s.quoteToken.BalanceOf(s.addr)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return nil, errs.InvalidState("nothing to withdraw")
	}
	if err := s.quoteToken.Move(s.addr, treasury, balance); err != nil {
		return nil, err
	}
	s.env.Emit(s.addr, "admin_withdrawn",
		runtime.Attr{Key: "treasury", Value: treasury.String()},
		runtime.Attr{Key: "amount", Value: balance.String()},
	)
	return balance, nil
}

func uintString(v uint64) string {
	return new(big.Int).SetUint64(v).String()
}
