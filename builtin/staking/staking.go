// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking implements continuous stake-weighted reward accrual over a
// per-token reward accumulator. Each staker's share is settled lazily on
// every interaction, so no operation ever iterates all stakers.
package staking

import (
	"math/big"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin/authority"
	"github.com/aurum-network/aurum/builtin/errs"
	"github.com/aurum-network/aurum/builtin/ledger"
	"github.com/aurum-network/aurum/runtime"
)

var (
	totalStakedKey          = aurum.Blake2b([]byte("total-staked"))
	rewardRateKey           = aurum.Blake2b([]byte("reward-rate"))
	rewardPerTokenStoredKey = aurum.Blake2b([]byte("reward-per-token-stored"))
	lastUpdateTimeKey       = aurum.Blake2b([]byte("last-update-time"))
	periodFinishKey         = aurum.Blake2b([]byte("period-finish"))
	rewardsDurationKey      = aurum.Blake2b([]byte("rewards-duration"))
)

func stakedKey(addr aurum.Address) aurum.Bytes32 {
	return aurum.Blake2b([]byte("s"), addr.Bytes())
}

func paidKey(addr aurum.Address) aurum.Bytes32 {
	return aurum.Blake2b([]byte("p"), addr.Bytes())
}

func owedKey(addr aurum.Address) aurum.Bytes32 {
	return aurum.Blake2b([]byte("o"), addr.Bytes())
}

// Staking binds the staking reward engine to an execution environment.
type Staking struct {
	addr        aurum.Address
	env         *runtime.Env
	auth        *authority.Authority
	stakeToken  *ledger.Ledger
	rewardToken *ledger.Ledger
}

// New creates a staking engine binding.
func New(addr aurum.Address, env *runtime.Env, auth *authority.Authority, stakeToken, rewardToken *ledger.Ledger) *Staking {
	return &Staking{addr, env, auth, stakeToken, rewardToken}
}

// Address returns the engine address.
func (s *Staking) Address() aurum.Address {
	return s.addr
}

// TotalStaked returns the total staked amount.
func (s *Staking) TotalStaked() (*big.Int, error) {
	return s.env.State().GetBigInt(s.addr, totalStakedKey)
}

// StakedOf returns the staked amount of an account.
func (s *Staking) StakedOf(addr aurum.Address) (*big.Int, error) {
	return s.env.State().GetBigInt(s.addr, stakedKey(addr))
}

// RewardRate returns reward units distributed per second.
func (s *Staking) RewardRate() (*big.Int, error) {
	return s.env.State().GetBigInt(s.addr, rewardRateKey)
}

// PeriodFinish returns the end of the current reward period.
func (s *Staking) PeriodFinish() (uint64, error) {
	return s.env.State().GetUint64(s.addr, periodFinishKey)
}

// RewardsDuration returns the configured reward period length.
func (s *Staking) RewardsDuration() (uint64, error) {
	d, err := s.env.State().GetUint64(s.addr, rewardsDurationKey)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		d = aurum.DefaultRewardsDuration
	}
	return d, nil
}

// lastTimeRewardApplicable clamps the accrual clock to the period end.
func (s *Staking) lastTimeRewardApplicable() (uint64, error) {
	finish, err := s.PeriodFinish()
	if err != nil {
		return 0, err
	}
	if now := s.env.Now(); now < finish {
		return now, nil
	}
	return finish, nil
}

// RewardPerToken returns the cumulative reward per staked token, scaled by
// 10^18. With nothing staked the accumulator stays frozen instead of
// dividing by zero.
func (s *Staking) RewardPerToken() (*big.Int, error) {
	st := s.env.State()
	stored, err := st.GetBigInt(s.addr, rewardPerTokenStoredKey)
	if err != nil {
		return nil, err
	}
	totalStaked, err := s.TotalStaked()
	if err != nil {
		return nil, err
	}
	if totalStaked.Sign() == 0 {
		return stored, nil
	}
	applicable, err := s.lastTimeRewardApplicable()
	if err != nil {
		return nil, err
	}
	lastUpdate, err := st.GetUint64(s.addr, lastUpdateTimeKey)
	if err != nil {
		return nil, err
	}
	if applicable <= lastUpdate {
		return stored, nil
	}
	rate, err := s.RewardRate()
	if err != nil {
		return nil, err
	}
	accrued := new(big.Int).SetUint64(applicable - lastUpdate)
	accrued.Mul(accrued, rate)
	accrued.Mul(accrued, aurum.DecimalScale)
	accrued.Div(accrued, totalStaked)
	return stored.Add(stored, accrued), nil
}

// Earned returns the claimable reward of an account.
func (s *Staking) Earned(addr aurum.Address) (*big.Int, error) {
	st := s.env.State()
	owed, err := st.GetBigInt(s.addr, owedKey(addr))
	if err != nil {
		return nil, err
	}
	staked, err := s.StakedOf(addr)
	if err != nil {
		return nil, err
	}
	if staked.Sign() == 0 {
		return owed, nil
	}
	rpt, err := s.RewardPerToken()
	if err != nil {
		return nil, err
	}
	paid, err := st.GetBigInt(s.addr, paidKey(addr))
	if err != nil {
		return nil, err
	}
	delta := new(big.Int).Sub(rpt, paid)
	delta.Mul(delta, staked)
	delta.Div(delta, aurum.DecimalScale)
	return owed.Add(owed, delta), nil
}

// updateReward settles the global accumulator, and banks addr's accrued
// reward when addr is non-zero. Idempotent: calling twice at the same
// instant changes nothing, and rewardsOwed never decreases here.
func (s *Staking) updateReward(addr aurum.Address) error {
	st := s.env.State()
	rpt, err := s.RewardPerToken()
	if err != nil {
		return err
	}
	if err := st.SetBigInt(s.addr, rewardPerTokenStoredKey, rpt); err != nil {
		return err
	}
	applicable, err := s.lastTimeRewardApplicable()
	if err != nil {
		return err
	}
	if err := st.SetUint64(s.addr, lastUpdateTimeKey, applicable); err != nil {
		return err
	}
	if addr.IsZero() {
		return nil
	}
	earned, err := s.Earned(addr)
	if err != nil {
		return err
	}
	if err := st.SetBigInt(s.addr, owedKey(addr), earned); err != nil {
		return err
	}
	return st.SetBigInt(s.addr, paidKey(addr), rpt)
}

// Stake pulls amount of the stake token from the caller (via allowance) and
// adds it to the caller's position.
func (s *Staking) Stake(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errs.InvalidInput("amount must be positive")
	}
	caller := s.env.Caller()
	if err := s.updateReward(caller); err != nil {
		return err
	}
	// bookkeeping first, token movement last
	st := s.env.State()
	total, err := s.TotalStaked()
	if err != nil {
		return err
	}
	if err := st.SetBigInt(s.addr, totalStakedKey, total.Add(total, amount)); err != nil {
		return err
	}
	staked, err := s.StakedOf(caller)
	if err != nil {
		return err
	}
	if err := st.SetBigInt(s.addr, stakedKey(caller), staked.Add(staked, amount)); err != nil {
		return err
	}
	if err := s.stakeToken.Pull(caller, s.addr, amount); err != nil {
		return err
	}
	s.env.Emit(s.addr, "staked",
		runtime.Attr{Key: "account", Value: caller.String()},
		runtime.Attr{Key: "amount", Value: amount.String()},
	)
	return nil
}

// Withdraw removes amount from the caller's position and returns the stake
// tokens.
func (s *Staking) Withdraw(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errs.InvalidInput("amount must be positive")
	}
	caller := s.env.Caller()
	if err := s.updateReward(caller); err != nil {
		return err
	}
	st := s.env.State()
	staked, err := s.StakedOf(caller)
	if err != nil {
		return err
	}
	if staked.Cmp(amount) < 0 {
		return errs.ExceedsLimit("insufficient staked balance: have %v, need %v", staked, amount)
	}
	if err := st.SetBigInt(s.addr, stakedKey(caller), staked.Sub(staked, amount)); err != nil {
		return err
	}
	total, err := s.TotalStaked()
	if err != nil {
		return err
	}
	if err := st.SetBigInt(s.addr, totalStakedKey, total.Sub(total, amount)); err != nil {
		return err
	}
	if err := s.stakeToken.Move(s.addr, caller, amount); err != nil {
		return err
	}
	s.env.Emit(s.addr, "withdrawn",
		runtime.Attr{Key: "account", Value: caller.String()},
		runtime.Attr{Key: "amount", Value: amount.String()},
	)
	return nil
}

// GetReward pays out the caller's banked reward and zeroes it.
// An underfunded reward pool is an operational fault, reported loudly as
// Exhausted rather than truncated.
func (s *Staking) GetReward() (*big.Int, error) {
	caller := s.env.Caller()
	if err := s.updateReward(caller); err != nil {
		return nil, err
	}
	st := s.env.State()
	owed, err := st.GetBigInt(s.addr, owedKey(caller))
	if err != nil {
		return nil, err
	}
	if owed.Sign() == 0 {
		return &big.Int{}, nil
	}
	poolBalance, err := s.rewardToken.BalanceOf(s.addr)
	if err != nil {
		return nil, err
	}
	if poolBalance.Cmp(owed) < 0 {
		return nil, errs.Exhausted("reward pool underfunded: have %v, owe %v", poolBalance, owed)
	}
	if err := st.SetBigInt(s.addr, owedKey(caller), &big.Int{}); err != nil {
		return nil, err
	}
	if err := s.rewardToken.Move(s.addr, caller, owed); err != nil {
		return nil, err
	}
	s.env.Emit(s.addr, "reward_paid",
		runtime.Attr{Key: "account", Value: caller.String()},
		runtime.Attr{Key: "amount", Value: owed.String()},
	)
	return owed, nil
}

// Exit withdraws the caller's full staked balance and claims the reward as
// one atomic unit.
func (s *Staking) Exit() error {
	staked, err := s.StakedOf(s.env.Caller())
	if err != nil {
		return err
	}
	if staked.Sign() > 0 {
		if err := s.Withdraw(staked); err != nil {
			return err
		}
	}
	_, err = s.GetReward()
	return err
}

// NotifyRewardAmount starts or extends a reward period. Funder role
// required. The reward tokens are pulled from the caller; when a period is
// still active its unspent remainder rolls into the new rate.
func (s *Staking) NotifyRewardAmount(amount *big.Int) error {
	if err := s.auth.CheckRole(aurum.RoleFunder); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return errs.InvalidInput("amount must be positive")
	}
	if err := s.updateReward(aurum.Address{}); err != nil {
		return err
	}

	caller := s.env.Caller()
	if err := s.rewardToken.Move(caller, s.addr, amount); err != nil {
		return err
	}

	st := s.env.State()
	now := s.env.Now()
	duration, err := s.RewardsDuration()
	if err != nil {
		return err
	}
	finish, err := s.PeriodFinish()
	if err != nil {
		return err
	}

	total := new(big.Int).Set(amount)
	if now < finish {
		rate, err := s.RewardRate()
		if err != nil {
			return err
		}
		leftover := new(big.Int).SetUint64(finish - now)
		total.Add(total, leftover.Mul(leftover, rate))
	}
	rate := new(big.Int).Div(total, new(big.Int).SetUint64(duration))
	if rate.Sign() == 0 {
		return errs.InvalidInput("reward amount too small for duration %d", duration)
	}

	if err := st.SetBigInt(s.addr, rewardRateKey, rate); err != nil {
		return err
	}
	if err := st.SetUint64(s.addr, lastUpdateTimeKey, now); err != nil {
		return err
	}
	if err := st.SetUint64(s.addr, periodFinishKey, now+duration); err != nil {
		return err
	}

	s.env.Emit(s.addr, "admin_reward_notified",
		runtime.Attr{Key: "amount", Value: amount.String()},
		runtime.Attr{Key: "rate", Value: rate.String()},
	)
	return nil
}

// SetRewardsDuration updates the reward period length. Master only, and only
// between periods so an active period's rate is never rewritten.
func (s *Staking) SetRewardsDuration(duration uint64) error {
	if err := s.auth.CheckMaster(); err != nil {
		return err
	}
	if duration == 0 {
		return errs.InvalidInput("zero duration")
	}
	finish, err := s.PeriodFinish()
	if err != nil {
		return err
	}
	if s.env.Now() < finish {
		return errs.InvalidState("reward period still active until %d", finish)
	}
	if err := s.env.State().SetUint64(s.addr, rewardsDurationKey, duration); err != nil {
		return err
	}
	s.env.Emit(s.addr, "admin_rewards_duration_set",
		runtime.Attr{Key: "duration", Value: uintString(duration)},
	)
	return nil
}

func uintString(v uint64) string {
	return new(big.Int).SetUint64(v).String()
}
