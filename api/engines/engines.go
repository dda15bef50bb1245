// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package engines exposes the distribution-engine read views over HTTP.
package engines

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/aurum-network/aurum/api/restutil"
	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin"
	"github.com/aurum-network/aurum/builtin/sale"
	"github.com/aurum-network/aurum/runtime"
)

type Engines struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Engines {
	return &Engines{rt}
}

func parseAddressVar(req *http.Request, name string) (aurum.Address, error) {
	addr, err := aurum.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return aurum.Address{}, restutil.BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}

func parseUintVar(req *http.Request, name string) (uint64, error) {
	v, err := strconv.ParseUint(mux.Vars(req)[name], 10, 64)
	if err != nil {
		return 0, restutil.BadRequest(errors.WithMessage(err, name))
	}
	return v, nil
}

// Tier is the sale tier view.
type Tier struct {
	Price     *math.HexOrDecimal256 `json:"price"`
	Remaining *math.HexOrDecimal256 `json:"remaining"`
}

// SaleView is the aggregate sale state.
type SaleView struct {
	Status          sale.Status           `json:"status"`
	Tiers           []Tier                `json:"tiers"`
	WindowStart     uint64                `json:"windowStart"`
	WindowEnd       uint64                `json:"windowEnd"`
	MinContribution *math.HexOrDecimal256 `json:"minContribution"`
	MaxContribution *math.HexOrDecimal256 `json:"maxContribution"`
	WhitelistRoot   aurum.Bytes32         `json:"whitelistRoot"`
	Treasury        aurum.Address         `json:"treasury"`
}

func (e *Engines) handleGetSale(w http.ResponseWriter, _ *http.Request) error {
	var view SaleView
	if err := e.rt.View(func(env *runtime.Env) error {
		s := builtin.Bind(env).Sale
		var err error
		if view.Status, err = s.Status(); err != nil {
			return err
		}
		tiers, err := s.Tiers()
		if err != nil {
			return err
		}
		for _, t := range tiers {
			view.Tiers = append(view.Tiers, Tier{
				Price:     (*math.HexOrDecimal256)(t.Price),
				Remaining: (*math.HexOrDecimal256)(t.Remaining),
			})
		}
		if view.WindowStart, view.WindowEnd, err = s.Window(); err != nil {
			return err
		}
		minContrib, maxContrib, err := s.ContributionBounds()
		if err != nil {
			return err
		}
		view.MinContribution = (*math.HexOrDecimal256)(minContrib)
		view.MaxContribution = (*math.HexOrDecimal256)(maxContrib)
		if view.WhitelistRoot, err = s.WhitelistRoot(); err != nil {
			return err
		}
		view.Treasury, err = s.Treasury()
		return err
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &view)
}

func (e *Engines) handleGetContribution(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddressVar(req, "address")
	if err != nil {
		return err
	}
	var contribution *math.HexOrDecimal256
	if err := e.rt.View(func(env *runtime.Env) error {
		c, err := builtin.Bind(env).Sale.ContributionOf(addr)
		if err != nil {
			return err
		}
		contribution = (*math.HexOrDecimal256)(c)
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, restutil.M{"contribution": contribution})
}

// StakingView is the aggregate staking state.
type StakingView struct {
	TotalStaked    *math.HexOrDecimal256 `json:"totalStaked"`
	RewardRate     *math.HexOrDecimal256 `json:"rewardRate"`
	RewardPerToken *math.HexOrDecimal256 `json:"rewardPerToken"`
	PeriodFinish   uint64                `json:"periodFinish"`
}

// StakingAccount is the per-staker view.
type StakingAccount struct {
	Staked *math.HexOrDecimal256 `json:"staked"`
	Earned *math.HexOrDecimal256 `json:"earned"`
}

func (e *Engines) handleGetStaking(w http.ResponseWriter, _ *http.Request) error {
	var view StakingView
	if err := e.rt.View(func(env *runtime.Env) error {
		s := builtin.Bind(env).Staking
		total, err := s.TotalStaked()
		if err != nil {
			return err
		}
		rate, err := s.RewardRate()
		if err != nil {
			return err
		}
		rpt, err := s.RewardPerToken()
		if err != nil {
			return err
		}
		view.TotalStaked = (*math.HexOrDecimal256)(total)
		view.RewardRate = (*math.HexOrDecimal256)(rate)
		view.RewardPerToken = (*math.HexOrDecimal256)(rpt)
		view.PeriodFinish, err = s.PeriodFinish()
		return err
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &view)
}

func (e *Engines) handleGetStakingAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddressVar(req, "address")
	if err != nil {
		return err
	}
	var acc StakingAccount
	if err := e.rt.View(func(env *runtime.Env) error {
		s := builtin.Bind(env).Staking
		staked, err := s.StakedOf(addr)
		if err != nil {
			return err
		}
		earned, err := s.Earned(addr)
		if err != nil {
			return err
		}
		acc.Staked = (*math.HexOrDecimal256)(staked)
		acc.Earned = (*math.HexOrDecimal256)(earned)
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &acc)
}

// ScheduleView is the vesting schedule view.
type ScheduleView struct {
	Beneficiary aurum.Address         `json:"beneficiary"`
	Total       *math.HexOrDecimal256 `json:"total"`
	Released    *math.HexOrDecimal256 `json:"released"`
	Vested      *math.HexOrDecimal256 `json:"vested"`
	Releasable  *math.HexOrDecimal256 `json:"releasable"`
	Start       uint64                `json:"start"`
	Cliff       uint64                `json:"cliff"`
	Duration    uint64                `json:"duration"`
	Revocable   bool                  `json:"revocable"`
	RevokedAt   uint64                `json:"revokedAt"`
}

func (e *Engines) handleGetSchedule(w http.ResponseWriter, req *http.Request) error {
	id, err := parseUintVar(req, "id")
	if err != nil {
		return err
	}
	var view ScheduleView
	if err := e.rt.View(func(env *runtime.Env) error {
		s, err := builtin.Bind(env).Vesting.Get(id)
		if err != nil {
			return restutil.NotFound(err)
		}
		view = ScheduleView{
			Beneficiary: s.Beneficiary,
			Total:       (*math.HexOrDecimal256)(s.Total),
			Released:    (*math.HexOrDecimal256)(s.Released),
			Vested:      (*math.HexOrDecimal256)(s.VestedAt(env.Now())),
			Releasable:  (*math.HexOrDecimal256)(s.ReleasableAt(env.Now())),
			Start:       s.Start,
			Cliff:       s.Cliff,
			Duration:    s.Duration,
			Revocable:   s.Revocable,
			RevokedAt:   s.RevokedAt,
		}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &view)
}

func (e *Engines) handleGetSchedulesOf(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddressVar(req, "address")
	if err != nil {
		return err
	}
	var ids []uint64
	if err := e.rt.View(func(env *runtime.Env) error {
		var err error
		ids, err = builtin.Bind(env).Vesting.SchedulesOf(addr)
		return err
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, restutil.M{"schedules": ids})
}

func (e *Engines) handleGetAirdrop(w http.ResponseWriter, _ *http.Request) error {
	var (
		round  uint64
		root   aurum.Bytes32
		paused bool
	)
	if err := e.rt.View(func(env *runtime.Env) error {
		a := builtin.Bind(env).Airdrop
		var err error
		if round, err = a.CurrentRound(); err != nil {
			return err
		}
		if root, err = a.Root(round); err != nil {
			return err
		}
		paused, err = a.Paused()
		return err
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, restutil.M{"currentRound": round, "root": root, "paused": paused})
}

func (e *Engines) handleGetClaimed(w http.ResponseWriter, req *http.Request) error {
	round, err := parseUintVar(req, "round")
	if err != nil {
		return err
	}
	index, err := parseUintVar(req, "index")
	if err != nil {
		return err
	}
	var claimed bool
	if err := e.rt.View(func(env *runtime.Env) error {
		var err error
		claimed, err = builtin.Bind(env).Airdrop.IsClaimed(round, index)
		return err
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, restutil.M{"claimed": claimed})
}

func (e *Engines) handleGetAllowlist(w http.ResponseWriter, _ *http.Request) error {
	var (
		root    aurum.Bytes32
		version uint64
	)
	if err := e.rt.View(func(env *runtime.Env) error {
		l := builtin.Bind(env).Allowlist
		var err error
		if root, err = l.Root(); err != nil {
			return err
		}
		version, err = l.RootVersion()
		return err
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, restutil.M{"root": root, "rootVersion": version})
}

func (e *Engines) handleGetRemaining(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddressVar(req, "address")
	if err != nil {
		return err
	}
	var remaining *math.HexOrDecimal256
	if err := e.rt.View(func(env *runtime.Env) error {
		r, err := builtin.Bind(env).Allowlist.Remaining(addr)
		if err != nil {
			return err
		}
		remaining = (*math.HexOrDecimal256)(r)
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, restutil.M{"remaining": remaining})
}

func (e *Engines) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/sale").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(e.handleGetSale))
	sub.Path("/sale/contributions/{address}").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(e.handleGetContribution))
	sub.Path("/staking").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(e.handleGetStaking))
	sub.Path("/staking/accounts/{address}").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(e.handleGetStakingAccount))
	sub.Path("/vesting/schedules/{id}").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(e.handleGetSchedule))
	sub.Path("/vesting/accounts/{address}").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(e.handleGetSchedulesOf))
	sub.Path("/airdrop").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(e.handleGetAirdrop))
	sub.Path("/airdrop/rounds/{round}/claimed/{index}").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(e.handleGetClaimed))
	sub.Path("/allowlist").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(e.handleGetAllowlist))
	sub.Path("/allowlist/accounts/{address}/remaining").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(e.handleGetRemaining))
}
