// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tokens exposes the ledger read views over HTTP.
package tokens

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/aurum-network/aurum/api/restutil"
	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/builtin"
	"github.com/aurum-network/aurum/builtin/ledger"
	"github.com/aurum-network/aurum/runtime"
)

type Tokens struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Tokens {
	return &Tokens{rt}
}

// Token is the ledger summary view.
type Token struct {
	Name        string                `json:"name"`
	Symbol      string                `json:"symbol"`
	TotalSupply *math.HexOrDecimal256 `json:"totalSupply"`
	TotalMinted *math.HexOrDecimal256 `json:"totalMinted"`
	TotalBurned *math.HexOrDecimal256 `json:"totalBurned"`
	Paused      bool                  `json:"paused"`
}

// Account is the per-address ledger view.
type Account struct {
	Balance *math.HexOrDecimal256 `json:"balance"`
	Nonce   uint64                `json:"nonce"`
	Denied  bool                  `json:"denied"`
}

func pickLedger(engines *builtin.Engines, name string) (*ledger.Ledger, error) {
	switch name {
	case "base":
		return engines.BaseToken, nil
	case "quote":
		return engines.QuoteToken, nil
	default:
		return nil, restutil.BadRequest(errors.Errorf("unknown token %q", name))
	}
}

func (t *Tokens) handleGetToken(w http.ResponseWriter, req *http.Request) error {
	var token Token
	if err := t.rt.View(func(env *runtime.Env) error {
		l, err := pickLedger(builtin.Bind(env), mux.Vars(req)["token"])
		if err != nil {
			return err
		}
		if token.Name, err = l.Name(); err != nil {
			return err
		}
		if token.Symbol, err = l.Symbol(); err != nil {
			return err
		}
		supply, err := l.TotalSupply()
		if err != nil {
			return err
		}
		minted, err := l.TotalMinted()
		if err != nil {
			return err
		}
		burned, err := l.TotalBurned()
		if err != nil {
			return err
		}
		token.TotalSupply = (*math.HexOrDecimal256)(supply)
		token.TotalMinted = (*math.HexOrDecimal256)(minted)
		token.TotalBurned = (*math.HexOrDecimal256)(burned)
		token.Paused, err = l.Paused()
		return err
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &token)
}

func (t *Tokens) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := aurum.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "address"))
	}
	var acc Account
	if err := t.rt.View(func(env *runtime.Env) error {
		l, err := pickLedger(builtin.Bind(env), mux.Vars(req)["token"])
		if err != nil {
			return err
		}
		balance, err := l.BalanceOf(addr)
		if err != nil {
			return err
		}
		acc.Balance = (*math.HexOrDecimal256)(balance)
		if acc.Nonce, err = l.Nonce(addr); err != nil {
			return err
		}
		acc.Denied, err = l.Denied(addr)
		return err
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &acc)
}

func (t *Tokens) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/{token}").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(t.handleGetToken))
	sub.Path("/{token}/accounts/{address}").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(t.handleGetAccount))
}
