// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api assembles the HTTP read surface: ledger and engine views, the
// event log and the metrics endpoint. Mutations go through the runtime, not
// through HTTP.
package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/aurum-network/aurum/api/engines"
	"github.com/aurum-network/aurum/api/events"
	"github.com/aurum-network/aurum/api/restutil"
	"github.com/aurum-network/aurum/api/tokens"
	"github.com/aurum-network/aurum/builtin"
	"github.com/aurum-network/aurum/eventdb"
	"github.com/aurum-network/aurum/metrics"
	"github.com/aurum-network/aurum/runtime"
)

// New returns the api http handler.
func New(rt *runtime.Runtime, eventDB *eventdb.EventDB) http.Handler {
	router := mux.NewRouter()
	tokens.New(rt).Mount(router, "/ledger")
	engines.New(rt).Mount(router, "/engines")
	events.New(eventDB).Mount(router, "/events")
	router.Path("/health").
		Methods(http.MethodGet).
		HandlerFunc(restutil.WrapHandlerFunc(handleHealth(rt)))
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())

	return handlers.CompressHandler(
		handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{"GET", "OPTIONS"}),
		)(router),
	)
}

type healthStatus struct {
	Healthy     bool `json:"healthy"`
	Initialized bool `json:"initialized"`
}

// handleHealth reports liveness and whether genesis has been applied.
func handleHealth(rt *runtime.Runtime) restutil.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		var initialized bool
		if err := rt.View(func(env *runtime.Env) error {
			master, err := builtin.Bind(env).Authority.Master()
			if err != nil {
				return err
			}
			initialized = !master.IsZero()
			return nil
		}); err != nil {
			return err
		}
		return restutil.WriteJSON(w, &healthStatus{Healthy: true, Initialized: initialized})
	}
}
