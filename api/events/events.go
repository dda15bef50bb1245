// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package events exposes the committed event log over HTTP.
package events

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/aurum-network/aurum/api/restutil"
	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/eventdb"
)

type Events struct {
	db *eventdb.EventDB
}

func New(db *eventdb.EventDB) *Events {
	return &Events{db}
}

func parseFilter(req *http.Request) (*eventdb.Filter, error) {
	q := req.URL.Query()
	filter := &eventdb.Filter{Name: q.Get("name")}

	if v := q.Get("engine"); v != "" {
		addr, err := aurum.ParseAddress(v)
		if err != nil {
			return nil, restutil.BadRequest(errors.WithMessage(err, "engine"))
		}
		filter.Engine = &addr
	}
	if v := q.Get("actor"); v != "" {
		addr, err := aurum.ParseAddress(v)
		if err != nil {
			return nil, restutil.BadRequest(errors.WithMessage(err, "actor"))
		}
		filter.Actor = &addr
	}
	if from := q.Get("from"); from != "" {
		r := &eventdb.TimeRange{}
		var err error
		if r.From, err = strconv.ParseUint(from, 10, 64); err != nil {
			return nil, restutil.BadRequest(errors.WithMessage(err, "from"))
		}
		if to := q.Get("to"); to != "" {
			if r.To, err = strconv.ParseUint(to, 10, 64); err != nil {
				return nil, restutil.BadRequest(errors.WithMessage(err, "to"))
			}
		}
		filter.Range = r
	}
	if limit := q.Get("limit"); limit != "" {
		opts := &eventdb.Options{}
		var err error
		if opts.Limit, err = strconv.ParseUint(limit, 10, 64); err != nil {
			return nil, restutil.BadRequest(errors.WithMessage(err, "limit"))
		}
		if offset := q.Get("offset"); offset != "" {
			if opts.Offset, err = strconv.ParseUint(offset, 10, 64); err != nil {
				return nil, restutil.BadRequest(errors.WithMessage(err, "offset"))
			}
		}
		filter.Options = opts
	}
	if q.Get("order") == "desc" {
		filter.Order = eventdb.DESC
	}
	return filter, nil
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseFilter(req)
	if err != nil {
		return err
	}
	events, err := e.db.FilterEvents(req.Context(), filter)
	if err != nil {
		return err
	}
	if events == nil {
		events = []*eventdb.Event{}
	}
	return restutil.WriteJSON(w, events)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(e.handleFilter))
	sub.Path("/").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(e.handleFilter))
}
