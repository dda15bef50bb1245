// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/state"
)

// Attr is one key/value pair of an event payload.
type Attr struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event records one successful state mutation.
// Admin-initiated events carry an "admin_" name prefix, so they are
// distinguishable from user actions in the event log.
type Event struct {
	Name   string
	Engine aurum.Address
	Actor  aurum.Address
	Time   uint64
	Attrs  []Attr
}

// Env is the execution environment of a single call.
// The caller identity and timestamp are snapshotted once when the env is
// created and never re-read, so every computation inside the call is a pure
// function of (stored state, env).
type Env struct {
	st     *state.State
	caller aurum.Address
	now    uint64
	events []*Event
}

// NewEnv creates a call environment with the given caller and time snapshot.
func NewEnv(st *state.State, caller aurum.Address, now uint64) *Env {
	return &Env{st: st, caller: caller, now: now}
}

// State returns the world state.
func (e *Env) State() *state.State {
	return e.st
}

// Caller returns the authenticated caller identity.
func (e *Env) Caller() aurum.Address {
	return e.caller
}

// Now returns the timestamp snapshot, in unix seconds.
func (e *Env) Now() uint64 {
	return e.now
}

// Emit records an event. Events are kept pending until the surrounding call
// succeeds; a reverted call drops them.
func (e *Env) Emit(engine aurum.Address, name string, attrs ...Attr) {
	e.events = append(e.events, &Event{
		Name:   name,
		Engine: engine,
		Actor:  e.caller,
		Time:   e.now,
		Attrs:  attrs,
	})
}

// Events returns events emitted so far within this call.
func (e *Env) Events() []*Event {
	return e.events
}
