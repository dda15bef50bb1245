// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime serializes engine calls against the shared world state.
// Every mutating call runs inside a checkpoint: on failure the state is
// reverted and pending events dropped, so a failed call leaves no trace.
package runtime

import (
	"sync"
	"time"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/log"
	"github.com/aurum-network/aurum/metrics"
	"github.com/aurum-network/aurum/state"
)

var logger = log.WithContext("pkg", "runtime")

var (
	metricCallCount   = metrics.LazyLoadCounterVec("runtime_call_count", []string{"outcome"})
	metricCallElapsed = metrics.LazyLoadHistogram("runtime_call_elapsed_ms", metrics.Bucket10s)
)

// EventWriter persists events of committed calls.
type EventWriter interface {
	Append(events []*Event) error
}

// Options options for creating a runtime.
type Options struct {
	// NowFunc supplies the per-call timestamp snapshot. Defaults to wall clock.
	NowFunc func() uint64
	// EventWriter receives events of successful calls. Optional.
	EventWriter EventWriter
}

// Runtime is the single-writer execution surface over one world state.
type Runtime struct {
	mu      sync.Mutex
	st      *state.State
	nowFunc func() uint64
	events  EventWriter
}

// New creates a runtime over the given state.
func New(st *state.State, opts Options) *Runtime {
	nowFunc := opts.NowFunc
	if nowFunc == nil {
		nowFunc = func() uint64 { return uint64(time.Now().Unix()) }
	}
	return &Runtime{
		st:      st,
		nowFunc: nowFunc,
		events:  opts.EventWriter,
	}
}

// Call executes fn as one atomic state transition on behalf of actor.
// Either the whole transition commits along with its events, or the state is
// left untouched.
func (rt *Runtime) Call(actor aurum.Address, fn func(env *Env) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	startTime := time.Now()
	checkpoint := rt.st.NewCheckpoint()
	env := NewEnv(rt.st, actor, rt.nowFunc())

	if err := fn(env); err != nil {
		rt.st.RevertTo(checkpoint)
		metricCallCount().AddWithLabel(1, map[string]string{"outcome": "reverted"})
		return err
	}
	if err := rt.st.Commit(); err != nil {
		rt.st.RevertTo(checkpoint)
		metricCallCount().AddWithLabel(1, map[string]string{"outcome": "commit_failed"})
		return err
	}
	if rt.events != nil && len(env.Events()) > 0 {
		if err := rt.events.Append(env.Events()); err != nil {
			logger.Warn("event append failed", "error", err)
		}
	}
	metricCallCount().AddWithLabel(1, map[string]string{"outcome": "ok"})
	metricCallElapsed().Observe(time.Since(startTime).Milliseconds())
	return nil
}

// View executes fn read-only: writes it makes are reverted and its events
// discarded. The caller identity is zero.
func (rt *Runtime) View(fn func(env *Env) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	checkpoint := rt.st.NewCheckpoint()
	defer rt.st.RevertTo(checkpoint)

	return fn(NewEnv(rt.st, aurum.Address{}, rt.nowFunc()))
}
