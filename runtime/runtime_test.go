// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/lvldb"
	"github.com/aurum-network/aurum/runtime"
	"github.com/aurum-network/aurum/state"
)

type eventRecorder struct {
	events []*runtime.Event
}

func (r *eventRecorder) Append(events []*runtime.Event) error {
	r.events = append(r.events, events...)
	return nil
}

func newRuntime(t *testing.T) (*runtime.Runtime, *eventRecorder) {
	t.Helper()
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	recorder := &eventRecorder{}
	rt := runtime.New(state.New(db), runtime.Options{
		NowFunc:     func() uint64 { return 42 },
		EventWriter: recorder,
	})
	return rt, recorder
}

var (
	engine = aurum.BytesToAddress([]byte("engine"))
	actor  = aurum.BytesToAddress([]byte("actor"))
	slot   = aurum.Blake2b([]byte("slot"))
)

func TestCallCommits(t *testing.T) {
	rt, recorder := newRuntime(t)

	require.NoError(t, rt.Call(actor, func(env *runtime.Env) error {
		assert.Equal(t, actor, env.Caller())
		assert.Equal(t, uint64(42), env.Now())
		if err := env.State().SetUint64(engine, slot, 7); err != nil {
			return err
		}
		env.Emit(engine, "something_happened", runtime.Attr{Key: "value", Value: "7"})
		return nil
	}))

	require.NoError(t, rt.View(func(env *runtime.Env) error {
		v, err := env.State().GetUint64(engine, slot)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), v)
		return nil
	}))

	require.Len(t, recorder.events, 1)
	ev := recorder.events[0]
	assert.Equal(t, "something_happened", ev.Name)
	assert.Equal(t, engine, ev.Engine)
	assert.Equal(t, actor, ev.Actor)
	assert.Equal(t, uint64(42), ev.Time)
}

func TestFailedCallLeavesNoTrace(t *testing.T) {
	rt, recorder := newRuntime(t)

	require.NoError(t, rt.Call(actor, func(env *runtime.Env) error {
		return env.State().SetUint64(engine, slot, 7)
	}))

	err := rt.Call(actor, func(env *runtime.Env) error {
		if err := env.State().SetUint64(engine, slot, 99); err != nil {
			return err
		}
		env.Emit(engine, "should_not_persist")
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")

	// the write was rolled back and the event dropped
	require.NoError(t, rt.View(func(env *runtime.Env) error {
		v, err := env.State().GetUint64(engine, slot)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), v)
		return nil
	}))
	assert.Len(t, recorder.events, 0)
}

func TestViewRevertsWrites(t *testing.T) {
	rt, _ := newRuntime(t)

	require.NoError(t, rt.View(func(env *runtime.Env) error {
		assert.True(t, env.Caller().IsZero())
		return env.State().SetUint64(engine, slot, 1)
	}))

	require.NoError(t, rt.View(func(env *runtime.Env) error {
		v, err := env.State().GetUint64(engine, slot)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), v)
		return nil
	}))
}
