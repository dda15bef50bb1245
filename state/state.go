// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/kv"
	"github.com/aurum-network/aurum/stackedmap"
)

const (
	storageKeyPrefix = "s"
	cacheSize        = 65536
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// storageKey identifies one storage slot of an engine address.
type storageKey struct {
	addr aurum.Address
	key  aurum.Bytes32
}

func (k storageKey) persistent() []byte {
	b := make([]byte, 0, len(storageKeyPrefix)+aurum.AddressLength+32)
	b = append(b, storageKeyPrefix...)
	b = append(b, k.addr.Bytes()...)
	return append(b, k.key.Bytes()...)
}

// State manages the world state: keyed storage owned per engine address,
// journaled with checkpoint/revert semantics. It is single-writer; callers
// serialize access externally.
type State struct {
	db    kv.GetPutter
	cache *lru.Cache // persistent key string -> []byte, raw values read from db
	sm    *stackedmap.StackedMap
}

// New create a state object backed by the given kv store.
func New(db kv.GetPutter) *State {
	cache, _ := lru.New(cacheSize)
	st := &State{
		db:    db,
		cache: cache,
	}
	st.sm = stackedmap.New(func(key any) (any, bool, error) {
		return st.dbGetter(key.(storageKey))
	})
	// the bottom-most checkpoint, so Put is always legal
	st.sm.Push()
	return st
}

// dbGetter implements stackedmap.MapGetter over the backing kv store.
func (s *State) dbGetter(key storageKey) (any, bool, error) {
	pk := key.persistent()
	if v, ok := s.cache.Get(string(pk)); ok {
		return v.([]byte), true, nil
	}
	raw, err := s.db.Get(pk)
	if err != nil {
		if s.db.IsNotFound(err) {
			s.cache.Add(string(pk), []byte(nil))
			return []byte(nil), true, nil
		}
		return nil, false, &Error{err}
	}
	s.cache.Add(string(pk), raw)
	return raw, true, nil
}

// GetRawStorage returns raw storage value for the given address and key.
// Empty value means the slot was never written, or was cleared.
func (s *State) GetRawStorage(addr aurum.Address, key aurum.Bytes32) ([]byte, error) {
	v, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// SetRawStorage sets raw storage value for the given address and key.
// Passing nil or empty raw clears the slot.
func (s *State) SetRawStorage(addr aurum.Address, key aurum.Bytes32, raw []byte) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage sets storage value encoded by given enc function.
// An empty encoded value clears the slot.
func (s *State) EncodeStorage(addr aurum.Address, key aurum.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage gets and decodes storage value with given dec function.
// The dec function sees an empty slice for a never-written slot.
func (s *State) DecodeStorage(addr aurum.Address, key aurum.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// GetStructuredStorage decodes the storage value into val.
func (s *State) GetStructuredStorage(addr aurum.Address, key aurum.Bytes32, val StructuredStorage) error {
	return s.DecodeStorage(addr, key, val.Decode)
}

// SetStructuredStorage encodes val into the storage slot.
func (s *State) SetStructuredStorage(addr aurum.Address, key aurum.Bytes32, val StructuredStorage) error {
	return s.EncodeStorage(addr, key, val.Encode)
}

// NewCheckpoint makes a checkpoint of current state.
// It returns the checkpoint to be passed to RevertTo.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts the state to the given checkpoint.
// Writes made after the checkpoint are discarded.
func (s *State) RevertTo(checkpoint int) {
	s.sm.PopTo(checkpoint)
}

// Commit writes all journaled changes to the backing kv store atomically,
// then collapses the journal. The state stays usable afterwards.
func (s *State) Commit() error {
	batch := s.db.NewBatch()

	// replay the journal in order; later writes win inside the batch.
	final := make(map[storageKey][]byte)
	s.sm.Journal(func(key, value any) bool {
		final[key.(storageKey)] = value.([]byte)
		return true
	})
	for key, raw := range final {
		pk := key.persistent()
		if len(raw) == 0 {
			if err := batch.Delete(pk); err != nil {
				return &Error{err}
			}
		} else if err := batch.Put(pk, raw); err != nil {
			return &Error{err}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}
	for key, raw := range final {
		s.cache.Add(string(key.persistent()), raw)
	}

	s.sm.PopTo(0)
	s.sm.Push()
	return nil
}
