// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/lvldb"
	"github.com/aurum-network/aurum/state"
)

func TestStorageRoundTrip(t *testing.T) {
	db, _ := lvldb.NewMem()
	st := state.New(db)

	addr := aurum.BytesToAddress([]byte("engine"))
	key := aurum.Blake2b([]byte("counter"))

	v, err := st.GetBigInt(addr, key)
	require.NoError(t, err)
	assert.Zero(t, v.Sign())

	require.NoError(t, st.SetBigInt(addr, key, big.NewInt(42)))
	v, err = st.GetBigInt(addr, key)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), v)

	b, err := st.GetBool(addr, aurum.Blake2b([]byte("flag")))
	require.NoError(t, err)
	assert.False(t, b)
	require.NoError(t, st.SetBool(addr, aurum.Blake2b([]byte("flag")), true))
	b, _ = st.GetBool(addr, aurum.Blake2b([]byte("flag")))
	assert.True(t, b)
}

func TestCheckpointRevert(t *testing.T) {
	db, _ := lvldb.NewMem()
	st := state.New(db)

	addr := aurum.BytesToAddress([]byte("engine"))
	key := aurum.Blake2b([]byte("k"))

	require.NoError(t, st.SetUint64(addr, key, 1))
	cp := st.NewCheckpoint()
	require.NoError(t, st.SetUint64(addr, key, 2))

	v, _ := st.GetUint64(addr, key)
	assert.Equal(t, uint64(2), v)

	st.RevertTo(cp)
	v, _ = st.GetUint64(addr, key)
	assert.Equal(t, uint64(1), v)
}

func TestCommitPersists(t *testing.T) {
	db, _ := lvldb.NewMem()

	addr := aurum.BytesToAddress([]byte("engine"))
	key := aurum.Blake2b([]byte("k"))

	st := state.New(db)
	require.NoError(t, st.SetBigInt(addr, key, big.NewInt(7)))
	require.NoError(t, st.Commit())

	// fresh state over the same db sees committed values
	st2 := state.New(db)
	v, err := st2.GetBigInt(addr, key)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), v)

	// clearing a slot deletes it on commit
	require.NoError(t, st2.SetBigInt(addr, key, new(big.Int)))
	require.NoError(t, st2.Commit())
	st3 := state.New(db)
	v, _ = st3.GetBigInt(addr, key)
	assert.Zero(t, v.Sign())
}

func TestAddressAndBytes32Slots(t *testing.T) {
	db, _ := lvldb.NewMem()
	st := state.New(db)

	addr := aurum.BytesToAddress([]byte("engine"))
	treasury := aurum.BytesToAddress([]byte("treasury"))
	root := aurum.Blake2b([]byte("root"))

	require.NoError(t, st.SetAddress(addr, aurum.Blake2b([]byte("t")), treasury))
	got, err := st.GetAddress(addr, aurum.Blake2b([]byte("t")))
	require.NoError(t, err)
	assert.Equal(t, treasury, got)

	require.NoError(t, st.SetBytes32(addr, aurum.Blake2b([]byte("r")), root))
	gotRoot, err := st.GetBytes32(addr, aurum.Blake2b([]byte("r")))
	require.NoError(t, err)
	assert.Equal(t, root, gotRoot)
}
