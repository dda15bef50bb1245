// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/aurum-network/aurum/aurum"
)

// StructuredStorage storage data types should implement this.
// Encoding to an empty slice clears the slot; decoding from an empty slice
// must yield the zero value.
type StructuredStorage interface {
	Encode() ([]byte, error)
	Decode([]byte) error
}

// GetBigInt reads a big.Int storage slot. A never-written slot reads as zero.
func (s *State) GetBigInt(addr aurum.Address, key aurum.Bytes32) (*big.Int, error) {
	v := new(big.Int)
	if err := s.DecodeStorage(addr, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, v)
	}); err != nil {
		return nil, err
	}
	return v, nil
}

// SetBigInt writes a big.Int storage slot. Zero clears the slot.
func (s *State) SetBigInt(addr aurum.Address, key aurum.Bytes32, v *big.Int) error {
	return s.EncodeStorage(addr, key, func() ([]byte, error) {
		if v.Sign() == 0 {
			return nil, nil
		}
		return rlp.EncodeToBytes(v)
	})
}

// GetUint64 reads a uint64 storage slot.
func (s *State) GetUint64(addr aurum.Address, key aurum.Bytes32) (uint64, error) {
	var v uint64
	if err := s.DecodeStorage(addr, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &v)
	}); err != nil {
		return 0, err
	}
	return v, nil
}

// SetUint64 writes a uint64 storage slot. Zero clears the slot.
func (s *State) SetUint64(addr aurum.Address, key aurum.Bytes32, v uint64) error {
	return s.EncodeStorage(addr, key, func() ([]byte, error) {
		if v == 0 {
			return nil, nil
		}
		return rlp.EncodeToBytes(v)
	})
}

// GetBool reads a bool storage slot.
func (s *State) GetBool(addr aurum.Address, key aurum.Bytes32) (bool, error) {
	v, err := s.GetUint64(addr, key)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// SetBool writes a bool storage slot. False clears the slot.
func (s *State) SetBool(addr aurum.Address, key aurum.Bytes32, v bool) error {
	if v {
		return s.SetUint64(addr, key, 1)
	}
	return s.SetUint64(addr, key, 0)
}

// GetAddress reads an address storage slot.
func (s *State) GetAddress(addr aurum.Address, key aurum.Bytes32) (aurum.Address, error) {
	var v aurum.Address
	if err := s.DecodeStorage(addr, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		var content []byte
		if err := rlp.DecodeBytes(raw, &content); err != nil {
			return err
		}
		v = aurum.BytesToAddress(content)
		return nil
	}); err != nil {
		return aurum.Address{}, err
	}
	return v, nil
}

// SetAddress writes an address storage slot. The zero address clears the slot.
func (s *State) SetAddress(addr aurum.Address, key aurum.Bytes32, v aurum.Address) error {
	return s.EncodeStorage(addr, key, func() ([]byte, error) {
		if v.IsZero() {
			return nil, nil
		}
		return rlp.EncodeToBytes(v.Bytes())
	})
}

// GetBytes32 reads a 32-byte storage slot.
func (s *State) GetBytes32(addr aurum.Address, key aurum.Bytes32) (aurum.Bytes32, error) {
	var v aurum.Bytes32
	if err := s.DecodeStorage(addr, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		var content []byte
		if err := rlp.DecodeBytes(raw, &content); err != nil {
			return err
		}
		v = aurum.BytesToBytes32(content)
		return nil
	}); err != nil {
		return aurum.Bytes32{}, err
	}
	return v, nil
}

// SetBytes32 writes a 32-byte storage slot. The zero value clears the slot.
func (s *State) SetBytes32(addr aurum.Address, key aurum.Bytes32, v aurum.Bytes32) error {
	return s.EncodeStorage(addr, key, func() ([]byte, error) {
		if v.IsZero() {
			return nil, nil
		}
		return rlp.EncodeToBytes(v.Bytes())
	})
}
