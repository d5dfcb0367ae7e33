// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package record

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/gemfarm/gem"
)

type Key interface {
	Bytes() []byte
}

// Mapping is a key/value storage abstraction for ledger programs, values are RLP encoded.
// Positions are hashed, so a mapping cannot be iterated.
type Mapping[K Key, V any] struct {
	context *Context
	basePos gem.Address
}

func NewMapping[K Key, V any](context *Context, name string) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: gem.Blake2b([]byte(name))}
}

func (m *Mapping[K, V]) position(key K) []byte {
	return m.context.key(gem.Blake2b(key.Bytes(), m.basePos.Bytes()))
}

// Get returns the value stored for key. A missing value decodes as the zero value,
// pointers are allocated.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = m.context.state.DecodeStorage(m.position(key), func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Exists reports whether a value is stored for key.
func (m *Mapping[K, V]) Exists(key K) (bool, error) {
	raw, err := m.context.state.GetRawStorage(m.position(key))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	return m.context.state.EncodeStorage(m.position(key), func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

func (m *Mapping[K, V]) Delete(key K) {
	m.context.state.SetRawStorage(m.position(key), nil)
}
