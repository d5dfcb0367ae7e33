// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gem

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	addr := BytesToAddress([]byte("owner"))

	parsed, err := ParseAddress(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)

	parsed, err = ParseAddress(addr.String()[2:])
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)

	_, err = ParseAddress("0x1234")
	assert.EqualError(t, err, "invalid length")

	_, err = ParseAddress("1x" + addr.String()[2:])
	assert.EqualError(t, err, "invalid prefix")
}

func TestAddressJSON(t *testing.T) {
	addr := BytesToAddress([]byte("vault"))

	data, err := json.Marshal(addr)
	require.NoError(t, err)
	assert.Equal(t, `"`+addr.String()+`"`, string(data))

	var decoded Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)
}

func TestBytesToAddress(t *testing.T) {
	long := make([]byte, 40)
	long[39] = 1
	addr := BytesToAddress(long)
	assert.Equal(t, byte(1), addr[31])
	assert.False(t, addr.IsZero())
	assert.True(t, Address{}.IsZero())
}

func TestDerive(t *testing.T) {
	farm := BytesToAddress([]byte("farm"))
	identity := BytesToAddress([]byte("identity"))

	addr, nonce, err := FindDerived(SeedFarmer, farm.Bytes(), identity.Bytes())
	require.NoError(t, err)

	assert.True(t, IsDerived(addr, nonce, SeedFarmer, farm.Bytes(), identity.Bytes()))
	assert.False(t, IsDerived(addr, nonce, SeedFarmer, identity.Bytes(), farm.Bytes()))

	// every nonce above the canonical one is invalid
	for n := int(nonce) + 1; n <= 255; n++ {
		_, ok := Derive(uint8(n), SeedFarmer, farm.Bytes(), identity.Bytes())
		assert.False(t, ok)
	}

	again, againNonce := MustFindDerived(SeedFarmer, farm.Bytes(), identity.Bytes())
	assert.Equal(t, addr, again)
	assert.Equal(t, nonce, againNonce)
}
