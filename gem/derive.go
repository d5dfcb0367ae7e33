// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gem

import (
	"errors"
	"io"
)

var derivePrefix = []byte("gemfarm-derived")

// ErrNoValidNonce is returned when no nonce yields a valid derived address.
var ErrNoValidNonce = errors.New("no valid nonce for seeds")

// Derive computes the address derived from seeds and nonce.
// The second return value reports whether the nonce is valid for the seeds:
// an address is only valid when the top bit of its first byte is clear.
func Derive(nonce uint8, seeds ...[]byte) (Address, bool) {
	addr := Blake2bFn(func(w io.Writer) {
		w.Write(derivePrefix)
		for _, s := range seeds {
			w.Write(s)
		}
		w.Write([]byte{nonce})
	})
	return addr, addr[0]&0x80 == 0
}

// FindDerived searches the canonical nonce for seeds, starting at 255 and counting down.
func FindDerived(seeds ...[]byte) (Address, uint8, error) {
	for n := 255; n >= 0; n-- {
		if addr, ok := Derive(uint8(n), seeds...); ok {
			return addr, uint8(n), nil
		}
	}
	return Address{}, 0, ErrNoValidNonce
}

// MustFindDerived is like FindDerived but panics on error.
func MustFindDerived(seeds ...[]byte) (Address, uint8) {
	addr, nonce, err := FindDerived(seeds...)
	if err != nil {
		panic(err)
	}
	return addr, nonce
}

// IsDerived reports whether addr is the address derived from seeds with nonce.
func IsDerived(addr Address, nonce uint8, seeds ...[]byte) bool {
	derived, ok := Derive(nonce, seeds...)
	return ok && derived == addr
}
