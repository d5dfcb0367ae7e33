// Copyright 2017 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"bytes"
	"log/slog"
	"math/big"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sink []byte

func BenchmarkPrettyInt64Logfmt(b *testing.B) {
	buf := make([]byte, 100)
	b.ReportAllocs()
	for b.Loop() {
		sink = appendInt64(buf, rand.Int64()) //#nosec G404
	}
}

func BenchmarkPrettyUint64Logfmt(b *testing.B) {
	buf := make([]byte, 100)
	b.ReportAllocs()
	for b.Loop() {
		sink = appendUint64(buf, rand.Uint64(), false) //#nosec G404
	}
}

func TestAppendUint64(t *testing.T) {
	assert.Equal(t, "99999", string(appendUint64(nil, 99999, false)))
	assert.Equal(t, "100,000", string(appendUint64(nil, 100000, false)))
	assert.Equal(t, "-1,234,567", string(appendInt64(nil, -1234567)))
}

func TestTerminalHandlerFormatsAmounts(t *testing.T) {
	var out bytes.Buffer
	var lvl slog.LevelVar
	lvl.Set(LevelTrace)

	l := NewLogger(NewTerminalHandler(&out, &lvl, false))
	l.Info("staked", "gems", uint256.NewInt(1_500_000), "points", big.NewInt(42), "pkg", "stakes")

	line := out.String()
	assert.True(t, strings.HasPrefix(line, "INFO "))
	assert.Contains(t, line, "gems=1,500,000")
	assert.Contains(t, line, "points=42")
	assert.Contains(t, line, "pkg=stakes")
}

func TestNewHandler(t *testing.T) {
	var out bytes.Buffer
	var lvl slog.LevelVar
	lvl.Set(slog.LevelInfo)

	h, err := NewHandler(&out, FormatJSON, &lvl, false)
	require.NoError(t, err)
	NewLogger(h).Debug("hidden")
	NewLogger(h).Info("shown", "amount", uint256.NewInt(7))
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"amount":"7"`)

	_, err = NewHandler(&out, Format("xml"), &lvl, false)
	assert.Error(t, err)
}

func TestWithContextFollowsRoot(t *testing.T) {
	pkgLogger := WithContext("pkg", "flash")

	var out bytes.Buffer
	var lvl slog.LevelVar
	lvl.Set(LevelTrace)
	prev := Root()
	SetDefault(NewLogger(LogfmtHandler(&out, &lvl)))
	defer SetDefault(prev)

	pkgLogger.Info("restaked", "amount", 5)
	assert.Contains(t, out.String(), "pkg=flash")
	assert.Contains(t, out.String(), "amount=5")
}
