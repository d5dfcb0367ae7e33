// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package record

import (
	"github.com/vechain/gemfarm/gem"
	"github.com/vechain/gemfarm/state"
)

// Context binds a program namespace to the state it reads and writes.
type Context struct {
	namespace gem.Address
	state     *state.State
}

// NewContext creates a context for the named program.
func NewContext(program string, state *state.State) *Context {
	return &Context{
		namespace: gem.Blake2b([]byte(program)),
		state:     state,
	}
}

func (c *Context) State() *state.State {
	return c.state
}

// Namespace returns the address all keys of the program are prefixed with.
func (c *Context) Namespace() gem.Address {
	return c.namespace
}

func (c *Context) key(position gem.Address) []byte {
	return append(c.namespace.Bytes(), position.Bytes()...)
}
