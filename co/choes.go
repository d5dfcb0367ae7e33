// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
)

// Choes is Goes with a stop channel handed to every go routine.
type Choes struct {
	Goes
	stop chan struct{}
	once sync.Once
}

func NewChoes() *Choes {
	return &Choes{stop: make(chan struct{})}
}

// Go runs f in a go routine. f should return soon after stop is closed.
func (c *Choes) Go(f func(stop <-chan struct{})) {
	c.Goes.Go(func() { f(c.stop) })
}

// Stop closes the stop channel. It is safe to call it more than once.
func (c *Choes) Stop() {
	c.once.Do(func() { close(c.stop) })
}
