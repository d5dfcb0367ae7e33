// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package co holds the small goroutine helpers shared by ledger, server and tools.
package co

import (
	"sync"
)

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Goes tracks the go routines it starts. The zero value is ready to use.
type Goes struct {
	mu      sync.Mutex
	running int
	idle    chan struct{} // closed when running drops to zero, nil until someone waits
}

// Go runs f in a new go routine.
func (g *Goes) Go(f func()) {
	g.mu.Lock()
	g.running++
	g.mu.Unlock()

	go func() {
		defer g.exit()
		f()
	}()
}

func (g *Goes) exit() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.running--
	if g.running == 0 && g.idle != nil {
		close(g.idle)
		g.idle = nil
	}
}

// Running returns the number of go routines that have not returned yet.
func (g *Goes) Running() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// Done returns a channel closed once every go routine started so far has returned.
func (g *Goes) Done() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running == 0 {
		return closedChan
	}
	if g.idle == nil {
		g.idle = make(chan struct{})
	}
	return g.idle
}

// Wait blocks until Done is closed.
func (g *Goes) Wait() {
	<-g.Done()
}
