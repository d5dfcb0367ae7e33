// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/gemfarm/api/utils"
	"github.com/vechain/gemfarm/builtin/farm/flash"
	"github.com/vechain/gemfarm/gem"
	"github.com/vechain/gemfarm/ledger"
	"github.com/vechain/gemfarm/log"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	writeTimeout = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 7 / 10
)

// FlashMessage is sent for every committed flash withdrawal.
// Messages of different commits may arrive out of order, Seq restores it.
type FlashMessage struct {
	Seq uint64 `json:"seq"`
	*flash.Receipt
}

type Subscriptions struct {
	ledger   *ledger.Ledger
	upgrader *websocket.Upgrader
	done     chan struct{}

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates the subscription endpoints. Websocket handshakes are accepted from the
// listed origins, any origin with "*", or the same origin only when the list is empty.
func New(l *ledger.Ledger, allowedOrigins []string) *Subscriptions {
	upgrader := &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
	if len(allowedOrigins) > 0 {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		}
	}
	return &Subscriptions{
		ledger:   l,
		upgrader: upgrader,
		done:     make(chan struct{}),
	}
}

func (s *Subscriptions) handleSubscribeFlash(w http.ResponseWriter, req *http.Request) error {
	var farm *gem.Address
	if v := req.URL.Query().Get("farm"); v != "" {
		addr, err := gem.ParseAddress(v)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "farm"))
		}
		farm = &addr
	}

	if !s.register() {
		return utils.HTTPError(errors.New("subscriptions closed"), http.StatusServiceUnavailable)
	}
	defer s.wg.Done()

	// subscribe before the handshake completes, so no commit after it is missed
	ch := make(chan *ledger.Commit, 16)
	sub := s.ledger.SubscribeCommits(ch)
	defer sub.Unsubscribe()

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has replied already
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closed")
			conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
			return nil
		case <-closed:
			return nil
		case <-sub.Err():
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "ledger closed")
			conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
			return nil
		case commit := <-ch:
			for _, ev := range commit.Events {
				r, ok := ev.(*flash.Receipt)
				if !ok || (farm != nil && r.Farm != *farm) {
					continue
				}
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(&FlashMessage{Seq: commit.Seq, Receipt: r}); err != nil {
					logger.Debug("write failed", "err", err)
					return nil
				}
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				logger.Debug("ping failed", "err", err)
				return nil
			}
		}
	}
}

// register counts a new subscriber, unless Close has begun.
func (s *Subscriptions) register() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

// Close disconnects every subscriber and refuses new ones.
func (s *Subscriptions) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/flash").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeFlash))
}
