// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/vechain/gemfarm/log"
)

// maxLoggedBody bounds the part of a request body that ends up in the log.
const maxLoggedBody = 4096

// RequestLoggerHandler returns a http handler logging every request with its outcome.
func RequestLoggerHandler(handler http.Handler, logger log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			var err error
			if body, err = io.ReadAll(r.Body); err != nil {
				logger.Warn("unexpected body read error", "err", err)
				http.Error(w, "unreadable body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		logged := body
		if len(logged) > maxLoggedBody {
			logged = logged[:maxLoggedBody]
		}

		start := time.Now()
		srw := newStatusResponseWriter(w)
		handler.ServeHTTP(srw, r)

		logger.Info("API Request",
			"uri", r.URL.String(),
			"method", r.Method,
			"body", string(logged),
			"status", srw.statusCode,
			"elapsed", time.Since(start),
		)
	})
}
