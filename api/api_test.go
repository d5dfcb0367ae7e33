// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/gemfarm/api/farms"
	"github.com/vechain/gemfarm/api/subscriptions"
	"github.com/vechain/gemfarm/genesis"
	"github.com/vechain/gemfarm/ledger"
	"github.com/vechain/gemfarm/log"
	"github.com/vechain/gemfarm/logdb"
	"github.com/vechain/gemfarm/lvldb"
	"github.com/vechain/gemfarm/metrics"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

func newLedger(t *testing.T) (*ledger.Ledger, *logdb.LogDB) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	l, err := ledger.New(store, 256)
	require.NoError(t, err)
	_, err = genesis.NewDevnet(0).Init(context.Background(), l)
	require.NoError(t, err)
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() {
		l.Close()
		logDB.Close()
		store.Close()
	})
	return l, logDB
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) // #nosec
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func scrape(t *testing.T, url string) map[string]*dto.MetricFamily {
	body, code := httpGet(t, url+"/metrics")
	require.Equal(t, http.StatusOK, code)
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	require.NoError(t, err)
	return families
}

func labelsOf(m *dto.Metric) map[string]string {
	labels := make(map[string]string)
	for _, l := range m.GetLabel() {
		labels[l.GetName()] = l.GetValue()
	}
	return labels
}

func TestNew(t *testing.T) {
	l, logDB := newLedger(t)
	handler, closeFn := New(l, logDB, Options{AllowedOrigins: "https://dapp.example", LogsLimit: 10})
	ts := httptest.NewServer(handler)
	defer func() {
		closeFn()
		ts.Close()
	}()

	body, code := httpGet(t, ts.URL+"/ledger")
	require.Equal(t, http.StatusOK, code)
	var seq struct {
		Seq uint64 `json:"seq"`
	}
	require.NoError(t, json.Unmarshal(body, &seq))
	assert.Equal(t, uint64(1), seq.Seq)

	_, code = httpGet(t, ts.URL+"/farms/"+genesis.DevFarm.String())
	assert.Equal(t, http.StatusOK, code)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/ledger", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://dapp.example")
	req.Header.Set("Accept-Encoding", "gzip")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "https://dapp.example", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "gzip", res.Header.Get("Content-Encoding"))
}

func TestMetricsMiddleware(t *testing.T) {
	l, logDB := newLedger(t)

	router := mux.NewRouter()
	farms.New(l, logDB, 10).Mount(router, "/farms")
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	router.Use(metricsMiddleware)
	ts := httptest.NewServer(router)
	defer ts.Close()

	httpGet(t, ts.URL+"/farms/"+genesis.DevFarm.String())
	httpGet(t, ts.URL+"/farms/0x12")
	httpGet(t, ts.URL+"/farms/"+genesis.DevMint.String())

	codes := make(map[string]float64)
	for _, m := range scrape(t, ts.URL)["gemfarm_api_request_count"].GetMetric() {
		labels := labelsOf(m)
		if labels["name"] != "farms_farm" {
			continue
		}
		assert.Equal(t, http.MethodGet, labels["method"])
		codes[labels["code"]] += m.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"200": 1, "400": 1, "404": 1}, codes)
}

func TestWebsocketMetrics(t *testing.T) {
	l, _ := newLedger(t)

	router := mux.NewRouter()
	subs := subscriptions.New(l, []string{"*"})
	subs.Mount(router, "/subscriptions")
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	router.Use(metricsMiddleware)
	ts := httptest.NewServer(router)
	defer func() {
		subs.Close()
		ts.Close()
	}()

	active := func() float64 {
		for _, m := range scrape(t, ts.URL)["gemfarm_api_active_websocket_count"].GetMetric() {
			if labelsOf(m)["subject"] == "flash" {
				return m.GetGauge().GetValue()
			}
		}
		return 0
	}

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/subscriptions/flash"
	conn1, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	conn2, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(2), active())

	conn1.Close()
	conn2.Close()
	assert.Eventually(t, func() bool { return active() == 0 }, 5*time.Second, 20*time.Millisecond)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewLogger(log.JSONHandler(&buf, nil))
	handler := RequestLoggerHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "test body", string(body))
		w.WriteHeader(http.StatusAccepted)
	}), logger)

	req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString("test body"))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusAccepted, recorder.Code)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "API Request", entry["msg"])
	assert.Equal(t, "/test", entry["uri"])
	assert.Equal(t, "test body", entry["body"])
	assert.Equal(t, float64(http.StatusAccepted), entry["status"])
}
