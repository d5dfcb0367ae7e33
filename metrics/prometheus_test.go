// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func sumCounters(mf *dto.MetricFamily) (sum float64) {
	for _, m := range mf.Metric {
		sum += m.GetCounter().GetValue()
	}
	return
}

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()

	gems := Counter("test_gems_count")
	results := CounterVec("test_withdraw_count", []string{"result"})
	duration := Histogram("test_withdraw_duration_us", BucketMicros)
	changes := HistogramVec("test_commit_changes", []string{"kind"}, BucketChanges)
	staked := Gauge("test_gems_staked")
	sockets := GaugeVec("test_sockets", []string{"subject"})

	for i := range 10 {
		gems.Add(int64(i))
		// same meter on every lookup
		Counter("test_gems_count").Add(1)
		duration.Observe(int64(i * 100))
	}
	results.AddWithLabel(3, map[string]string{"result": "ok"})
	results.AddWithLabel(2, map[string]string{"result": "custody fault"})
	changes.ObserveWithLabels(4, map[string]string{"kind": "flash"})
	changes.ObserveWithLabels(6, map[string]string{"kind": "genesis"})
	staked.Set(400)
	staked.Add(10)
	sockets.SetWithLabel(2, map[string]string{"subject": "flash"})
	sockets.AddWithLabel(-1, map[string]string{"subject": "flash"})

	mfs := gather(t)
	assert.Equal(t, float64(45+10), mfs["gemfarm_test_gems_count"].Metric[0].GetCounter().GetValue())
	assert.Equal(t, float64(5), sumCounters(mfs["gemfarm_test_withdraw_count"]))
	assert.Len(t, mfs["gemfarm_test_withdraw_count"].Metric, 2)

	hist := mfs["gemfarm_test_withdraw_duration_us"].Metric[0].GetHistogram()
	assert.Equal(t, uint64(10), hist.GetSampleCount())
	assert.Equal(t, float64(4500), hist.GetSampleSum())

	var changesSum float64
	for _, m := range mfs["gemfarm_test_commit_changes"].Metric {
		changesSum += m.GetHistogram().GetSampleSum()
	}
	assert.Equal(t, float64(10), changesSum)

	assert.Equal(t, float64(410), mfs["gemfarm_test_gems_staked"].Metric[0].GetGauge().GetValue())
	assert.Equal(t, float64(1), mfs["gemfarm_test_sockets"].Metric[0].GetGauge().GetValue())

	rec := httptest.NewRecorder()
	HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gemfarm_test_gems_staked 410")
}

func TestLazyLoading(t *testing.T) {
	metrics = defaultNoopMetrics()

	for _, a := range []any{
		Gauge("noopGauge"),
		GaugeVec("noopGauge", nil),
		Counter("noopCounter"),
		CounterVec("noopCounter", nil),
		Histogram("noopHist", nil),
		HistogramVec("noopHist", nil, nil),
	} {
		require.IsType(t, &noopMeters{}, a)
	}

	lazyGauge := LazyLoadGauge("lazyGauge")
	lazyGaugeVec := LazyLoadGaugeVec("lazyGaugeVec", nil)
	lazyCounter := LazyLoadCounter("lazyCounter")
	lazyCounterVec := LazyLoadCounterVec("lazyCounterVec", nil)
	lazyHistogram := LazyLoadHistogram("lazyHistogram", nil)
	lazyHistogramVec := LazyLoadHistogramVec("lazyHistogramVec", nil, nil)

	// meters resolved after initialization are backed by prometheus
	InitializePrometheusMetrics()

	require.IsType(t, &promGaugeMeter{}, lazyGauge())
	require.IsType(t, &promGaugeVecMeter{}, lazyGaugeVec())
	require.IsType(t, &promCountMeter{}, lazyCounter())
	require.IsType(t, &promCountVecMeter{}, lazyCounterVec())
	require.IsType(t, &promHistogramMeter{}, lazyHistogram())
	require.IsType(t, &promHistogramVecMeter{}, lazyHistogramVec())
}
