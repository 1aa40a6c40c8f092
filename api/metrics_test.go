// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulearn/edu/metrics"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

func TestMetricsMiddleware(t *testing.T) {
	router := mux.NewRouter()
	router.Path("/probe/{id}").Methods(http.MethodGet).Name("GET /probe/{id}").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mux.Vars(r)["id"] == "missing" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	router.Use(metricsMiddleware)
	ts := httptest.NewServer(router)
	defer ts.Close()

	get := func(path string) []byte {
		res, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		defer res.Body.Close()
		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		return body
	}
	get("/probe/1")
	get("/probe/2")
	get("/probe/missing")

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(bytes.NewReader(get("/metrics")))
	require.NoError(t, err)

	counts := make(map[string]float64)
	for _, m := range families["edu_api_request_count"].GetMetric() {
		labels := make(map[string]string)
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		if labels["name"] == "GET /probe/{id}" {
			assert.Equal(t, http.MethodGet, labels["method"])
			counts[labels["code"]] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{"200": 2, "404": 1}, counts)
	assert.NotNil(t, families["edu_api_duration_ms"])
}
