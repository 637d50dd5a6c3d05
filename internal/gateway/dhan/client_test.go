package dhan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	saconfig "sarathi/internal/config"

	"github.com/stretchr/testify/assert"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(saconfig.DhanConfig{
		BaseURL:        srv.URL,
		AccessToken:    "token-123",
		ClientID:       "client-456",
		TimeoutSeconds: 5,
	})
	assert.NoError(t, err)
	return c
}

func TestChartSeries_ToCandles(t *testing.T) {
	s := chartSeries{
		Open:      []float64{100, 101},
		High:      []float64{102, 103},
		Low:       []float64{99, 100},
		Close:     []float64{101, 102},
		Volume:    []float64{1500, 900},
		Timestamp: []float64{1756368000, 1756454400},
	}
	candles := s.toCandles()
	assert.Len(t, candles, 2)
	assert.Equal(t, 101.0, candles[0].Close)
	assert.Equal(t, 1500.0, candles[0].Volume)
	assert.Equal(t, "2025-08-28T08:00:00Z", candles[0].Timestamp)
}

func TestChartSeries_ToCandlesTruncatesToShortestColumn(t *testing.T) {
	s := chartSeries{
		Open:  []float64{100, 101, 102},
		High:  []float64{102, 103},
		Low:   []float64{99, 100, 101},
		Close: []float64{101, 102, 103},
	}
	candles := s.toCandles()
	// high 只有 2 个值，整体按最短列截断。
	assert.Len(t, candles, 2)
	assert.Equal(t, 0.0, candles[0].Volume)
	assert.Empty(t, candles[0].Timestamp)
}

func TestClient_HistoricalDaily(t *testing.T) {
	var gotPath, gotToken, gotClientID string
	var gotBody ChartRequest
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("access-token")
		gotClientID = r.Header.Get("client-id")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(chartSeries{
			Open: []float64{100}, High: []float64{102}, Low: []float64{99}, Close: []float64{101},
		})
	})

	candles, err := c.HistoricalDaily(context.Background(), ChartRequest{
		SecurityID:      "2885",
		ExchangeSegment: "NSE_EQ",
		Instrument:      "EQUITY",
		FromDate:        "2026-03-01",
		ToDate:          "2026-08-29",
	})
	assert.NoError(t, err)
	assert.Len(t, candles, 1)
	assert.Equal(t, "/v2/charts/historical", gotPath)
	assert.Equal(t, "token-123", gotToken)
	assert.Equal(t, "client-456", gotClientID)
	assert.Equal(t, "2885", gotBody.SecurityID)
	assert.Equal(t, "EQUITY", gotBody.Instrument)
}

func TestClient_IntradayPath(t *testing.T) {
	var gotPath string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(chartSeries{})
	})

	_, err := c.Intraday(context.Background(), ChartRequest{Interval: "5"})
	assert.NoError(t, err)
	assert.Equal(t, "/v2/charts/intraday", gotPath)
}

func TestClient_ExpiryListPayload(t *testing.T) {
	var gotBody map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"data":["2026-09-02","2026-09-30"],"status":"success"}`))
	})

	resp, err := c.ExpiryList(context.Background(), 13, "IDX_I")
	assert.NoError(t, err)
	// 官方字段就是大写驼峰。
	assert.Equal(t, 13.0, gotBody["UnderlyingScrip"])
	assert.Equal(t, "IDX_I", gotBody["UnderlyingSeg"])
	assert.NotNil(t, resp["data"])
}

func TestClient_BreakerOpensOnRepeatedServerErrors(t *testing.T) {
	var hits int
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	for i := 0; i < 5; i++ {
		_, err := c.HistoricalDaily(context.Background(), ChartRequest{})
		assert.Error(t, err)
	}
	assert.Equal(t, 5, hits)

	// 连续 5 次 5xx 后熔断打开，调用不再出网。
	_, err := c.HistoricalDaily(context.Background(), ChartRequest{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "熔断")
	assert.Equal(t, 5, hits)
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var hits int
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	for i := 0; i < 6; i++ {
		_, err := c.HistoricalDaily(context.Background(), ChartRequest{})
		assert.Error(t, err)
	}
	// 4xx 不计失败，每次调用都出网。
	assert.Equal(t, 6, hits)
}

func TestClient_ErrorBodySurfaced(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errorMessage":"invalid token"}`))
	})

	_, err := c.HistoricalDaily(context.Background(), ChartRequest{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}
