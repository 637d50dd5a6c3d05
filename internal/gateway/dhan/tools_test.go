package dhan

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSecurities(t *testing.T) {
	out := parseSecurities(map[string]any{
		"NSE_EQ": []any{11536.0, "2885", 13},
		"IDX_I":  []any{},
		"BAD":    "not a list",
	})
	assert.Equal(t, map[string][]int{"NSE_EQ": {11536, 2885, 13}}, out)
	assert.Nil(t, parseSecurities(nil))
}

func TestFlattenQuotes(t *testing.T) {
	data := map[string]any{
		"NSE_EQ": map[string]any{
			"11536": map[string]any{
				"last_price": 4150.5,
				"ohlc":       map[string]any{"open": 4100.0},
			},
		},
	}
	quotes := flattenQuotes(data)
	assert.Len(t, quotes, 1)
	first, _ := quotes[0].(map[string]any)
	assert.Equal(t, "NSE_EQ", first["exchange_segment"])
	assert.Equal(t, "11536", first["security_id"])
	assert.Equal(t, 4150.5, first["ltp"])
	assert.NotNil(t, first["ohlc"])

	assert.Nil(t, flattenQuotes(nil))
	assert.Nil(t, flattenQuotes("oops"))
}

func TestCandlesPayloadRoundTrip(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"open":[100],"high":[102],"low":[99],"close":[101],"volume":[1500],"timestamp":[1756368000]}`))
	})
	tool := &dailyOHLCVTool{client: c}

	res, err := tool.Run(context.Background(), map[string]any{
		"security_id":      "2885",
		"exchange_segment": "NSE_EQ",
		"instrument_type":  "EQUITY",
		"from_date":        "2026-03-01",
		"to_date":          "2026-08-29",
	})
	assert.NoError(t, err)
	assert.True(t, res.Ok())

	data, _ := res.Data().([]any)
	if assert.Len(t, data, 1) {
		bar, _ := data[0].(map[string]any)
		assert.Equal(t, 101.0, bar["close"])
		assert.Equal(t, 1500.0, bar["volume"])
	}
}

func TestHistoricalDataToolRoutesByInterval(t *testing.T) {
	var gotPaths []string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.Path)
		_, _ = w.Write([]byte(`{"open":[],"high":[],"low":[],"close":[]}`))
	})
	tool := &historicalDataTool{client: c}

	res, err := tool.Run(context.Background(), map[string]any{"interval": "daily"})
	assert.NoError(t, err)
	assert.Equal(t, "daily", res["interval"])

	res, err = tool.Run(context.Background(), map[string]any{"interval": "5"})
	assert.NoError(t, err)
	assert.Equal(t, "5", res["interval"])

	assert.Equal(t, []string{"/v2/charts/historical", "/v2/charts/intraday"}, gotPaths)
}

func TestQuoteToolRejectsEmptySecurities(t *testing.T) {
	tool := &quoteTool{client: &Client{}}
	res, err := tool.Run(context.Background(), map[string]any{})
	assert.NoError(t, err)
	assert.False(t, res.Ok())
}

func TestToolErrorsBecomeFailResults(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	tool := &expiryListTool{client: c}

	res, err := tool.Run(context.Background(), map[string]any{
		"underlying_security_id": 13,
		"exchange_segment":       "IDX_I",
	})
	assert.NoError(t, err)
	assert.False(t, res.Ok())
	assert.NotEmpty(t, res.ErrMessage())
}
