package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCandles(t *testing.T) {
	raw := []any{
		map[string]any{
			"timestamp": "2026-08-28T09:15:00Z",
			"open":      100.0, "high": 102.0, "low": 99.0, "close": 101.0,
			"volume": 1500.0,
		},
		// 整数也按数字接受。
		map[string]any{"open": 101, "high": 103, "low": 100, "close": 102, "volume": 900},
		// 数字字符串同样接受。
		map[string]any{"open": "102", "high": "104", "low": "101", "close": "103"},
	}

	candles := ParseCandles(raw)
	assert.Len(t, candles, 3)
	assert.Equal(t, "2026-08-28T09:15:00Z", candles[0].Timestamp)
	assert.Equal(t, 101.0, candles[0].Close)
	assert.Equal(t, 102.0, candles[1].Close)
	assert.Equal(t, 103.0, candles[2].Close)
	// volume 缺省按 0。
	assert.Equal(t, 0.0, candles[2].Volume)
}

func TestParseCandles_SkipsMalformedEntries(t *testing.T) {
	raw := []any{
		map[string]any{"open": 100.0, "high": 102.0, "low": 99.0, "close": 101.0},
		map[string]any{"open": 100.0, "high": 102.0, "low": 99.0}, // 缺 close
		"not a map",
		map[string]any{"open": "abc", "high": 102.0, "low": 99.0, "close": 101.0},
	}
	candles := ParseCandles(raw)
	assert.Len(t, candles, 1)
}

func TestParseCandles_NonListInput(t *testing.T) {
	assert.Nil(t, ParseCandles(nil))
	assert.Nil(t, ParseCandles("oops"))
	assert.Nil(t, ParseCandles(map[string]any{"close": 1.0}))
}

func TestCloses(t *testing.T) {
	candles := []Candle{{Close: 1}, {Close: 2}, {Close: 3}}
	assert.Equal(t, []float64{1, 2, 3}, Closes(candles))
	assert.Empty(t, Closes(nil))
}
