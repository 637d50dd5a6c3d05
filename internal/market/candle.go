package market

import "sarathi/internal/pkg/convert"

// Candle 单根 OHLCV K 线。Timestamp 为交易所给定的字符串时间（原样保留）。
type Candle struct {
	Timestamp string  `json:"timestamp,omitempty"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// ParseCandles 把工具返回的 data 负载（[]any of map）转换成 Candle 序列。
// 单根解析失败时跳过该根而不是整体失败，与上游约定保持一致。
func ParseCandles(raw any) []Candle {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]Candle, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		o, okO := convert.Float64(m["open"])
		h, okH := convert.Float64(m["high"])
		l, okL := convert.Float64(m["low"])
		c, okC := convert.Float64(m["close"])
		if !okO || !okH || !okL || !okC {
			continue
		}
		vol, _ := convert.Float64(m["volume"])
		ts := ""
		if s, ok := m["timestamp"].(string); ok {
			ts = s
		}
		out = append(out, Candle{Timestamp: ts, Open: o, High: h, Low: l, Close: c, Volume: vol})
	}
	return out
}

// Closes 提取收盘价序列。
func Closes(candles []Candle) []float64 {
	out := make([]float64, 0, len(candles))
	for _, c := range candles {
		out = append(out, c.Close)
	}
	return out
}
