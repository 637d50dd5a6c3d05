// Package analysis 提供规划器消费的纯函数分类工具：
// 均线/VWAP/摆动高低点、趋势与结构分类、风险预算、到期日选择。
// 所有函数无 I/O、无共享状态，相同输入恒得相同输出。
package analysis

import (
	"github.com/markcheno/go-talib"

	"sarathi/internal/market"
)

// SMA 返回最近 period 根的简单均线值；数据不足时 ok=false。
func SMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	out := talib.Sma(values, period)
	if len(out) == 0 {
		return 0, false
	}
	return out[len(out)-1], true
}

// VWAP 用典型价 (H+L+C)/3 按量加权；总量为 0 时 ok=false。
func VWAP(candles []market.Candle) (float64, bool) {
	num := 0.0
	den := 0.0
	for _, c := range candles {
		tp := (c.High + c.Low + c.Close) / 3.0
		num += tp * c.Volume
		den += c.Volume
	}
	if den <= 0 {
		return 0, false
	}
	return num / den, true
}

// SwingHigh 返回最近 lookback 根内的最高价。
func SwingHigh(candles []market.Candle, lookback int) (float64, bool) {
	window := tail(candles, lookback)
	if len(window) == 0 {
		return 0, false
	}
	high := window[0].High
	for _, c := range window[1:] {
		if c.High > high {
			high = c.High
		}
	}
	return high, true
}

// SwingLow 返回最近 lookback 根内的最低价。
func SwingLow(candles []market.Candle, lookback int) (float64, bool) {
	window := tail(candles, lookback)
	if len(window) == 0 {
		return 0, false
	}
	low := window[0].Low
	for _, c := range window[1:] {
		if c.Low < low {
			low = c.Low
		}
	}
	return low, true
}

func tail(candles []market.Candle, n int) []market.Candle {
	if n <= 0 || len(candles) == 0 {
		return nil
	}
	if len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}
