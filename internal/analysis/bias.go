package analysis

import "sarathi/internal/market"

// Bias 高周期趋势分类。
type Bias string

const (
	BiasBullish Bias = "BULLISH"
	BiasBearish Bias = "BEARISH"
	BiasRange   Bias = "RANGE"
)

// Direction 趋势允许的交易方向。
type Direction string

const (
	DirectionCEOnly  Direction = "CE_ONLY"
	DirectionPEOnly  Direction = "PE_ONLY"
	DirectionNoTrade Direction = "NO_TRADE"
)

// Structure 低周期结构分类。
type Structure string

const (
	StructureBullish Structure = "BULLISH"
	StructureBearish Structure = "BEARISH"
	StructureNeutral Structure = "NEUTRAL"
)

// 分类所需的最少样本。不足时一律按"没有把握"处理。
const (
	minHTFCloses  = 60
	minLTFCandles = 30
	swingLookback = 20
)

// ClassifyHTFBias 用日线 SMA20/SMA50 判定高周期趋势。
// 数据不足 60 根时回退 (RANGE, NO_TRADE)：宁可不做，不赌方向。
func ClassifyHTFBias(daily []market.Candle) (Bias, Direction) {
	closes := market.Closes(daily)
	if len(closes) < minHTFCloses {
		return BiasRange, DirectionNoTrade
	}
	s20, ok20 := SMA(closes, 20)
	s50, ok50 := SMA(closes, 50)
	if !ok20 || !ok50 {
		return BiasRange, DirectionNoTrade
	}
	last := closes[len(closes)-1]
	switch {
	case s20 > s50 && last > s20:
		return BiasBullish, DirectionCEOnly
	case s20 < s50 && last < s20:
		return BiasBearish, DirectionPEOnly
	default:
		return BiasRange, DirectionNoTrade
	}
}

// ClassifyLTFStructure 用分钟线确认入场结构，返回 (结构, 是否允许入场)。
// 多头确认：收盘在 VWAP 上方且最近 20 根摆动高点不低于剔除最新一根后的摆动高点；
// 空头确认：收盘在 VWAP 下方。两个条件同时成立或都不成立时，
// 一律按 NEUTRAL 不允许入场——歧义永远向保守端收敛。
func ClassifyLTFStructure(intraday []market.Candle) (Structure, bool) {
	if len(intraday) < minLTFCandles {
		return StructureNeutral, false
	}
	vw, okVW := VWAP(intraday)
	lastClose := intraday[len(intraday)-1].Close

	swingH, okH := SwingHigh(intraday, swingLookback)
	prevSwingH, okPrev := SwingHigh(intraday[:len(intraday)-1], swingLookback)

	bullish := okVW && lastClose > vw && okH && okPrev && swingH >= prevSwingH
	bearish := okVW && lastClose < vw

	switch {
	case bullish && !bearish:
		return StructureBullish, true
	case bearish && !bullish:
		return StructureBearish, true
	default:
		return StructureNeutral, false
	}
}
