package planner

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sarathi/internal/analysis"
	"sarathi/internal/market"
	"sarathi/internal/pkg/maputil"
	"sarathi/internal/tools"
)

// SwingBuyPlanner 严格串行的现货波段买入规划器。
// 用日线验证高周期趋势、推导保守的入场/止损/目标，
// 并按账户风险预算确定仓位。每一步都可能让整次运行提前终止。
type SwingBuyPlanner struct {
	Tools tools.Caller
	Now   func() time.Time
}

func (p *SwingBuyPlanner) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Run 执行 S1–S7 规划序列并返回唯一终态结果。
func (p *SwingBuyPlanner) Run(ctx context.Context, query string, account map[string]any) Result {
	res := p.run(ctx, query, account)
	res.TraceID = uuid.NewString()
	return res
}

func (p *SwingBuyPlanner) run(ctx context.Context, query string, account map[string]any) Result {
	state := &State{}

	// S1 — 解析意图
	symbol := ExtractSymbolGuess(query)
	if symbol == "" {
		return askUser(state,
			"Which stock symbol should I analyze for swing buying (e.g., RELIANCE, TCS, INFY)?",
			"symbol")
	}
	state.Intent = map[string]any{"symbol": symbol, "trade_type": string(IntentSwingBuy)}

	// S2 — 解析标的
	inst, res := resolveInstrument(ctx, p.Tools, state, symbol, "EQUITY", true)
	if res != nil {
		return *res
	}

	// S3 — 高周期趋势过滤（日线，6 个月）
	today := p.now()
	daily, err := p.Tools.Call(ctx, "get_daily_ohlcv", map[string]any{
		"security_id":      inst["security_id"],
		"exchange_segment": inst["exchange_segment"],
		"instrument_type":  "EQUITY",
		"from_date":        ymd(today.AddDate(0, 0, -180)),
		"to_date":          ymd(today),
	})
	if err != nil {
		return failed(state, "Failed to fetch daily OHLCV.", err.Error())
	}
	if !daily.Ok() {
		if daily.NeedsUser() {
			return askUser(state, askMessage(daily, "Missing information to fetch daily OHLCV."))
		}
		return failed(state, "Failed to fetch daily OHLCV.", daily.ErrMessage())
	}

	candles := market.ParseCandles(daily.Data())
	closes := market.Closes(candles)
	if len(closes) < 60 {
		return noTrade(state, "Not enough daily OHLCV data to validate a swing trend safely.")
	}

	s20, ok20 := analysis.SMA(closes, 20)
	s50, ok50 := analysis.SMA(closes, 50)
	if !ok20 || !ok50 {
		return noTrade(state, "Could not compute trend filters (insufficient data).")
	}
	last := closes[len(closes)-1]

	uptrend := s20 > s50 && last > s20
	trend := "NOT_UPTREND"
	if uptrend {
		trend = "UPTREND"
	}
	state.HTF = map[string]any{"trend": trend, "swing_allowed": uptrend}
	if !uptrend {
		return noTrade(state, "HTF trend filter failed (not in a clear uptrend). Swing buy is blocked.")
	}

	// S4/S5 — 形态 + 量能确认（最小化且确定性）：
	// 收盘价在 SMA20 上方 3% 以内视为回踩买点，否则按突破买点；
	// 最近 20 根的成交量总和必须非零。
	pullback := last <= s20*1.03
	volumeOK := recentVolumeSum(candles, 20) > 0
	setup := "BREAKOUT_BUY"
	if pullback {
		setup = "PULLBACK_BUY"
	}
	state.LTF = map[string]any{"setup_type": setup, "volume_confirmation": volumeOK}
	if !volumeOK {
		return noTrade(state, "Volume confirmation failed. Swing buy is blocked.")
	}

	// S6 — 风险与仓位（严格）
	budget, riskErr := analysis.RiskBudget(account)
	if riskErr != "" {
		return askUser(state, riskErr,
			"account_context.capital", "account_context.max_risk_per_trade")
	}

	stop, okStop := analysis.SwingLow(candles, 20)
	if !okStop {
		return noTrade(state, "Could not derive key levels from daily OHLCV.")
	}
	entry := last
	if stop >= entry {
		return noTrade(state, "Derived stop-loss is not below entry; cannot form a valid swing plan.")
	}
	riskPerShare := entry - stop

	// 2R 目标
	target := entry + 2.0*riskPerShare
	rr := (target - entry) / riskPerShare
	if rr < 2.0 {
		return noTrade(state, "RR < 2.0; swing buy is blocked by planner rules.")
	}

	qty := int(math.Floor(budget / riskPerShare))
	if qty <= 0 {
		return noTrade(state, "Risk budget is too small for even 1 share given the derived stop-loss.")
	}

	positionSize := "N/A"
	if capital, ok := maputil.Number(account, "capital"); ok && capital > 0 {
		pct := float64(qty) * entry / capital * 100.0
		positionSize = fmt.Sprintf("%.2f%% capital", pct)
	}

	state.Risk = map[string]any{
		"quantity":       qty,
		"risk_budget":    budget,
		"risk_per_share": riskPerShare,
		"rr_ratio":       rr,
	}

	// S7 — 最终建议
	decision := &Decision{
		TradeType:       string(IntentSwingBuy),
		Symbol:          symbol,
		EntryZone:       fmt.Sprintf("%.2f (market) ± 0.5%%", entry),
		StopLoss:        round2(stop),
		Target:          round2(target),
		HoldingPeriod:   "2-4 weeks",
		PositionSize:    positionSize,
		Quantity:        qty,
		Confidence:      0.7,
		TradePermission: "YES",
	}
	state.Decision = decision.AsMap()
	return Result{
		Action:   ActionDecision,
		Message:  "Swing buy plan generated.",
		Decision: decision,
		State:    state,
	}
}

func recentVolumeSum(candles []market.Candle, lookback int) float64 {
	start := len(candles) - lookback
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, c := range candles[start:] {
		sum += c.Volume
	}
	return sum
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
