package planner

import (
	"context"
	"testing"
	"time"

	"sarathi/internal/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockToolCaller struct {
	mock.Mock
}

func (m *MockToolCaller) Call(ctx context.Context, tool string, args map[string]any) (tools.Result, error) {
	a := m.Called(ctx, tool, args)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).(tools.Result), a.Error(1)
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
}

func instrumentResult(securityID int, segment, instrumentType string) tools.Result {
	return tools.Result{
		"success": true,
		"instruments": []any{
			map[string]any{
				"security_id":      securityID,
				"exchange_segment": segment,
				"symbol_name":      "TEST",
				"instrument_type":  instrumentType,
			},
		},
		"count": 1,
	}
}

// dailyUptrend 构造 70 根日线：前 50 根收盘 80，中段 19 根收盘 95，
// 末根收盘 100；最后 20 根最低价固定为 stopLow。
// 满足 SMA20>SMA50 且 last>SMA20 的上升趋势判定。
func dailyUptrend(stopLow float64) []any {
	out := make([]any, 0, 70)
	add := func(close, low float64) {
		out = append(out, map[string]any{
			"timestamp": "2026-08-01T00:00:00Z",
			"open":      close, "high": close + 1, "low": low, "close": close,
			"volume": 1000.0,
		})
	}
	for i := 0; i < 50; i++ {
		add(80, 79)
	}
	for i := 0; i < 19; i++ {
		add(95, stopLow)
	}
	add(100, stopLow)
	return out
}

func dailyDowntrend() []any {
	out := make([]any, 0, 70)
	for i := 0; i < 70; i++ {
		close := 200.0 - float64(i)
		out = append(out, map[string]any{
			"open": close + 1, "high": close + 2, "low": close - 1, "close": close,
			"volume": 1000.0,
		})
	}
	return out
}

func fullAccount() map[string]any {
	return map[string]any{"capital": 100000.0, "max_risk_per_trade": 0.5}
}

func TestSwingBuy_GeneratesDecision(t *testing.T) {
	caller := new(MockToolCaller)
	caller.On("Call", mock.Anything, "find_instrument", mock.Anything).
		Return(instrumentResult(2885, "NSE_EQ", "EQUITY"), nil)
	caller.On("Call", mock.Anything, "get_daily_ohlcv", mock.Anything).
		Return(tools.Result{"success": true, "data": dailyUptrend(90)}, nil)

	p := &SwingBuyPlanner{Tools: caller, Now: fixedNow}
	res := p.Run(context.Background(), "swing buy RELIANCE", fullAccount())

	assert.Equal(t, ActionDecision, res.Action)
	assert.Equal(t, "Swing buy plan generated.", res.Message)
	assert.NotEmpty(t, res.TraceID)
	if assert.NotNil(t, res.Decision) {
		// entry=100, stop=90 -> 每股风险 10；预算 500 -> 数量 50；目标 2R=120。
		assert.Equal(t, 50, res.Decision.Quantity)
		assert.Equal(t, 90.0, res.Decision.StopLoss)
		assert.Equal(t, 120.0, res.Decision.Target)
		assert.Equal(t, "100.00 (market) ± 0.5%", res.Decision.EntryZone)
		assert.Equal(t, "5.00% capital", res.Decision.PositionSize)
		assert.Equal(t, "2-4 weeks", res.Decision.HoldingPeriod)
		assert.Equal(t, "YES", res.Decision.TradePermission)
	}
	assert.NotNil(t, res.State.Decision)
	caller.AssertExpectations(t)
}

func TestSwingBuy_AsksForSymbol(t *testing.T) {
	p := &SwingBuyPlanner{Tools: new(MockToolCaller), Now: fixedNow}
	res := p.Run(context.Background(), "can i buy today please", fullAccount())

	assert.Equal(t, ActionAskUser, res.Action)
	assert.Equal(t, []string{"symbol"}, res.MissingFields)
	assert.Contains(t, res.Message, "Which stock symbol")
}

func TestSwingBuy_AsksForAccountContext(t *testing.T) {
	caller := new(MockToolCaller)
	caller.On("Call", mock.Anything, "find_instrument", mock.Anything).
		Return(instrumentResult(2885, "NSE_EQ", "EQUITY"), nil)
	caller.On("Call", mock.Anything, "get_daily_ohlcv", mock.Anything).
		Return(tools.Result{"success": true, "data": dailyUptrend(90)}, nil)

	p := &SwingBuyPlanner{Tools: caller, Now: fixedNow}
	res := p.Run(context.Background(), "swing buy RELIANCE", map[string]any{})

	assert.Equal(t, ActionAskUser, res.Action)
	// 缺口必须同时点名两个字段，哪怕只缺其中一个。
	assert.Equal(t,
		[]string{"account_context.capital", "account_context.max_risk_per_trade"},
		res.MissingFields)
	assert.Equal(t, "I need account_context.capital to size risk.", res.Message)
}

func TestSwingBuy_InsufficientDailyData(t *testing.T) {
	short := dailyUptrend(90)[:25]
	caller := new(MockToolCaller)
	caller.On("Call", mock.Anything, "find_instrument", mock.Anything).
		Return(instrumentResult(2885, "NSE_EQ", "EQUITY"), nil)
	caller.On("Call", mock.Anything, "get_daily_ohlcv", mock.Anything).
		Return(tools.Result{"success": true, "data": short}, nil)

	p := &SwingBuyPlanner{Tools: caller, Now: fixedNow}
	res := p.Run(context.Background(), "swing buy RELIANCE", fullAccount())

	assert.Equal(t, ActionNoTrade, res.Action)
	assert.Equal(t, "Not enough daily OHLCV data to validate a swing trend safely.", res.Message)
	assert.Nil(t, res.Decision)
}

func TestSwingBuy_DowntrendBlocked(t *testing.T) {
	caller := new(MockToolCaller)
	caller.On("Call", mock.Anything, "find_instrument", mock.Anything).
		Return(instrumentResult(2885, "NSE_EQ", "EQUITY"), nil)
	caller.On("Call", mock.Anything, "get_daily_ohlcv", mock.Anything).
		Return(tools.Result{"success": true, "data": dailyDowntrend()}, nil)

	p := &SwingBuyPlanner{Tools: caller, Now: fixedNow}
	res := p.Run(context.Background(), "swing buy RELIANCE", fullAccount())

	assert.Equal(t, ActionNoTrade, res.Action)
	assert.Contains(t, res.Message, "HTF trend filter failed")
}

func TestSwingBuy_StopAboveEntryBlocked(t *testing.T) {
	caller := new(MockToolCaller)
	caller.On("Call", mock.Anything, "find_instrument", mock.Anything).
		Return(instrumentResult(2885, "NSE_EQ", "EQUITY"), nil)
	// 最近 20 根最低价 150 >= 入场价 100：无法构成有效止损。
	caller.On("Call", mock.Anything, "get_daily_ohlcv", mock.Anything).
		Return(tools.Result{"success": true, "data": dailyUptrend(150)}, nil)

	p := &SwingBuyPlanner{Tools: caller, Now: fixedNow}
	res := p.Run(context.Background(), "swing buy RELIANCE", fullAccount())

	assert.Equal(t, ActionNoTrade, res.Action)
	assert.Contains(t, res.Message, "stop-loss is not below entry")
	assert.Nil(t, res.Decision)
}

func TestSwingBuy_BudgetTooSmall(t *testing.T) {
	caller := new(MockToolCaller)
	caller.On("Call", mock.Anything, "find_instrument", mock.Anything).
		Return(instrumentResult(2885, "NSE_EQ", "EQUITY"), nil)
	caller.On("Call", mock.Anything, "get_daily_ohlcv", mock.Anything).
		Return(tools.Result{"success": true, "data": dailyUptrend(90)}, nil)

	p := &SwingBuyPlanner{Tools: caller, Now: fixedNow}
	// 预算 = 100 * 0.5% = 0.5，买不起 1 股（每股风险 10）。
	res := p.Run(context.Background(), "swing buy RELIANCE", map[string]any{
		"capital": 100.0, "max_risk_per_trade": 0.5,
	})

	assert.Equal(t, ActionNoTrade, res.Action)
	assert.Contains(t, res.Message, "Risk budget is too small")
}

func TestSwingBuy_InstrumentResolutionFailed(t *testing.T) {
	caller := new(MockToolCaller)
	caller.On("Call", mock.Anything, "find_instrument", mock.Anything).
		Return(tools.Fail("No instrument matched %q.", "ZZZZZ"), nil)

	p := &SwingBuyPlanner{Tools: caller, Now: fixedNow}
	res := p.Run(context.Background(), "swing buy ZZZZZ", fullAccount())

	assert.Equal(t, ActionNoTrade, res.Action)
	assert.Contains(t, res.Message, "Could not resolve instrument for 'ZZZZZ'")
}

func TestSwingBuy_DailyFetchErrorIsTerminal(t *testing.T) {
	caller := new(MockToolCaller)
	caller.On("Call", mock.Anything, "find_instrument", mock.Anything).
		Return(instrumentResult(2885, "NSE_EQ", "EQUITY"), nil)
	caller.On("Call", mock.Anything, "get_daily_ohlcv", mock.Anything).
		Return(tools.Fail("dhan 返回错误: 502 Bad Gateway"), nil)

	p := &SwingBuyPlanner{Tools: caller, Now: fixedNow}
	res := p.Run(context.Background(), "swing buy RELIANCE", fullAccount())

	assert.Equal(t, ActionError, res.Action)
	assert.Equal(t, "Failed to fetch daily OHLCV.", res.Message)
	assert.NotEmpty(t, res.Error)
}

func TestSwingBuy_GuardBlockBecomesAskUser(t *testing.T) {
	caller := new(MockToolCaller)
	caller.On("Call", mock.Anything, "find_instrument", mock.Anything).
		Return(instrumentResult(2885, "NSE_EQ", "EQUITY"), nil)
	caller.On("Call", mock.Anything, "get_daily_ohlcv", mock.Anything).
		Return(tools.Result{
			"success":        false,
			"action":         "ASK_USER",
			"error":          "I need from_date, to_date to proceed.",
			"missing_fields": []string{"from_date", "to_date"},
		}, nil)

	p := &SwingBuyPlanner{Tools: caller, Now: fixedNow}
	res := p.Run(context.Background(), "swing buy RELIANCE", fullAccount())

	assert.Equal(t, ActionAskUser, res.Action)
	assert.Equal(t, "I need from_date, to_date to proceed.", res.Message)
}
