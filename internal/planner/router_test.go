package planner

import (
	"context"
	"testing"

	"sarathi/internal/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestClassifyIntent(t *testing.T) {
	assert.Equal(t, IntentSwingBuy, ClassifyIntent("swing buy RELIANCE"))
	assert.Equal(t, IntentSwingBuy, ClassifyIntent("positional entry in TCS over weeks"))
	assert.Equal(t, IntentOptionsBuying, ClassifyIntent("buy NIFTY call options"))
	assert.Equal(t, IntentOptionsBuying, ClassifyIntent("BANKNIFTY PE today"))
	// 波段关键词优先于期权关键词。
	assert.Equal(t, IntentSwingBuy, ClassifyIntent("swing trade with options hedge"))
	// 无法归类时落到低风险的现货路径。
	assert.Equal(t, IntentSwingBuy, ClassifyIntent("what should i do with INFY"))
}

func TestRun_DispatchesBySwingIntent(t *testing.T) {
	caller := new(MockToolCaller)
	caller.On("Call", mock.Anything, "find_instrument", mock.Anything).
		Return(instrumentResult(2885, "NSE_EQ", "EQUITY"), nil)
	caller.On("Call", mock.Anything, "get_daily_ohlcv", mock.Anything).
		Return(tools.Result{"success": true, "data": dailyUptrend(90)}, nil)

	res := Run(context.Background(), "swing buy RELIANCE", fullAccount(), caller)

	assert.Equal(t, ActionDecision, res.Action)
	assert.Equal(t, "SWING_BUY", res.State.Intent["trade_type"])
	assert.NotEmpty(t, res.TraceID)
}

func TestRun_DispatchesByOptionsIntent(t *testing.T) {
	res := Run(context.Background(), "call options please", fullAccount(), new(MockToolCaller))

	assert.Equal(t, ActionAskUser, res.Action)
	assert.Equal(t, []string{"underlying_symbol"}, res.MissingFields)
}

func TestExtractSymbolGuess(t *testing.T) {
	assert.Equal(t, "RELIANCE", ExtractSymbolGuess("swing buy RELIANCE"))
	assert.Equal(t, "NIFTY", ExtractSymbolGuess("buy nifty call options"))
	assert.Equal(t, "BANKNIFTY", ExtractSymbolGuess("bank nifty PE today"))
	assert.Equal(t, "SENSEX", ExtractSymbolGuess("sensex analysis please"))
	assert.Equal(t, "TCS", ExtractSymbolGuess("is TCS good for swing"))
	// 停用词与过短 token 不会被当成代码。
	assert.Equal(t, "", ExtractSymbolGuess("can i buy today please"))
	assert.Equal(t, "", ExtractSymbolGuess(""))
	assert.Equal(t, "", ExtractSymbolGuess("buy CE"))
}

func TestIsIndexSymbol(t *testing.T) {
	assert.True(t, IsIndexSymbol("NIFTY"))
	assert.True(t, IsIndexSymbol("banknifty"))
	assert.True(t, IsIndexSymbol("SENSEX"))
	assert.False(t, IsIndexSymbol("RELIANCE"))
	assert.False(t, IsIndexSymbol("TCS"))
}
