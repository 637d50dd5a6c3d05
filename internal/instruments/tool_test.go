package instruments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFindInstrumentTool_Run(t *testing.T) {
	tool := &FindInstrumentTool{Registry: seedRegistry()}

	res, err := tool.Run(context.Background(), map[string]any{
		"query":            "RELIANCE",
		"exchange_segment": "NSE_EQ",
		"limit":            5,
	})
	assert.NoError(t, err)
	assert.True(t, res.Ok())
	assert.Equal(t, 1, res["count"])

	instruments, _ := res["instruments"].([]any)
	if assert.Len(t, instruments, 1) {
		first, _ := instruments[0].(map[string]any)
		// security_id 以整数下发，供行情接口直接使用。
		assert.Equal(t, 2885, first["security_id"])
		assert.Equal(t, "NSE_EQ", first["exchange_segment"])
		assert.Equal(t, "RELIANCE", first["symbol_name"])
		assert.Equal(t, "Reliance Industries", first["display_name"])
		assert.Equal(t, "EQUITY", first["instrument_type"])
	}
}

func TestFindInstrumentTool_NoMatch(t *testing.T) {
	tool := &FindInstrumentTool{Registry: seedRegistry()}

	res, err := tool.Run(context.Background(), map[string]any{"query": "ZZZZZ"})
	assert.NoError(t, err)
	assert.False(t, res.Ok())
	assert.Contains(t, res.ErrMessage(), "No instrument matched")
}

func TestFindInstrumentTool_SkipsNonNumericSecurityID(t *testing.T) {
	r := NewRegistry(nil, nil, time.Hour)
	r.LoadSegment("NSE_EQ", []Instrument{
		{SecurityID: "bad-id", SymbolName: "BROKEN", ExchangeSegment: "NSE_EQ", InstrumentType: "EQUITY"},
	})
	tool := &FindInstrumentTool{Registry: r}

	res, err := tool.Run(context.Background(), map[string]any{"query": "BROKEN"})
	assert.NoError(t, err)
	assert.False(t, res.Ok())
}

func TestFindInstrumentTool_NilRegistry(t *testing.T) {
	tool := &FindInstrumentTool{}
	res, err := tool.Run(context.Background(), map[string]any{"query": "RELIANCE"})
	assert.NoError(t, err)
	assert.False(t, res.Ok())
}
