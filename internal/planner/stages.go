package planner

import (
	"context"
	"fmt"

	"sarathi/internal/pkg/maputil"
	"sarathi/internal/tools"
)

// askMessage 优先用远端给出的失败原因，为空时回退到本地文案。
func askMessage(res tools.Result, fallback string) string {
	if msg := res.ErrMessage(); msg != "" {
		return msg
	}
	return fallback
}

// resolveInstrument 执行共用的标的解析阶段（S2/O2）。
// forceType 为 true 时 instrument_type 固定取 instType（现货波段只做 EQUITY），
// 否则优先采用解析结果里的类型。解析失败或关键标识缺失时返回终态结果。
func resolveInstrument(ctx context.Context, caller tools.Caller, state *State, symbol, instType string, forceType bool) (map[string]any, *Result) {
	res, err := caller.Call(ctx, "find_instrument", map[string]any{
		"query":           symbol,
		"instrument_type": instType,
		"limit":           1,
	})
	if err != nil {
		r := failed(state, fmt.Sprintf("Could not resolve instrument for '%s'.", symbol), err.Error())
		return nil, &r
	}
	if !res.Ok() {
		r := noTrade(state, fmt.Sprintf("Could not resolve instrument for '%s': %s", symbol, res.ErrMessage()))
		return nil, &r
	}

	instruments := instrumentList(res)
	if len(instruments) == 0 {
		r := noTrade(state, fmt.Sprintf("Could not resolve instrument for '%s'.", symbol))
		return nil, &r
	}

	first, _ := instruments[0].(map[string]any)
	resolvedType := maputil.String(first, "instrument_type")
	if forceType || resolvedType == "" {
		resolvedType = instType
	}
	inst := map[string]any{
		"security_id":      maputil.String(first, "security_id"),
		"exchange_segment": maputil.String(first, "exchange_segment"),
		"instrument_type":  resolvedType,
	}
	state.Instrument = inst
	if maputil.String(inst, "security_id") == "" || maputil.String(inst, "exchange_segment") == "" {
		r := noTrade(state, "Instrument resolution returned incomplete data (missing security_id/exchange_segment).")
		return nil, &r
	}
	return inst, nil
}

// instrumentList 兼容两种返回形状：顶层 instruments 或 data.instruments（遗留）。
func instrumentList(res tools.Result) []any {
	if list := maputil.Slice(res, "instruments"); list != nil {
		return list
	}
	if data, ok := res.Data().(map[string]any); ok {
		return maputil.Slice(data, "instruments")
	}
	return nil
}
