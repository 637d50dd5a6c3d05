package dhan

import (
	"context"

	"sarathi/internal/market"
	"sarathi/internal/pkg/convert"
	"sarathi/internal/pkg/maputil"
	"sarathi/internal/tools"
)

// RegisterTools 把所有行情类只读工具挂到注册表。
// find_instrument 不在此处：证券主数据由 instruments 包提供。
func RegisterTools(reg *tools.Registry, client *Client) {
	if reg == nil || client == nil {
		return
	}
	reg.Register(&quoteTool{client: client})
	reg.Register(&dailyOHLCVTool{client: client})
	reg.Register(&intradayOHLCVTool{client: client})
	reg.Register(&expiryListTool{client: client})
	reg.Register(&optionChainTool{client: client})
	reg.Register(&historicalDataTool{client: client})
}

// candlesPayload 把 K 线序列转成跨包约定的 []any of map 负载。
func candlesPayload(candles []market.Candle) []any {
	out := make([]any, 0, len(candles))
	for _, c := range candles {
		out = append(out, map[string]any{
			"timestamp": c.Timestamp,
			"open":      c.Open,
			"high":      c.High,
			"low":       c.Low,
			"close":     c.Close,
			"volume":    c.Volume,
		})
	}
	return out
}

func chartRequestFromArgs(args map[string]any) ChartRequest {
	return ChartRequest{
		SecurityID:      maputil.String(args, "security_id"),
		ExchangeSegment: maputil.String(args, "exchange_segment"),
		Instrument:      maputil.String(args, "instrument_type"),
		FromDate:        maputil.String(args, "from_date"),
		ToDate:          maputil.String(args, "to_date"),
	}
}

type dailyOHLCVTool struct {
	client *Client
}

func (t *dailyOHLCVTool) Name() string { return "get_daily_ohlcv" }

func (t *dailyOHLCVTool) Description() string {
	return "Fetch daily OHLCV candles for a security over a date range."
}

func (t *dailyOHLCVTool) Run(ctx context.Context, args map[string]any) (tools.Result, error) {
	candles, err := t.client.HistoricalDaily(ctx, chartRequestFromArgs(args))
	if err != nil {
		return tools.Fail("%s", err.Error()), nil
	}
	return tools.Result{"success": true, "data": candlesPayload(candles)}, nil
}

type intradayOHLCVTool struct {
	client *Client
}

func (t *intradayOHLCVTool) Name() string { return "get_intraday_ohlcv" }

func (t *intradayOHLCVTool) Description() string {
	return "Fetch intraday OHLCV candles (1/5/15/25/60 minute) for a security."
}

func (t *intradayOHLCVTool) Run(ctx context.Context, args map[string]any) (tools.Result, error) {
	req := chartRequestFromArgs(args)
	req.Interval = maputil.String(args, "interval")
	candles, err := t.client.Intraday(ctx, req)
	if err != nil {
		return tools.Fail("%s", err.Error()), nil
	}
	return tools.Result{
		"success":  true,
		"data":     candlesPayload(candles),
		"interval": req.Interval,
	}, nil
}

// historicalDataTool 是遗留的合并入口：按 interval 分流到日线/分钟线。
type historicalDataTool struct {
	client *Client
}

func (t *historicalDataTool) Name() string { return "get_historical_data" }

func (t *historicalDataTool) Description() string {
	return "Legacy combined candle fetch; interval \"daily\" routes to daily bars, minute values to intraday."
}

func (t *historicalDataTool) Run(ctx context.Context, args map[string]any) (tools.Result, error) {
	req := chartRequestFromArgs(args)
	interval := maputil.String(args, "interval")
	if interval == "" || interval == "daily" {
		candles, err := t.client.HistoricalDaily(ctx, req)
		if err != nil {
			return tools.Fail("%s", err.Error()), nil
		}
		return tools.Result{"success": true, "data": candlesPayload(candles), "interval": "daily"}, nil
	}
	req.Interval = interval
	candles, err := t.client.Intraday(ctx, req)
	if err != nil {
		return tools.Fail("%s", err.Error()), nil
	}
	return tools.Result{"success": true, "data": candlesPayload(candles), "interval": interval}, nil
}

type expiryListTool struct {
	client *Client
}

func (t *expiryListTool) Name() string { return "get_expiry_list" }

func (t *expiryListTool) Description() string {
	return "List option expiry dates (YYYY-MM-DD) for an underlying."
}

func (t *expiryListTool) Run(ctx context.Context, args map[string]any) (tools.Result, error) {
	scrip := maputil.Int(args, "underlying_security_id")
	seg := maputil.String(args, "exchange_segment")
	resp, err := t.client.ExpiryList(ctx, scrip, seg)
	if err != nil {
		return tools.Fail("%s", err.Error()), nil
	}
	return tools.Result{"success": true, "data": resp["data"]}, nil
}

type optionChainTool struct {
	client *Client
}

func (t *optionChainTool) Name() string { return "get_option_chain" }

func (t *optionChainTool) Description() string {
	return "Fetch the option chain snapshot for an underlying and expiry."
}

func (t *optionChainTool) Run(ctx context.Context, args map[string]any) (tools.Result, error) {
	scrip := maputil.Int(args, "underlying_security_id")
	seg := maputil.String(args, "exchange_segment")
	expiry := maputil.String(args, "expiry_date")
	resp, err := t.client.OptionChain(ctx, scrip, seg, expiry)
	if err != nil {
		return tools.Fail("%s", err.Error()), nil
	}
	return tools.Result{"success": true, "data": resp["data"]}, nil
}

type quoteTool struct {
	client *Client
}

func (t *quoteTool) Name() string { return "get_quote" }

func (t *quoteTool) Description() string {
	return "Fetch OHLC market quotes for securities grouped by exchange segment."
}

func (t *quoteTool) Run(ctx context.Context, args map[string]any) (tools.Result, error) {
	securities := parseSecurities(maputil.Map(args, "securities"))
	if len(securities) == 0 {
		return tools.Fail("securities 不能为空"), nil
	}
	resp, err := t.client.MarketQuote(ctx, securities)
	if err != nil {
		return tools.Fail("%s", err.Error()), nil
	}
	return tools.Result{
		"success": true,
		"data":    resp["data"],
		"quotes":  flattenQuotes(resp["data"]),
	}, nil
}

func parseSecurities(raw map[string]any) map[string][]int {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string][]int, len(raw))
	for segment, v := range raw {
		ids, ok := v.([]any)
		if !ok {
			continue
		}
		parsed := make([]int, 0, len(ids))
		for _, id := range ids {
			if f, ok := convert.Float64(id); ok {
				parsed = append(parsed, int(f))
			}
		}
		if len(parsed) > 0 {
			out[segment] = parsed
		}
	}
	return out
}

// flattenQuotes 把 Dhan 的 {segment: {id: {last_price,...}}} 嵌套
// 拉平成带 ltp 的报价列表，方便上游直接取首个。
func flattenQuotes(data any) []any {
	root, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	var out []any
	for segment, v := range root {
		bySecurity, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for secID, q := range bySecurity {
			quote, ok := q.(map[string]any)
			if !ok {
				continue
			}
			ltp, _ := convert.Float64(quote["last_price"])
			out = append(out, map[string]any{
				"exchange_segment": segment,
				"security_id":      secID,
				"ltp":              ltp,
				"ohlc":             quote["ohlc"],
			})
		}
	}
	return out
}
