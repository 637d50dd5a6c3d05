package instruments

import (
	"context"
	"strconv"

	"sarathi/internal/pkg/maputil"
	"sarathi/internal/tools"
)

// FindInstrumentTool 把 Registry 暴露成 find_instrument 工具。
type FindInstrumentTool struct {
	Registry *Registry
}

func (t *FindInstrumentTool) Name() string { return "find_instrument" }

func (t *FindInstrumentTool) Description() string {
	return "Search instruments by symbol, trading symbol or underlying symbol; returns security_id and exchange_segment for downstream calls."
}

// Run 执行符号解析。security_id 无法转成整数的记录会被剔除，
// 调用方拿到的每条结果都可直接用于行情接口。
func (t *FindInstrumentTool) Run(ctx context.Context, args map[string]any) (tools.Result, error) {
	if t.Registry == nil {
		return tools.Fail("instrument registry 未初始化"), nil
	}
	query := maputil.String(args, "query")
	segment := maputil.String(args, "exchange_segment")
	instrumentType := maputil.String(args, "instrument_type")
	limit := maputil.Int(args, "limit")
	exact, _ := args["exact_match"].(bool)

	matches := t.Registry.Search(query, segment, instrumentType, limit, exact)
	formatted := make([]any, 0, len(matches))
	for _, inst := range matches {
		secID, err := strconv.Atoi(inst.SecurityID)
		if err != nil || inst.ExchangeSegment == "" {
			continue
		}
		formatted = append(formatted, map[string]any{
			"security_id":      secID,
			"exchange_segment": inst.ExchangeSegment,
			"symbol_name":      orNA(inst.SymbolName),
			"display_name":     orNA(firstNonEmpty(inst.DisplayName, inst.SymbolName)),
			"instrument_type":  firstNonEmpty(inst.InstrumentType, "UNKNOWN"),
			"lot_size":         inst.LotSize,
		})
	}
	if len(formatted) == 0 {
		return tools.Fail("No instrument matched %q.", query), nil
	}
	return tools.Result{
		"success":     true,
		"instruments": formatted,
		"count":       len(formatted),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
