package schema

import (
	"strings"

	"sarathi/internal/pkg/maputil"
)

// Resolver 根据 payload 中已有的判别字段在多个契约间做选择。
// 解析必须是纯函数，且歧义时选更严格的契约，绝不默认补判别字段。
type Resolver func(payload map[string]any) *Contract

// Source 工具契约来源：固定契约或 resolver 二选一。
type Source struct {
	Fixed   *Contract
	Resolve Resolver
}

// Contract 对给定 payload 求值出唯一契约。
func (s Source) Contract(payload map[string]any) *Contract {
	if s.Resolve != nil {
		return s.Resolve(payload)
	}
	return s.Fixed
}

// ResolveHistorical 处理遗留的 get_historical_data：同一工具名同时承载
// 日线与分钟线。interval 缺失时选择更严格的分钟线契约（interval 必填），
// 让 Guard 去追问用户，而不是悄悄按日线执行。
func ResolveHistorical(payload map[string]any) *Contract {
	if !maputil.Has(payload, "interval") {
		return IntradayOHLCV
	}
	if strings.EqualFold(maputil.String(payload, "interval"), "daily") {
		return historicalDaily
	}
	return IntradayOHLCV
}

// 遗留 get_historical_data 走日线时仍必须显式给出 interval（不做静默默认）。
var historicalDaily = Compose("historical_daily", DailyOHLCV, map[string]any{
	"type": "object",
	"properties": map[string]any{
		"interval": map[string]any{"type": "string", "enum": []any{"daily"}},
	},
	"required": []any{"interval"},
})

// toolContracts 是工具名到契约来源的固定表。
// 这里是决定"哪个 schema 守哪个工具"的唯一位置。
var toolContracts = map[string]Source{
	// 实时行情
	"get_quote":        {Fixed: MarketQuote},
	"get_market_quote": {Fixed: MarketQuote}, // legacy name

	// 显式命名的新工具
	"get_intraday_ohlcv": {Fixed: IntradayOHLCV},
	"get_daily_ohlcv":    {Fixed: DailyOHLCV},
	"get_expiry_list":    {Fixed: ExpiryList},

	// 期权链快照必须带 expiry_date
	"get_option_chain": {Fixed: OptionChainWithExpiry},

	// 遗留多态工具
	"get_historical_data": {Resolve: ResolveHistorical},
}

// ForTool 返回工具的契约；未登记的工具返回 (nil, false)。
func ForTool(toolName string, payload map[string]any) (*Contract, bool) {
	src, ok := toolContracts[toolName]
	if !ok {
		return nil, false
	}
	return src.Contract(payload), true
}

// HasResolver 判断工具契约是否由 resolver 产生（registry 覆盖时用于拒绝）。
func HasResolver(toolName string) bool {
	src, ok := toolContracts[toolName]
	return ok && src.Resolve != nil
}
