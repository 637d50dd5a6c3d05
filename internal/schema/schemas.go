package schema

// 中文说明：
// 本文件集中定义各工具共享的入参契约（JSON Schema 文档）。
// 契约刻意保持严格，工具之间复用同一份定义，不允许各自拷贝一份再漂移。

// DateYMDPattern 匹配 YYYY-MM-DD。
const DateYMDPattern = `^\d{4}-\d{2}-\d{2}$`

// ExchangeSegments 是本仓库用到的交易所分段。
// 注：券商文档存在 NSE_FNO / BSE_FNO / MCX_COMM 的拼写，本仓库历史上使用
// NSE_FO / BSE_FO / MCX_COM。两种拼写都接受，工具侧应输出 API 使用的规范值。
var ExchangeSegments = []any{
	"NSE_EQ",
	"BSE_EQ",
	"IDX_I",
	"NSE_FO",
	"BSE_FO",
	"MCX_COM",
	"NCDEX_COM",
	"NSE_FNO",
	"BSE_FNO",
	"MCX_COMM",
}

// InstrumentTypes 规范值 + 兼容别名。
var InstrumentTypes = []any{
	"EQUITY",
	"INDEX",
	"FUTURES",
	"OPTIONS",
	"FUT",
	"OPT",
}

var OptionTypes = []any{"CE", "PE"}

// IntradayIntervals 分钟级别可选值（字符串）。
var IntradayIntervals = []any{"1", "5", "15", "25", "60"}

// MarketQuote 行情快照：securities 为 exchange_segment -> security_id 列表。
var MarketQuote = NewContract("market_quote", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"securities": map[string]any{
			"type":          "object",
			"propertyNames": map[string]any{"type": "string", "enum": ExchangeSegments},
			"additionalProperties": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "integer"},
			},
		},
	},
	"required":             []any{"securities"},
	"additionalProperties": true,
})

// IntradayOHLCV 分钟级 K 线拉取。
var IntradayOHLCV = NewContract("intraday_ohlcv", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"security_id":      map[string]any{"type": []any{"string", "integer"}},
		"exchange_segment": map[string]any{"type": "string", "enum": ExchangeSegments},
		"instrument_type":  map[string]any{"type": "string", "enum": InstrumentTypes},
		"interval":         map[string]any{"type": "string", "enum": IntradayIntervals},
		"from_date":        map[string]any{"type": "string", "pattern": DateYMDPattern},
		"to_date":          map[string]any{"type": "string", "pattern": DateYMDPattern},
	},
	"required": []any{
		"security_id",
		"exchange_segment",
		"instrument_type",
		"interval",
		"from_date",
		"to_date",
	},
	"additionalProperties": true,
})

// DailyOHLCV 日线拉取。
var DailyOHLCV = NewContract("daily_ohlcv", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"security_id":      map[string]any{"type": []any{"string", "integer"}},
		"exchange_segment": map[string]any{"type": "string", "enum": ExchangeSegments},
		"instrument_type":  map[string]any{"type": "string", "enum": InstrumentTypes},
		"from_date":        map[string]any{"type": "string", "pattern": DateYMDPattern},
		"to_date":          map[string]any{"type": "string", "pattern": DateYMDPattern},
	},
	"required": []any{
		"security_id",
		"exchange_segment",
		"instrument_type",
		"from_date",
		"to_date",
	},
	"additionalProperties": true,
})

// OptionChainContext 期权链上下文（用于 expiry 发现等前置解析）。
var OptionChainContext = NewContract("option_chain_context", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"underlying_security_id": map[string]any{"type": []any{"string", "integer"}},
		"exchange_segment": map[string]any{
			"type": "string",
			"enum": []any{"IDX_I", "NSE_FO", "BSE_FO", "NSE_FNO", "BSE_FNO"},
		},
	},
	"required":             []any{"underlying_security_id", "exchange_segment"},
	"additionalProperties": true,
})

// OptionChainWithExpiry 具体的期权链快照必须带 expiry_date（券商 API 要求）。
var OptionChainWithExpiry = Compose("option_chain_with_expiry", OptionChainContext, map[string]any{
	"type": "object",
	"properties": map[string]any{
		"expiry_date": map[string]any{"type": "string", "pattern": DateYMDPattern},
	},
	"required": []any{"expiry_date"},
})

// ExpiryList 查询标的的可用到期日。
var ExpiryList = NewContract("expiry_list", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"underlying_security_id": map[string]any{"type": []any{"string", "integer"}},
		"exchange_segment":       map[string]any{"type": "string", "enum": ExchangeSegments},
	},
	"required":             []any{"underlying_security_id", "exchange_segment"},
	"additionalProperties": true,
})

// OptionContract 单个期权合约标识。
var OptionContract = NewContract("option_contract", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"security_id":      map[string]any{"type": []any{"string", "integer"}},
		"exchange_segment": map[string]any{"type": "string", "enum": ExchangeSegments},
		"option_type":      map[string]any{"type": "string", "enum": OptionTypes},
		"strike_price":     map[string]any{"type": "number"},
		"expiry_date":      map[string]any{"type": "string", "pattern": DateYMDPattern},
	},
	"required":             []any{"security_id", "exchange_segment"},
	"additionalProperties": true,
})
