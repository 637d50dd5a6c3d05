// Package instruments 维护 Dhan 证券主数据：按交易段下载、落地 SQLite、
// 建内存索引，供 find_instrument 工具做符号解析。
package instruments

import "strings"

// Instrument 是单条证券主数据（已归一化的字段子集）。
type Instrument struct {
	SecurityID       string  `json:"security_id"`
	SymbolName       string  `json:"symbol_name"`
	DisplayName      string  `json:"display_name"`
	ExchangeSegment  string  `json:"exchange_segment"`
	InstrumentType   string  `json:"instrument_type"`
	Series           string  `json:"series,omitempty"`
	LotSize          float64 `json:"lot_size,omitempty"`
	TickSize         float64 `json:"tick_size,omitempty"`
	ExpiryDate       string  `json:"expiry_date,omitempty"`
	StrikePrice      float64 `json:"strike_price,omitempty"`
	OptionType       string  `json:"option_type,omitempty"`
	UnderlyingSymbol string  `json:"underlying_symbol,omitempty"`
}

// indexSymbol 返回建索引用的符号：衍生品优先标的符号。
func (i Instrument) indexSymbol() string {
	if s := strings.TrimSpace(i.UnderlyingSymbol); s != "" {
		return s
	}
	return strings.TrimSpace(i.SymbolName)
}

// matches 报告该证券是否命中大写化后的查询串。
func (i Instrument) matches(upperQuery string, exact bool) bool {
	sym := strings.ToUpper(i.SymbolName)
	disp := strings.ToUpper(i.DisplayName)
	under := strings.ToUpper(i.UnderlyingSymbol)
	if exact {
		return sym == upperQuery || disp == upperQuery || under == upperQuery
	}
	return strings.Contains(sym, upperQuery) || strings.Contains(disp, upperQuery) || strings.Contains(under, upperQuery)
}
