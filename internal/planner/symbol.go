package planner

import (
	"strings"
	"time"
)

func ymd(t time.Time) string { return t.Format("2006-01-02") }

// 提取候选标的时跳过的常见词。
var symbolStopWords = map[string]bool{
	"CAN": true, "I": true, "BUY": true, "TODAY": true, "PLEASE": true,
	"PRICE": true, "QUOTE": true, "ANALYZE": true, "ANALYSIS": true,
	"SWING": true, "INTRADAY": true, "SCALP": true, "OPTION": true,
	"OPTIONS": true, "CE": true, "PE": true, "CALL": true, "PUT": true,
	"GOOD": true, "FOR": true, "IS": true, "THE": true, "A": true,
	"OF": true, "TO": true,
}

// ExtractSymbolGuess 从自由文本里提取一个可能的标的代码。
// 没有足够把握时返回空串，由规划器转去追问用户——绝不瞎猜。
func ExtractSymbolGuess(query string) string {
	q := strings.TrimSpace(query)
	if q == "" {
		return ""
	}

	// 常见指数/多词名称的快速通道。
	upper := strings.ToUpper(q)
	if strings.Contains(upper, "BANKNIFTY") || strings.Contains(upper, "BANK NIFTY") {
		return "BANKNIFTY"
	}
	if strings.Contains(upper, "NIFTY") {
		return "NIFTY"
	}
	if strings.Contains(upper, "SENSEX") {
		return "SENSEX"
	}

	// 否则取第一个非停用词的字母 token（如 RELIANCE、TCS、INFY）。
	var tokens []string
	var cur strings.Builder
	for _, ch := range upper {
		if ch >= 'A' && ch <= 'Z' {
			cur.WriteRune(ch)
			continue
		}
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}

	for _, tok := range tokens {
		if len(tok) >= 3 && !symbolStopWords[tok] {
			return tok
		}
	}
	return ""
}

// IsIndexSymbol 判断标的是否为指数。
func IsIndexSymbol(symbol string) bool {
	u := strings.ToUpper(strings.TrimSpace(symbol))
	switch u {
	case "NIFTY", "BANKNIFTY", "SENSEX":
		return true
	}
	return strings.Contains(u, "NIFTY") || strings.Contains(u, "SENSEX")
}
