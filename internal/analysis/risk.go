package analysis

import (
	"github.com/shopspring/decimal"

	"sarathi/internal/pkg/maputil"
)

// RiskBudget 从账户上下文推导单笔风险预算。
// 期望输入：capital（正数）与 max_risk_per_trade（百分比，0.5 表示 0.5%）。
// 任何缺失/非数字/非正值都以提示消息报告，绝不默认补值。
// 返回 (预算金额, 提示消息)；消息非空即失败。
func RiskBudget(account map[string]any) (float64, string) {
	if !maputil.Has(account, "capital") {
		return 0, "I need account_context.capital to size risk."
	}
	if !maputil.Has(account, "max_risk_per_trade") {
		return 0, "I need account_context.max_risk_per_trade (as a % of capital) to size risk."
	}
	capital, okCap := maputil.Number(account, "capital")
	pct, okPct := maputil.Number(account, "max_risk_per_trade")
	if !okCap || !okPct {
		return 0, "account_context.capital and max_risk_per_trade must be numbers."
	}
	if capital <= 0 || pct <= 0 {
		return 0, "account_context.capital and max_risk_per_trade must be > 0."
	}
	budget := decimal.NewFromFloat(capital).
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromInt(100))
	return budget.InexactFloat64(), ""
}
