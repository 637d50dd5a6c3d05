package planner

import (
	"context"
	"strings"
	"time"

	"sarathi/internal/tools"
)

// Intent 规划策略标识。
type Intent string

const (
	IntentSwingBuy      Intent = "SWING_BUY"
	IntentOptionsBuying Intent = "OPTIONS_BUYING"
)

var (
	swingKeywords   = []string{"swing", "weeks", "positional"}
	optionsKeywords = []string{"option", "options", "ce", "pe", "call", "put"}
)

// ClassifyIntent 用有序关键词把自由文本归类到策略。
// 两组关键词都不命中时默认 SWING_BUY：现货只买的路径风险更低，
// 把无法归类的请求导向低风险工作流而不是直接报错。
func ClassifyIntent(query string) Intent {
	q := strings.ToLower(query)
	for _, k := range swingKeywords {
		if strings.Contains(q, k) {
			return IntentSwingBuy
		}
	}
	for _, k := range optionsKeywords {
		if strings.Contains(q, k) {
			return IntentOptionsBuying
		}
	}
	return IntentSwingBuy
}

// Run 归类意图并执行对应的规划管道。
func Run(ctx context.Context, query string, account map[string]any, caller tools.Caller) Result {
	switch ClassifyIntent(query) {
	case IntentOptionsBuying:
		p := &OptionsBuyingPlanner{Tools: caller, Now: time.Now}
		return p.Run(ctx, query, account)
	default:
		p := &SwingBuyPlanner{Tools: caller, Now: time.Now}
		return p.Run(ctx, query, account)
	}
}
