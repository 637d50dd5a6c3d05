// Package planner 实现确定性的交易规划内核：
// 根据自由文本请求与账户风险画像，决定 "给出交易建议 / 拒绝交易 /
// 追问用户 / 报告失败" 四者之一。内核只读，绝不触发下单。
package planner

// Action 是一次规划的终态动作，四个取值构成封闭枚举。
type Action string

const (
	ActionAskUser  Action = "ASK_USER"
	ActionNoTrade  Action = "NO_TRADE"
	ActionDecision Action = "DECISION"
	ActionError    Action = "ERROR"
)

// State 是单次规划运行的累积器：各阶段成功后只追加字段，
// 后续无关阶段不得覆盖或删除。某字段存在即意味着对应阶段已成功。
// 运行结束随结果快照返回，不跨请求持久（审计落库由外层负责）。
type State struct {
	Intent         map[string]any `json:"intent,omitempty"`
	Instrument     map[string]any `json:"instrument,omitempty"`
	HTF            map[string]any `json:"htf,omitempty"`
	LTF            map[string]any `json:"ltf,omitempty"`
	OptionChain    map[string]any `json:"option_chain,omitempty"`
	SelectedOption map[string]any `json:"selected_option,omitempty"`
	Risk           map[string]any `json:"risk,omitempty"`
	Decision       map[string]any `json:"decision,omitempty"`
}

// Decision 是结构化的交易建议，仅在 action=DECISION 时出现。
type Decision struct {
	TradeType       string  `json:"trade_type"`
	Symbol          string  `json:"symbol"`
	EntryZone       string  `json:"entry_zone"`
	StopLoss        float64 `json:"stop_loss"`
	Target          float64 `json:"target"`
	HoldingPeriod   string  `json:"holding_period"`
	PositionSize    string  `json:"position_size"`
	Quantity        int     `json:"quantity"`
	Confidence      float64 `json:"confidence"`
	TradePermission string  `json:"trade_permission"`
}

// AsMap 供 State.Decision 快照使用。
func (d *Decision) AsMap() map[string]any {
	if d == nil {
		return nil
	}
	return map[string]any{
		"trade_type":       d.TradeType,
		"symbol":           d.Symbol,
		"entry_zone":       d.EntryZone,
		"stop_loss":        d.StopLoss,
		"target":           d.Target,
		"holding_period":   d.HoldingPeriod,
		"position_size":    d.PositionSize,
		"quantity":         d.Quantity,
		"confidence":       d.Confidence,
		"trade_permission": d.TradePermission,
	}
}

// Result 是规划运行的唯一出口。不变量：action 恰好一个；
// missing_fields 仅在 ASK_USER 下非空；decision 与 error 互斥。
type Result struct {
	Action        Action    `json:"action"`
	Message       string    `json:"message"`
	State         *State    `json:"state"`
	MissingFields []string  `json:"missing_fields,omitempty"`
	Error         string    `json:"error,omitempty"`
	Decision      *Decision `json:"decision,omitempty"`
	TraceID       string    `json:"trace_id,omitempty"`
}

func askUser(state *State, message string, missing ...string) Result {
	return Result{Action: ActionAskUser, Message: message, MissingFields: missing, State: state}
}

func noTrade(state *State, message string) Result {
	return Result{Action: ActionNoTrade, Message: message, State: state}
}

func failed(state *State, message, errMsg string) Result {
	return Result{Action: ActionError, Message: message, Error: errMsg, State: state}
}
