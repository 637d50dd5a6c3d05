// Package guard 在任何远端工具调用发生之前做前置校验。
// 必填信息缺失或参数非法时调用被拦截，由上层去追问用户。
package guard

import (
	"fmt"
	"strings"

	"sarathi/internal/schema"
)

// Action 是 Guard 的裁决结果。
type Action string

const (
	// Proceed 允许执行工具调用。
	Proceed Action = "PROCEED"
	// AskUser 缺少必填字段，调用不得执行。
	AskUser Action = "ASK_USER"
	// AskUserInvalid 字段非法，调用不得执行。
	AskUserInvalid Action = "ASK_USER_INVALID"
)

// 失败明细最多保留这么多条，保证消息对用户可读。
const maxInvalidDetails = 10

// Verdict 每次调用新鲜产生，不缓存、不复用。
type Verdict struct {
	Action        Action   `json:"action"`
	Intent        string   `json:"intent"`
	MissingFields []string `json:"missing_fields,omitempty"`
	InvalidFields []string `json:"invalid_fields,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// Allowed 报告调用是否可以继续。
func (v Verdict) Allowed() bool { return v.Action == Proceed }

// MissingFields 返回契约必填但 payload 缺失的字段，保持契约声明顺序。
func MissingFields(contract *schema.Contract, payload map[string]any) []string {
	var missing []string
	for _, field := range contract.Required() {
		if _, ok := payload[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}

// Check 对 (契约, payload) 做前置裁决。
// 缺字段检查永远先于类型/格式检查：先把数据要齐，再谈格式对不对。
func Check(intent string, contract *schema.Contract, payload map[string]any, v Validator) Verdict {
	missing := MissingFields(contract, payload)
	if len(missing) > 0 {
		return Verdict{
			Action:        AskUser,
			Intent:        intent,
			MissingFields: missing,
			Message:       fmt.Sprintf("I need %s to proceed.", strings.Join(missing, ", ")),
		}
	}

	if v == nil {
		v = minimalValidator{}
	}
	errs := v.Validate(contract, payload)
	if len(errs) > 0 {
		if len(errs) > maxInvalidDetails {
			errs = errs[:maxInvalidDetails]
		}
		return Verdict{
			Action:        AskUserInvalid,
			Intent:        intent,
			InvalidFields: errs,
			Message:       "Some parameters are invalid. Please correct them and try again.",
		}
	}

	return Verdict{Action: Proceed, Intent: intent}
}
