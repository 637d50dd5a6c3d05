// Package tools 定义规划器与远端工具之间的调用通道。
// 所有工具只读：本仓库不存在任何下单类工具。
package tools

import (
	"context"
	"fmt"

	"sarathi/internal/pkg/maputil"
)

// Result 是工具调用的结构化返回。约定：必含布尔 success；
// 成功时携带工具自身的负载字段，失败时携带 error，
// 可选 action 用于区分 "该追问用户" 与 "硬失败"。
type Result map[string]any

// Ok 判断调用是否成功。
func (r Result) Ok() bool {
	b, _ := r["success"].(bool)
	return b
}

// ErrMessage 返回失败原因（成功时为空串）。
func (r Result) ErrMessage() string {
	return maputil.String(r, "error")
}

// Action 返回失败时的建议动作（ASK_USER / ASK_USER_INVALID），可能为空。
func (r Result) Action() string {
	return maputil.String(r, "action")
}

// NeedsUser 报告失败是否应转化为向用户追问而不是报错。
func (r Result) NeedsUser() bool {
	switch r.Action() {
	case "ASK_USER", "ASK_USER_INVALID":
		return true
	}
	return false
}

// Data 返回工具负载的 data 字段。
func (r Result) Data() any { return r["data"] }

// Fail 构造失败结果。
func Fail(format string, args ...any) Result {
	return Result{"success": false, "error": fmt.Sprintf(format, args...)}
}

// Caller 是规划器消费的远端调用能力。实现方负责超时与重试策略；
// 规划器本身绝不重试。
type Caller interface {
	Call(ctx context.Context, tool string, args map[string]any) (Result, error)
}

// Handler 是单个工具的实现。
type Handler interface {
	Name() string
	Description() string
	Run(ctx context.Context, args map[string]any) (Result, error)
}
