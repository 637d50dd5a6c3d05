package tools

import (
	"context"
	"strings"

	"sarathi/internal/guard"
	"sarathi/internal/logger"
	"sarathi/internal/schema"
)

// Router 是带 Guard 的工具调度器：解析别名 -> 求契约 -> 前置裁决 -> 分发。
// 被拦截的调用以 success=false + action 的形式返回，帮助规划器
// 把"去问用户"与"硬失败"区分开；Router 自身从不重试。
type Router struct {
	registry  *Registry
	contracts *schema.Registry
	validator guard.Validator
}

// NewRouter 组装调度器。contracts 可为 nil（只用内置契约表）。
func NewRouter(registry *Registry, contracts *schema.Registry, validator guard.Validator) *Router {
	return &Router{registry: registry, contracts: contracts, validator: validator}
}

// Call 实现 Caller。
func (r *Router) Call(ctx context.Context, tool string, args map[string]any) (Result, error) {
	name := Canonical(tool)
	if args == nil {
		args = map[string]any{}
	}

	if contract, ok := r.contractFor(name, args); ok {
		verdict := guard.Check(name, contract, args, r.validator)
		if !verdict.Allowed() {
			logger.Debugf("tool %s blocked by guard: %s", name, verdict.Action)
			return blockedResult(verdict), nil
		}
	}

	handler, ok := r.registry.Lookup(name)
	if !ok {
		return Fail("unknown tool: %s. Available tools: %s", tool, strings.Join(r.registry.Names(), ", ")), nil
	}

	res, err := handler.Run(ctx, args)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = Result{}
	}
	// 工具忘记带 success 时按成功补齐，与历史行为保持一致。
	if _, ok := res["success"]; !ok {
		res["success"] = true
	}
	return res, nil
}

func (r *Router) contractFor(name string, args map[string]any) (*schema.Contract, bool) {
	if r.contracts != nil {
		return r.contracts.ForTool(name, args)
	}
	return schema.ForTool(name, args)
}

func blockedResult(v guard.Verdict) Result {
	res := Result{
		"success": false,
		"action":  string(v.Action),
		"error":   v.Message,
	}
	if len(v.MissingFields) > 0 {
		res["missing_fields"] = v.MissingFields
	}
	if len(v.InvalidFields) > 0 {
		res["invalid_fields"] = v.InvalidFields
	}
	return res
}
