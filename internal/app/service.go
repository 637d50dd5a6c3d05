package app

import (
	"context"

	sacfg "sarathi/internal/config"
	"sarathi/internal/logger"
	"sarathi/internal/planner"
	"sarathi/internal/store/gormstore"
	"sarathi/internal/tools"
)

// PlanService 把规划管道与审计落库拼成 HTTP 层消费的单一入口。
type PlanService struct {
	caller  tools.Caller
	runs    *gormstore.RunStore
	account sacfg.AccountConfig
}

func NewPlanService(caller tools.Caller, runs *gormstore.RunStore, account sacfg.AccountConfig) *PlanService {
	return &PlanService{caller: caller, runs: runs, account: account}
}

// Plan 执行一次规划。请求里的 account_context 字段优先于配置默认值；
// 两边都没有的字段保持缺失，由规划器决定是否追问。
func (s *PlanService) Plan(ctx context.Context, query string, account map[string]any) planner.Result {
	merged := s.account.Context()
	for k, v := range account {
		merged[k] = v
	}
	res := planner.Run(ctx, query, merged, s.caller)
	if s.runs != nil {
		// 审计失败只记日志，不影响规划结果返回。
		if err := s.runs.SaveResult(ctx, query, res); err != nil {
			logger.Errorf("运行日志落库失败 trace=%s err=%v", res.TraceID, err)
		}
	}
	return res
}
