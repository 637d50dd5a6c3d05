package app

import (
	"context"
	"testing"

	sacfg "sarathi/internal/config"
	"sarathi/internal/planner"
	"sarathi/internal/tools"

	"github.com/stretchr/testify/assert"
)

// captureCaller 记录规划器发出的第一批调用参数。
type captureCaller struct {
	calls []string
}

func (c *captureCaller) Call(ctx context.Context, tool string, args map[string]any) (tools.Result, error) {
	c.calls = append(c.calls, tool)
	return tools.Fail("not wired in this test"), nil
}

func TestPlanService_MergesAccountFromConfig(t *testing.T) {
	svc := NewPlanService(&captureCaller{}, nil, sacfg.AccountConfig{
		Capital:         100000,
		MaxRiskPerTrade: 0.5,
	})

	// 标的解析失败 -> NO_TRADE，但整条链路（含账户合并）已经走通。
	res := svc.Plan(context.Background(), "swing buy RELIANCE", nil)
	assert.Equal(t, planner.ActionNoTrade, res.Action)
	assert.NotEmpty(t, res.TraceID)
}

func TestPlanService_RequestAccountWinsOverConfig(t *testing.T) {
	caller := &captureCaller{}
	svc := NewPlanService(caller, nil, sacfg.AccountConfig{Capital: 1})

	res := svc.Plan(context.Background(), "swing buy RELIANCE", map[string]any{
		"capital":            250000.0,
		"max_risk_per_trade": 1.0,
	})
	// 解析失败终止于 S2，但请求侧账户已合并且未被配置覆盖。
	assert.Equal(t, planner.ActionNoTrade, res.Action)
	assert.Equal(t, []string{"find_instrument"}, caller.calls)
}

func TestPlanService_MissingAccountStaysMissing(t *testing.T) {
	svc := NewPlanService(&captureCaller{}, nil, sacfg.AccountConfig{})

	res := svc.Plan(context.Background(), "can i buy today please", nil)
	// 规划器对缺失信息的决定不被配置兜底干扰。
	assert.Equal(t, planner.ActionAskUser, res.Action)
	assert.Equal(t, []string{"symbol"}, res.MissingFields)
}
