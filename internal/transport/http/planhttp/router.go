package planhttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"sarathi/internal/logger"
	"sarathi/internal/planner"
	"sarathi/internal/store/gormstore"

	"github.com/gin-gonic/gin"
)

// Planner 是 HTTP 层消费的规划能力。
type Planner interface {
	Plan(ctx context.Context, query string, account map[string]any) planner.Result
}

// RunLog 是审计日志的读取面。
type RunLog interface {
	ListRecent(ctx context.Context, limit int) ([]gormstore.RunRecord, error)
	GetByTrace(ctx context.Context, traceID string) (*gormstore.RunRecord, error)
}

// Router 暴露规划与审计查询接口。
type Router struct {
	planner Planner
	runs    RunLog
}

// NewRouter 构造规划 HTTP router。
func NewRouter(p Planner, runs RunLog) *Router {
	return &Router{planner: p, runs: runs}
}

// Register 将路由挂载到给定分组下。
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.POST("/plan", r.handlePlan)
	if r.runs != nil {
		group.GET("/plans", r.handleListPlans)
		group.GET("/plans/:trace", r.handlePlanByTrace)
	}
}

// planRequest 是 POST /api/plan 的请求体。
// account_context 可选；缺失字段由规划器追问，不在这里兜底。
type planRequest struct {
	Query          string         `json:"query" binding:"required"`
	AccountContext map[string]any `json:"account_context"`
}

func (r *Router) handlePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	res := r.planner.Plan(c.Request.Context(), req.Query, req.AccountContext)
	logger.Infof("规划完成 trace=%s action=%s", res.TraceID, res.Action)
	c.JSON(http.StatusOK, res)
}

func (r *Router) handleListPlans(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := r.runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": records, "count": len(records)})
}

func (r *Router) handlePlanByTrace(c *gin.Context) {
	record, err := r.runs.GetByTrace(c.Request.Context(), c.Param("trace"))
	if errors.Is(err, gormstore.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}
