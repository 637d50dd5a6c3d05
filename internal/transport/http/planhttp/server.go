// Package planhttp 提供最小化的规划 HTTP 服务（出建议 + 审计回放）。
package planhttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"sarathi/internal/logger"

	"github.com/gin-gonic/gin"
)

// Server 持有 gin 引擎与监听地址。
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig 描述 HTTP 服务依赖。
type ServerConfig struct {
	Addr    string
	Planner Planner
	Runs    RunLog
	Health  []HealthCheck
}

// NewServer 构建规划 HTTP server。
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Planner == nil {
		return nil, errors.New("plan http server requires a planner")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9985"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", healthHandler(cfg.Health))
	planRouter := NewRouter(cfg.Planner, cfg.Runs)
	planRouter.Register(router.Group("/api"))

	return &Server{addr: cfg.Addr, router: router}, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, fullPath, status, client, dur)
	}
}

// HealthCheck 是可选的启动健康探针（比如证券主数据预加载状态）。
type HealthCheck func() (name string, err error)

func healthHandler(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		detail := gin.H{"status": "ok"}
		code := http.StatusOK
		for _, check := range checks {
			name, err := check()
			if err != nil {
				detail[name] = err.Error()
				detail["status"] = "degraded"
			}
		}
		c.JSON(code, detail)
	}
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start 启动 HTTP 服务，直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Handler 暴露底层 handler，测试用。
func (s *Server) Handler() http.Handler {
	if s == nil {
		return nil
	}
	return s.router
}
