// Package app 负责应用级编排：加载配置 -> 初始化依赖 -> 启动 HTTP 服务。
package app

import (
	"context"
	"fmt"
	"time"

	sacfg "sarathi/internal/config"
	"sarathi/internal/gateway/dhan"
	"sarathi/internal/guard"
	"sarathi/internal/instruments"
	"sarathi/internal/logger"
	"sarathi/internal/scheduler"
	"sarathi/internal/schema"
	"sarathi/internal/store/gormstore"
	"sarathi/internal/tools"
	planhttp "sarathi/internal/transport/http/planhttp"

	"golang.org/x/sync/errgroup"
)

// App 持有全部运行期组件。
type App struct {
	cfg        *sacfg.Config
	httpServer *planhttp.Server
	service    *PlanService
	runs       *gormstore.RunStore
	registry   *instruments.Registry
	instStore  *instruments.Store
	segments   []string
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *sacfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	validator, err := guard.NewValidator(cfg.Guard.Validation)
	if err != nil {
		return nil, fmt.Errorf("初始化校验器失败: %w", err)
	}
	contracts, err := schema.NewRegistry(cfg.Guard.ContractsPath)
	if err != nil {
		return nil, fmt.Errorf("加载契约覆盖失败: %w", err)
	}

	client, err := dhan.NewClient(cfg.Dhan)
	if err != nil {
		return nil, err
	}
	fetcher, err := instruments.NewFetcher(cfg.Dhan)
	if err != nil {
		return nil, err
	}
	instStore, err := instruments.NewStore(cfg.Store.InstrumentDBPath)
	if err != nil {
		return nil, fmt.Errorf("打开证券缓存库失败: %w", err)
	}
	registry := instruments.NewRegistry(fetcher, instStore,
		time.Duration(cfg.Instruments.RefreshHours)*time.Hour)

	toolRegistry := tools.NewRegistry()
	dhan.RegisterTools(toolRegistry, client)
	toolRegistry.Register(&instruments.FindInstrumentTool{Registry: registry})
	caller := tools.NewRouter(toolRegistry, contracts, validator)

	runs, err := gormstore.NewRunStore(cfg.Store.RunLogPath)
	if err != nil {
		instStore.Close()
		return nil, fmt.Errorf("打开运行日志库失败: %w", err)
	}

	service := NewPlanService(caller, runs, cfg.Account)
	httpServer, err := planhttp.NewServer(planhttp.ServerConfig{
		Addr:    cfg.App.HTTPAddr,
		Planner: service,
		Runs:    runs,
		Health: []planhttp.HealthCheck{
			func() (string, error) {
				if msg := registry.LastError(); msg != "" {
					return "instruments", fmt.Errorf("%s", msg)
				}
				return "instruments", nil
			},
		},
	})
	if err != nil {
		runs.Close()
		instStore.Close()
		return nil, err
	}

	return &App{
		cfg:        cfg,
		httpServer: httpServer,
		service:    service,
		runs:       runs,
		registry:   registry,
		instStore:  instStore,
		segments:   cfg.Instruments.Segments,
	}, nil
}

// Run 预加载证券主数据并启动 HTTP 服务，直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	group, ctx := errgroup.WithContext(ctx)

	// 主数据刷新放后台循环：首次加载失败不阻断服务启动，
	// /healthz 会显示降级状态，下个周期自动重试。
	group.Go(func() error {
		refresh := &scheduler.IntervalScheduler{
			Name:           "instruments",
			Interval:       time.Duration(a.cfg.Instruments.RefreshHours) * time.Hour,
			RunImmediately: true,
		}
		refresh.Start(ctx, func(c context.Context) {
			a.registry.Preload(c, a.segments)
		})
		return nil
	})

	group.Go(func() error {
		logger.Infof("HTTP 服务启动 addr=%s", a.httpServer.Addr())
		if err := a.httpServer.Start(ctx); err != nil {
			return fmt.Errorf("plan http server error: %w", err)
		}
		return nil
	})

	return group.Wait()
}

// Close 释放持久化资源。
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.runs != nil {
		_ = a.runs.Close()
	}
	if a.instStore != nil {
		_ = a.instStore.Close()
	}
}

// Service exposes the planning service (for testing/replay harnesses).
func (a *App) Service() *PlanService {
	if a == nil {
		return nil
	}
	return a.service
}
