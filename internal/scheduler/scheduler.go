// Package scheduler 提供简单的周期任务循环，驱动后台刷新类工作
// （当前只有证券主数据的定时重拉）。
package scheduler

import (
	"context"
	"time"

	"sarathi/internal/logger"
)

// IntervalScheduler 以固定间隔重复执行任务，直到 ctx 取消。
type IntervalScheduler struct {
	Name           string
	Interval       time.Duration
	RunImmediately bool
}

// Start 阻塞运行任务循环。任务自身的失败处理由任务负责，
// 循环不会因单次执行失败而退出。
func (s *IntervalScheduler) Start(ctx context.Context, task func(context.Context)) {
	if s == nil || task == nil {
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("IntervalScheduler %s: 非法间隔 %s，不启动", s.Name, s.Interval)
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger.Infof("IntervalScheduler %s: 启动 interval=%s run_immediately=%v",
		s.Name, s.Interval, s.RunImmediately)
	if s.RunImmediately {
		task(ctx)
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Infof("IntervalScheduler %s: 退出", s.Name)
			return
		case <-ticker.C:
			task(ctx)
		}
	}
}
