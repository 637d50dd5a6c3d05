// Package gormstore 用 Gorm + SQLite 持久化规划运行日志，
// 供 HTTP 层回放 "当时为什么给出/拒绝这笔交易"。
package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sarathi/internal/planner"
	storemodel "sarathi/internal/store/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

type plannerRunModel = storemodel.PlannerRunModel

// ErrRunNotFound 表示 trace_id 没有对应的运行记录。
var ErrRunNotFound = errors.New("planner run not found")

// RunRecord 是对外暴露的运行日志视图。
type RunRecord struct {
	TraceID       string          `json:"trace_id"`
	Query         string          `json:"query"`
	Intent        string          `json:"intent"`
	Action        string          `json:"action"`
	Message       string          `json:"message"`
	Symbol        string          `json:"symbol,omitempty"`
	Error         string          `json:"error,omitempty"`
	State         *planner.State  `json:"state,omitempty"`
	Decision      map[string]any  `json:"decision,omitempty"`
	MissingFields []string        `json:"missing_fields,omitempty"`
	CreatedAt     int64           `json:"created_at"`
}

// RunStore implements planner run persistence using Gorm + SQLite.
type RunStore struct {
	db *gorm.DB
}

// NewRunStore initializes the run log database.
func NewRunStore(path string) (*RunStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("run store: 日志路径不能为空")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	// CGO_ENABLED=0 builds: route the gorm sqlite dialector through the
	// pure-Go modernc driver, which registers as "sqlite" and matches the
	// _pragma-style DSN above.
	db, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&plannerRunModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: allow a small amount of parallelism for concurrent HTTP reads
	// while keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &RunStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *RunStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveResult 落一条运行记录。trace_id 冲突视为重复提交，直接忽略。
func (s *RunStore) SaveResult(ctx context.Context, query string, res planner.Result) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("run store 未初始化")
	}
	m := plannerRunModel{
		TraceID:       res.TraceID,
		Query:         query,
		Action:        string(res.Action),
		Message:       res.Message,
		ErrorText:     res.Error,
		CreatedAtUnix: time.Now().Unix(),
	}
	if res.State != nil {
		if res.State.Intent != nil {
			if v, ok := res.State.Intent["trade_type"].(string); ok {
				m.Intent = v
			}
			if v, ok := res.State.Intent["symbol"].(string); ok {
				m.Symbol = v
			} else if v, ok := res.State.Intent["underlying_symbol"].(string); ok {
				m.Symbol = v
			}
		}
		if buf, err := json.Marshal(res.State); err == nil {
			m.StateJSON = buf
		}
	}
	if res.Decision != nil {
		if buf, err := json.Marshal(res.Decision); err == nil {
			m.DecisionJSON = buf
		}
	}
	if len(res.MissingFields) > 0 {
		if buf, err := json.Marshal(res.MissingFields); err == nil {
			m.MissingJSON = buf
		}
	}
	err := s.db.WithContext(ctx).Create(&m).Error
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "unique") {
		return nil
	}
	return err
}

// ListRecent 按时间倒序取最近 limit 条运行记录。
func (s *RunStore) ListRecent(ctx context.Context, limit int) ([]RunRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("run store 未初始化")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var models []plannerRunModel
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]RunRecord, 0, len(models))
	for i := range models {
		out = append(out, toRecord(&models[i]))
	}
	return out, nil
}

// GetByTrace 按 trace_id 取单条运行记录。
func (s *RunStore) GetByTrace(ctx context.Context, traceID string) (*RunRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("run store 未初始化")
	}
	traceID = strings.TrimSpace(traceID)
	if traceID == "" {
		return nil, ErrRunNotFound
	}
	var m plannerRunModel
	err := s.db.WithContext(ctx).Where("trace_id = ?", traceID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	rec := toRecord(&m)
	return &rec, nil
}

func toRecord(m *plannerRunModel) RunRecord {
	rec := RunRecord{
		TraceID:   m.TraceID,
		Query:     m.Query,
		Intent:    m.Intent,
		Action:    m.Action,
		Message:   m.Message,
		Symbol:    m.Symbol,
		Error:     m.ErrorText,
		CreatedAt: m.CreatedAtUnix,
	}
	if len(m.StateJSON) > 0 {
		var st planner.State
		if err := json.Unmarshal(m.StateJSON, &st); err == nil {
			rec.State = &st
		}
	}
	if len(m.DecisionJSON) > 0 {
		var dec map[string]any
		if err := json.Unmarshal(m.DecisionJSON, &dec); err == nil {
			rec.Decision = dec
		}
	}
	if len(m.MissingJSON) > 0 {
		var missing []string
		if err := json.Unmarshal(m.MissingJSON, &missing); err == nil {
			rec.MissingFields = missing
		}
	}
	return rec
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
