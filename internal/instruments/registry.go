package instruments

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"sarathi/internal/logger"
)

// Registry 是符号 -> 证券的内存索引。
// 预加载尽力而为：某个段失败只记录 last_error，其余段继续。
type Registry struct {
	mu          sync.RWMutex
	bySegment   map[string][]Instrument
	symbolIndex map[string]Instrument
	lastErr     string

	fetcher *Fetcher
	store   *Store
	maxAge  time.Duration
}

// NewRegistry 组合下载器与缓存库。store 可以为 nil（纯内存模式）。
func NewRegistry(fetcher *Fetcher, store *Store, maxAge time.Duration) *Registry {
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &Registry{
		bySegment:   make(map[string][]Instrument),
		symbolIndex: make(map[string]Instrument),
		fetcher:     fetcher,
		store:       store,
		maxAge:      maxAge,
	}
}

// LastError 返回最近一次预加载的失败信息（为空表示全部成功）。
func (r *Registry) LastError() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// LoadSegment 把一段主数据灌进索引（覆盖旧段）。
func (r *Registry) LoadSegment(segment string, rows []Instrument) {
	segment = strings.ToUpper(strings.TrimSpace(segment))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySegment[segment] = rows
	for _, inst := range rows {
		sym := strings.ToUpper(inst.indexSymbol())
		if sym == "" {
			continue
		}
		r.symbolIndex[segment+":"+sym] = inst
	}
}

// Preload 逐段加载：缓存未过期直接用缓存，否则下载并回写缓存。
// 下载失败但存在旧缓存时降级使用旧缓存。
func (r *Registry) Preload(ctx context.Context, segments []string) {
	var lastErr string
	for _, segment := range segments {
		if err := r.loadOne(ctx, segment); err != nil {
			lastErr = fmt.Sprintf("failed to preload %s: %v", segment, err)
			logger.Warnf("证券主数据预加载失败 segment=%s err=%v", segment, err)
		}
	}
	r.mu.Lock()
	r.lastErr = lastErr
	r.mu.Unlock()
}

func (r *Registry) loadOne(ctx context.Context, segment string) error {
	segment = strings.ToUpper(strings.TrimSpace(segment))
	if segment == "" {
		return fmt.Errorf("exchange_segment 不能为空")
	}
	if r.store != nil {
		if at, ok := r.store.RefreshedAt(ctx, segment); ok && time.Since(at) < r.maxAge {
			rows, err := r.store.LoadSegment(ctx, segment)
			if err == nil && len(rows) > 0 {
				r.LoadSegment(segment, rows)
				logger.Debugf("证券主数据走缓存 segment=%s count=%d", segment, len(rows))
				return nil
			}
		}
	}
	if r.fetcher == nil {
		return fmt.Errorf("fetcher 未配置")
	}
	rows, err := r.fetcher.BySegment(ctx, segment)
	if err != nil {
		// 降级：拉新失败时退回旧缓存。
		if r.store != nil {
			if cached, cacheErr := r.store.LoadSegment(ctx, segment); cacheErr == nil && len(cached) > 0 {
				r.LoadSegment(segment, cached)
				logger.Warnf("证券主数据下载失败，使用过期缓存 segment=%s count=%d", segment, len(cached))
				return nil
			}
		}
		return err
	}
	r.LoadSegment(segment, rows)
	if r.store != nil {
		if err := r.store.ReplaceSegment(ctx, segment, rows); err != nil {
			logger.Warnf("证券主数据落库失败 segment=%s err=%v", segment, err)
		}
	}
	logger.Infof("证券主数据已刷新 segment=%s count=%d", segment, len(rows))
	return nil
}

// Find 精确查找段内符号。
func (r *Registry) Find(segment, symbol string) (Instrument, bool) {
	key := strings.ToUpper(strings.TrimSpace(segment)) + ":" + strings.ToUpper(strings.TrimSpace(symbol))
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.symbolIndex[key]
	return inst, ok
}

// Search 子串匹配查询。segment/instrumentType 为空表示不过滤。
// 查询串短于 2 个字符时直接返回空，避免全表扫描。
func (r *Registry) Search(query, segment, instrumentType string, limit int, exact bool) []Instrument {
	q := strings.ToUpper(strings.TrimSpace(query))
	if len(q) < 2 {
		return nil
	}
	if limit <= 0 {
		limit = 10
	}
	segment = strings.ToUpper(strings.TrimSpace(segment))
	instrumentType = strings.ToUpper(strings.TrimSpace(instrumentType))

	r.mu.RLock()
	defer r.mu.RUnlock()
	var segments []string
	if segment != "" {
		segments = []string{segment}
	} else {
		for seg := range r.bySegment {
			segments = append(segments, seg)
		}
	}
	var out []Instrument
	for _, seg := range segments {
		for _, inst := range r.bySegment[seg] {
			if instrumentType != "" && !typeMatches(inst.InstrumentType, instrumentType) {
				continue
			}
			if !inst.matches(q, exact) {
				continue
			}
			out = append(out, inst)
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// typeMatches 归一化后比较品种类型（EQUITY/INDEX/FUTURES/OPTIONS 及缩写）。
func typeMatches(have, want string) bool {
	have = strings.ToUpper(strings.TrimSpace(have))
	if have == want {
		return true
	}
	switch want {
	case "EQUITY":
		return have == "ES" || strings.HasPrefix(have, "EQ")
	case "INDEX":
		return have == "IDX" || have == "INDEX"
	case "FUTURES":
		return strings.HasPrefix(have, "FUT")
	case "OPTIONS":
		return strings.HasPrefix(have, "OPT")
	default:
		return false
	}
}
