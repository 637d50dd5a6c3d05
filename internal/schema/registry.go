package schema

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sarathi/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Registry 在内置契约表之上叠加一个可热更新的文件层：
// 运维可以为新工具补充契约、或收紧既有固定契约，而不用改代码发版。
// resolver 型契约（如 get_historical_data）不允许被文件覆盖。
type Registry struct {
	path string
	v    *viper.Viper

	mu       sync.RWMutex
	overlay  map[string]*Contract
	version  int64
	loadedAt time.Time
}

type fileConfig struct {
	Contracts map[string]map[string]any `yaml:"contracts"`
}

// NewRegistry 构造 registry。path 为空时只使用内置契约，不做文件监听。
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{overlay: map[string]*Contract{}}
	path = strings.TrimSpace(path)
	if path == "" {
		return r, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read contract overlay failed: %w", err)
	}
	r.path = path
	r.v = v
	if err := r.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("contract overlay reload failed: %v", err)
		}
	})
	v.WatchConfig()
	return r, nil
}

// ForTool 先查文件层，再回落到内置契约表。
func (r *Registry) ForTool(toolName string, payload map[string]any) (*Contract, bool) {
	if r != nil && !HasResolver(toolName) {
		r.mu.RLock()
		c, ok := r.overlay[toolName]
		r.mu.RUnlock()
		if ok {
			return c, true
		}
	}
	return ForTool(toolName, payload)
}

func (r *Registry) reload() error {
	cfg, err := readContractFile(r.path)
	if err != nil {
		return err
	}
	overlay := make(map[string]*Contract, len(cfg.Contracts))
	for name, doc := range cfg.Contracts {
		name = strings.TrimSpace(name)
		if name == "" || len(doc) == 0 {
			continue
		}
		if HasResolver(name) {
			logger.Warnf("contract overlay ignored for resolver-backed tool %s", name)
			continue
		}
		c := NewContract(name, doc)
		if _, err := c.Compiled(); err != nil {
			logger.Errorf("contract overlay compile failed tool=%s: %v", name, err)
			continue
		}
		overlay[name] = c
	}
	r.mu.Lock()
	r.overlay = overlay
	r.version++
	r.loadedAt = time.Now()
	r.mu.Unlock()
	logger.Infof("contract overlay loaded %d entries from %s", len(overlay), filepath.Base(r.path))
	return nil
}

func readContractFile(path string) (fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read contract overlay failed: %w", err)
	}
	var cfg fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return fileConfig{}, fmt.Errorf("parse contract overlay failed: %w", err)
	}
	return cfg, nil
}
