package config

import "strings"

// 默认值常量
const (
	defaultAppEnv           = "dev"
	defaultAppLogLevel      = "info"
	defaultAppHTTPAddr      = ":9985"
	defaultAppLogPath       = "data/logs/sarathi.log"
	defaultDhanBaseURL      = "https://api.dhan.co"
	defaultDhanTimeout      = 15
	defaultGuardValidation  = "full"
	defaultRunLogPath       = "data/db/sarathi_runs.db"
	defaultInstrumentDBPath = "data/db/instruments.db"
	defaultRefreshHours     = 24
)

var defaultInstrumentSegments = []string{"NSE_EQ", "IDX_I", "NSE_FNO"}

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Dhan.applyDefaults(keys)
	c.Guard.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Instruments.applyDefaults(keys)
	// Account 有意没有默认值：缺失的资金/风险字段由规划器追问用户。
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (d *DhanConfig) applyDefaults(keys keySet) {
	if d == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("dhan.base_url", &d.BaseURL, defaultDhanBaseURL),
		fieldDefault{
			key:   "dhan.timeout_seconds",
			need:  func() bool { return d.TimeoutSeconds <= 0 },
			apply: func() { d.TimeoutSeconds = defaultDhanTimeout },
		},
	)
}

func (g *GuardConfig) applyDefaults(keys keySet) {
	if g == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("guard.validation", &g.Validation, defaultGuardValidation),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.run_log_path", &s.RunLogPath, defaultRunLogPath),
		stringFieldDefault("store.instrument_db_path", &s.InstrumentDBPath, defaultInstrumentDBPath),
	)
}

func (i *InstrumentsConfig) applyDefaults(keys keySet) {
	if i == nil {
		return
	}
	if len(i.Segments) == 0 {
		i.Segments = append([]string(nil), defaultInstrumentSegments...)
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "instruments.refresh_hours",
			need:  func() bool { return i.RefreshHours <= 0 },
			apply: func() { i.RefreshHours = defaultRefreshHours },
		},
	)
	i.Segments = normalizeSegmentList(i.Segments)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func normalizeSegmentList(segments []string) []string {
	if len(segments) == 0 {
		return nil
	}
	out := make([]string, 0, len(segments))
	seen := make(map[string]bool, len(segments))
	for _, seg := range segments {
		seg = strings.ToUpper(strings.TrimSpace(seg))
		if seg == "" || seen[seg] {
			continue
		}
		seen[seg] = true
		out = append(out, seg)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
