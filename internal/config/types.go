package config

import "strings"

// Config 是 Sarathi 的主配置载体。
type Config struct {
	App         AppConfig         `toml:"app"`
	Dhan        DhanConfig        `toml:"dhan"`
	Guard       GuardConfig       `toml:"guard"`
	Account     AccountConfig     `toml:"account"`
	Store       StoreConfig       `toml:"store"`
	Instruments InstrumentsConfig `toml:"instruments"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// DhanConfig 描述对 DhanHQ v2 REST API 的访问方式。
type DhanConfig struct {
	BaseURL        string `toml:"base_url"`
	AccessToken    string `toml:"access_token"`
	ClientID       string `toml:"client_id"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// GuardConfig 控制工具入参校验行为。
// Validation 取 "minimal" 或 "full"，进程启动时定格，运行期不切换。
type GuardConfig struct {
	Validation    string `toml:"validation"`
	ContractsPath string `toml:"contracts_path"`
}

// AccountConfig 是账户风险画像的配置侧默认来源。
// 有意不设默认值：资金与单笔风险必须由用户显式给出，
// 缺失时规划器会追问而不是代用户臆测。
type AccountConfig struct {
	Capital         float64 `toml:"capital"`
	MaxRiskPerTrade float64 `toml:"max_risk_per_trade"`
}

type StoreConfig struct {
	RunLogPath       string `toml:"run_log_path"`
	InstrumentDBPath string `toml:"instrument_db_path"`
}

// InstrumentsConfig 控制证券主数据的预加载与刷新。
type InstrumentsConfig struct {
	Segments     []string `toml:"segments"`
	RefreshHours int      `toml:"refresh_hours"`
}

// Context 把账户配置转成规划器期望的 account_context 负载。
// 未配置的字段不落键，保持"缺失"语义。
func (a AccountConfig) Context() map[string]any {
	out := make(map[string]any, 2)
	if a.Capital > 0 {
		out["capital"] = a.Capital
	}
	if a.MaxRiskPerTrade > 0 {
		out["max_risk_per_trade"] = a.MaxRiskPerTrade
	}
	return out
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
