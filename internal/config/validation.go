package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Dhan.validate(); err != nil {
		return err
	}
	if err := c.Guard.validate(); err != nil {
		return err
	}
	if err := c.Account.validate(); err != nil {
		return err
	}
	return nil
}

func (d DhanConfig) validate() error {
	raw := strings.TrimSpace(d.BaseURL)
	if raw == "" {
		return fmt.Errorf("dhan.base_url cannot be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("dhan.base_url is not a valid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("dhan.base_url must use http or https")
	}
	return nil
}

func (g GuardConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(g.Validation)) {
	case "", "minimal", "full":
		return nil
	default:
		return fmt.Errorf("guard.validation must be \"minimal\" or \"full\", got %q", g.Validation)
	}
}

func (a AccountConfig) validate() error {
	if a.Capital < 0 {
		return fmt.Errorf("account.capital must be >= 0")
	}
	if a.MaxRiskPerTrade < 0 || a.MaxRiskPerTrade > 100 {
		return fmt.Errorf("account.max_risk_per_trade must be a percentage in [0, 100]")
	}
	return nil
}
