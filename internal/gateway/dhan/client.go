package dhan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	saconfig "sarathi/internal/config"
	"sarathi/internal/market"
	"sarathi/internal/pkg/circuit"
)

// Client wraps the DhanHQ v2 REST endpoints required by Sarathi.
// 所有方法只做数据读取，不涉及下单。
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	accessToken string
	clientID    string
	breaker     *circuit.Breaker
}

// NewClient constructs a Dhan data client from configuration.
func NewClient(cfg saconfig.DhanConfig) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("dhan.base_url 不能为空")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("解析 dhan.base_url 失败: %w", err)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:     parsed,
		httpClient:  &http.Client{Timeout: timeout},
		accessToken: strings.TrimSpace(cfg.AccessToken),
		clientID:    strings.TrimSpace(cfg.ClientID),
		breaker:     circuit.NewBreaker("dhan", 5, 30*time.Second),
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// ChartRequest mirrors the /v2/charts/* request schema.
type ChartRequest struct {
	SecurityID      string `json:"securityId"`
	ExchangeSegment string `json:"exchangeSegment"`
	Instrument      string `json:"instrument"`
	ExpiryCode      int    `json:"expiryCode"`
	Interval        string `json:"interval,omitempty"`
	OI              bool   `json:"oi"`
	FromDate        string `json:"fromDate"`
	ToDate          string `json:"toDate"`
}

// chartSeries 是 Dhan 图表接口的列式响应。
type chartSeries struct {
	Open      []float64 `json:"open"`
	High      []float64 `json:"high"`
	Low       []float64 `json:"low"`
	Close     []float64 `json:"close"`
	Volume    []float64 `json:"volume"`
	Timestamp []float64 `json:"timestamp"`
}

// toCandles 把列式数组拼回 K 线序列；长度不齐时按最短列截断。
func (s chartSeries) toCandles() []market.Candle {
	n := len(s.Close)
	for _, col := range [][]float64{s.Open, s.High, s.Low} {
		if len(col) < n {
			n = len(col)
		}
	}
	out := make([]market.Candle, 0, n)
	for i := 0; i < n; i++ {
		c := market.Candle{
			Open:  s.Open[i],
			High:  s.High[i],
			Low:   s.Low[i],
			Close: s.Close[i],
		}
		if i < len(s.Volume) {
			c.Volume = s.Volume[i]
		}
		if i < len(s.Timestamp) {
			c.Timestamp = time.Unix(int64(s.Timestamp[i]), 0).UTC().Format(time.RFC3339)
		}
		out = append(out, c)
	}
	return out
}

// HistoricalDaily fetches daily OHLCV bars via /v2/charts/historical.
func (c *Client) HistoricalDaily(ctx context.Context, req ChartRequest) ([]market.Candle, error) {
	var series chartSeries
	if err := c.doRequest(ctx, http.MethodPost, "/v2/charts/historical", req, &series); err != nil {
		return nil, err
	}
	return series.toCandles(), nil
}

// Intraday fetches minute-interval OHLCV bars via /v2/charts/intraday.
func (c *Client) Intraday(ctx context.Context, req ChartRequest) ([]market.Candle, error) {
	var series chartSeries
	if err := c.doRequest(ctx, http.MethodPost, "/v2/charts/intraday", req, &series); err != nil {
		return nil, err
	}
	return series.toCandles(), nil
}

// optionChainRequest mirrors /v2/optionchain 的请求字段命名（官方即大写）。
type optionChainRequest struct {
	UnderlyingScrip int    `json:"UnderlyingScrip"`
	UnderlyingSeg   string `json:"UnderlyingSeg"`
	Expiry          string `json:"Expiry,omitempty"`
}

// OptionChain fetches the full chain snapshot for one expiry.
func (c *Client) OptionChain(ctx context.Context, underlyingScrip int, underlyingSeg, expiry string) (map[string]any, error) {
	payload := optionChainRequest{
		UnderlyingScrip: underlyingScrip,
		UnderlyingSeg:   underlyingSeg,
		Expiry:          expiry,
	}
	var out map[string]any
	if err := c.doRequest(ctx, http.MethodPost, "/v2/optionchain", payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExpiryList fetches the available expiries for an underlying.
func (c *Client) ExpiryList(ctx context.Context, underlyingScrip int, underlyingSeg string) (map[string]any, error) {
	payload := optionChainRequest{
		UnderlyingScrip: underlyingScrip,
		UnderlyingSeg:   underlyingSeg,
	}
	var out map[string]any
	if err := c.doRequest(ctx, http.MethodPost, "/v2/optionchain/expirylist", payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarketQuote fetches OHLC snapshots via /v2/marketfeed/ohlc.
// securities 形如 {"NSE_EQ": [11536]}。
func (c *Client) MarketQuote(ctx context.Context, securities map[string][]int) (map[string]any, error) {
	var out map[string]any
	if err := c.doRequest(ctx, http.MethodPost, "/v2/marketfeed/ohlc", securities, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload any, out any) error {
	if c == nil {
		return fmt.Errorf("dhan client 未初始化")
	}
	endpoint, err := c.resolveEndpoint(path)
	if err != nil {
		return err
	}
	if c.breaker != nil && !c.breaker.Allow() {
		return fmt.Errorf("dhan 熔断中，%s 后重试", c.breaker.OpenFor().Round(time.Second))
	}

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("序列化请求失败: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("access-token", c.accessToken)
	}
	if c.clientID != "" {
		req.Header.Set("client-id", c.clientID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.breaker != nil {
			c.breaker.RecordFailure()
		}
		return fmt.Errorf("调用 dhan 失败: %w", err)
	}
	defer resp.Body.Close()

	// 只有传输错误和 5xx 触发熔断；4xx 是调用方问题，不计失败。
	if c.breaker != nil {
		if resp.StatusCode >= 500 {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if len(data) == 0 {
			return fmt.Errorf("dhan 返回错误: %s", resp.Status)
		}
		return fmt.Errorf("dhan 返回错误(%s): %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("解析 dhan 响应失败: %w", err)
	}
	return nil
}

func (c *Client) resolveEndpoint(path string) (*url.URL, error) {
	if c.baseURL == nil {
		return nil, fmt.Errorf("dhan API 地址未设置")
	}
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		trimmed = "/"
	}
	ref, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("解析请求路径失败: %w", err)
	}
	return c.baseURL.ResolveReference(ref), nil
}
