package instruments

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	saconfig "sarathi/internal/config"
)

// Fetcher 按交易段下载 Dhan 的证券主表。
// 该接口返回 CSV 而非 JSON：GET {base}/v2/instrument/{EXCHANGE_SEGMENT}
type Fetcher struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewFetcher constructs a scrip master fetcher from configuration.
func NewFetcher(cfg saconfig.DhanConfig) (*Fetcher, error) {
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
		timeout = 30 * time.Second
	}
	return &Fetcher{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (f *Fetcher) SetHTTPClient(client *http.Client) {
	f.httpClient = client
}

// BySegment downloads and normalizes the instrument master for one segment.
func (f *Fetcher) BySegment(ctx context.Context, segment string) ([]Instrument, error) {
	segment = strings.ToUpper(strings.TrimSpace(segment))
	if segment == "" {
		return nil, fmt.Errorf("exchange_segment 不能为空")
	}
	ref, err := url.Parse("/v2/instrument/" + url.PathEscape(segment))
	if err != nil {
		return nil, err
	}
	endpoint := f.baseURL.ResolveReference(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("下载证券主表失败(%s): %w", segment, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("证券主表接口返回错误(%s): %s", segment, resp.Status)
	}
	return parseMasterCSV(resp.Body, segment)
}

// parseMasterCSV 解析主表 CSV。列命名在不同段之间并不统一，
// 按已知候选列逐个回退取值。
func parseMasterCSV(r io.Reader, requestedSegment string) ([]Instrument, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取 CSV 表头失败: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	field := func(row []string, names ...string) string {
		for _, name := range names {
			if i, ok := idx[name]; ok && i < len(row) {
				if v := strings.TrimSpace(row[i]); v != "" {
					return v
				}
			}
		}
		return ""
	}
	fnum := func(row []string, names ...string) float64 {
		v := field(row, names...)
		if v == "" {
			return 0
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return n
	}

	var out []Instrument
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// 单行损坏跳过，不放弃整个段。
			continue
		}
		inst := Instrument{
			SecurityID:       field(row, "SECURITY_ID", "SM_SECURITY_ID", "SEM_SECURITY_ID"),
			SymbolName:       field(row, "SYMBOL_NAME", "SM_SYMBOL_NAME", "SEM_SYMBOL_NAME"),
			DisplayName:      field(row, "DISPLAY_NAME", "SEM_CUSTOM_SYMBOL"),
			InstrumentType:   field(row, "INSTRUMENT", "INSTRUMENT_TYPE"),
			Series:           field(row, "SERIES"),
			LotSize:          fnum(row, "LOT_SIZE", "SEM_LOT_UNITS"),
			TickSize:         fnum(row, "TICK_SIZE", "SEM_TICK_SIZE"),
			ExpiryDate:       field(row, "SM_EXPIRY_DATE"),
			StrikePrice:      fnum(row, "STRIKE_PRICE"),
			OptionType:       field(row, "OPTION_TYPE"),
			UnderlyingSymbol: field(row, "UNDERLYING_SYMBOL"),
		}
		exch := field(row, "EXCH_ID", "SEM_EXM_EXCH_ID")
		seg := field(row, "SEGMENT", "SEM_SEGMENT")
		inst.ExchangeSegment = normalizeSegment(exch, seg, inst.InstrumentType, requestedSegment)
		if inst.SecurityID == "" {
			continue
		}
		if inst.DisplayName == "" {
			inst.DisplayName = inst.SymbolName
		}
		out = append(out, inst)
	}
	return out, nil
}

// normalizeSegment 把交易所 + 段代码拼成标准段名，拼不出来时
// 回退到请求的段（下载本来就是按段发起的）。
func normalizeSegment(exch, seg, instrumentType, requested string) string {
	exch = strings.ToUpper(exch)
	seg = strings.ToUpper(seg)
	instrumentType = strings.ToUpper(instrumentType)
	switch {
	case seg == "I" || seg == "INDEX" || instrumentType == "INDEX":
		return "IDX_I"
	case exch == "NSE" && seg == "E":
		return "NSE_EQ"
	case exch == "BSE" && seg == "E":
		return "BSE_EQ"
	case exch == "NSE" && seg == "D":
		return "NSE_FNO"
	case exch == "BSE" && seg == "D":
		return "BSE_FNO"
	case exch == "MCX":
		return "MCX_COM"
	case exch == "NCDEX":
		return "NCDEX_COM"
	case exch != "" && seg != "":
		return exch + "_" + seg
	default:
		return strings.ToUpper(requested)
	}
}
