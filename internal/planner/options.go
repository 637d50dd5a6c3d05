package planner

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"sarathi/internal/analysis"
	"sarathi/internal/market"
	"sarathi/internal/pkg/convert"
	"sarathi/internal/pkg/maputil"
	"sarathi/internal/tools"
)

// OptionsBuyingPlanner 严格串行的期权买方规划器：
// 解析标的 -> 日线定方向 -> 分钟线确认结构 -> 发现到期日 ->
// 拉期权链 -> 尝试选约 -> 风险预算。任何一步不满足即安全终止，
// 给出唯一的终态结果。
type OptionsBuyingPlanner struct {
	Tools tools.Caller
	Now   func() time.Time
}

func (p *OptionsBuyingPlanner) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Run 执行 O1–O7 规划序列。
func (p *OptionsBuyingPlanner) Run(ctx context.Context, query string, account map[string]any) Result {
	res := p.run(ctx, query, account)
	res.TraceID = uuid.NewString()
	return res
}

func (p *OptionsBuyingPlanner) run(ctx context.Context, query string, account map[string]any) Result {
	state := &State{}

	// O1 — 解析意图
	symbol := ExtractSymbolGuess(query)
	if symbol == "" {
		return askUser(state,
			"Which underlying should I analyze for options buying (e.g., NIFTY, BANKNIFTY, SENSEX, RELIANCE)?",
			"underlying_symbol")
	}
	state.Intent = map[string]any{
		"underlying_symbol": symbol,
		"trade_type":        string(IntentOptionsBuying),
		"time_horizon":      "INTRADAY",
		"direction":         "UNKNOWN",
	}

	// O2 — 解析标的（指数/个股按代码推断）
	instType := "EQUITY"
	if IsIndexSymbol(symbol) {
		instType = "INDEX"
	}
	inst, terminal := resolveInstrument(ctx, p.Tools, state, symbol, instType, false)
	if terminal != nil {
		return *terminal
	}

	// O3 — 高周期方向（日线）
	today := p.now()
	daily, err := p.Tools.Call(ctx, "get_daily_ohlcv", map[string]any{
		"security_id":      inst["security_id"],
		"exchange_segment": inst["exchange_segment"],
		"instrument_type":  inst["instrument_type"],
		"from_date":        ymd(today.AddDate(0, 0, -60)),
		"to_date":          ymd(today),
	})
	if err != nil {
		return failed(state, "Failed to fetch daily OHLCV.", err.Error())
	}
	if !daily.Ok() {
		if daily.NeedsUser() {
			return askUser(state, askMessage(daily, "Missing information to fetch daily OHLCV."))
		}
		return failed(state, "Failed to fetch daily OHLCV.", daily.ErrMessage())
	}
	bias, direction := analysis.ClassifyHTFBias(market.ParseCandles(daily.Data()))
	state.HTF = map[string]any{"htf_bias": string(bias), "allowed_direction": string(direction)}
	if direction == analysis.DirectionNoTrade {
		return noTrade(state, "HTF regime is RANGE/CHOP. Options buying is blocked by planner rules.")
	}

	// O4 — 低周期确认（5 分钟线，仅当日）
	intraday, err := p.Tools.Call(ctx, "get_intraday_ohlcv", map[string]any{
		"security_id":      inst["security_id"],
		"exchange_segment": inst["exchange_segment"],
		"instrument_type":  inst["instrument_type"],
		"interval":         "5",
		"from_date":        ymd(today),
		"to_date":          ymd(today),
	})
	if err != nil {
		return failed(state, "Failed to fetch intraday OHLCV.", err.Error())
	}
	if !intraday.Ok() {
		if intraday.NeedsUser() {
			return askUser(state, askMessage(intraday, "Missing information to fetch intraday OHLCV."))
		}
		return failed(state, "Failed to fetch intraday OHLCV.", intraday.ErrMessage())
	}
	structure, entryOK := analysis.ClassifyLTFStructure(market.ParseCandles(intraday.Data()))
	state.LTF = map[string]any{
		"ltf_structure":    string(structure),
		"entry_permission": entryOK,
		"interval":         "5",
	}
	if !entryOK {
		return noTrade(state, "LTF structure does not confirm entry. Planner blocks the trade (WAIT/NO_TRADE).")
	}

	// O5 — 到期日发现（本仓库的期权链必须带 expiry）
	expiryRes, err := p.Tools.Call(ctx, "get_expiry_list", map[string]any{
		"underlying_security_id": inst["security_id"],
		"exchange_segment":       inst["exchange_segment"],
	})
	if err != nil {
		return failed(state, "Failed to fetch expiry list.", err.Error())
	}
	expiry := ""
	if expiryRes.Ok() {
		expiry, _ = analysis.NearestExpiry(expiryRes.Data(), ymd(today))
	}
	if expiry == "" {
		return askUser(state,
			"I couldn't determine the expiry date for the option chain. Which expiry_date (YYYY-MM-DD) should I use?",
			"expiry_date")
	}

	// O5 — 期权链快照
	chain, err := p.Tools.Call(ctx, "get_option_chain", map[string]any{
		"underlying_security_id": inst["security_id"],
		"exchange_segment":       inst["exchange_segment"],
		"expiry_date":            expiry,
	})
	if err != nil {
		return failed(state, "Failed to fetch option chain.", err.Error())
	}
	if !chain.Ok() {
		if chain.NeedsUser() {
			return askUser(state, askMessage(chain, "Missing information to fetch option chain."))
		}
		return failed(state, "Failed to fetch option chain.", chain.ErrMessage())
	}
	state.OptionChain = map[string]any{"expiry_date": expiry, "raw": chain.Data()}

	// 拉现货 LTP 以便从 strikes 里选 ATM（不硬编码 strike 步长）。
	if spot := p.fetchSpotLTP(ctx, inst); spot > 0 {
		state.OptionChain["spot_ltp"] = spot
	}

	// O6 — 选约（尽力而为）。
	// 从快照里尝试找 ATM 合约；合约级标识（security_id）在常见的
	// 链形状里并不下发，推导不出来时点名缺口去问用户，绝不猜测。
	optionType := "PE"
	if direction == analysis.DirectionCEOnly {
		optionType = "CE"
	}
	selected := selectOptionContract(chain.Data(), spotFromState(state), optionType)
	selected["expiry"] = expiry
	state.SelectedOption = selected
	if maputil.String(selected, "security_id") == "" {
		return askUser(state,
			"I have the option chain, but I can't reliably extract the option contract security_id/strike from this response shape yet. Which option contract (security_id, exchange_segment) should I analyze for LTP/risk sizing?",
			"option_security_id", "option_exchange_segment")
	}

	// O7 — 风险与仓位（严格）
	if _, riskErr := analysis.RiskBudget(account); riskErr != "" {
		return askUser(state, riskErr,
			"account_context.capital", "account_context.max_risk_per_trade")
	}

	// 缺少可靠的合约 LTP 与 lot size 之前，无法安全计算数量。
	return askUser(state,
		"To compute quantity safely, I need the option lot_size and option LTP. Provide lot_size, or allow me to add a tool to fetch contract details/lot size.",
		"lot_size")
}

// selectOptionContract 从期权链快照里尽力选出 ATM 合约。
// 识别 {"oc": {"<strike>": {"ce": {...}, "pe": {...}}}} 的链形状；
// security_id 只有在快照里真的下发时才会被带出，否则保持 nil。
func selectOptionContract(raw any, spot float64, optionType string) map[string]any {
	selected := map[string]any{
		"option_type":      optionType,
		"strike":           nil,
		"security_id":      nil,
		"exchange_segment": nil,
	}
	buf, err := json.Marshal(raw)
	if err != nil {
		return selected
	}
	oc := gjson.GetBytes(buf, "oc")
	if !oc.Exists() {
		oc = gjson.GetBytes(buf, "data.oc")
	}
	if !oc.IsObject() || spot <= 0 {
		return selected
	}

	side := strings.ToLower(optionType)
	var bestStrike float64
	var bestLeg gjson.Result
	found := false
	oc.ForEach(func(key, value gjson.Result) bool {
		strike, convErr := strconv.ParseFloat(key.String(), 64)
		if convErr != nil {
			return true
		}
		leg := value.Get(side)
		if !leg.Exists() {
			return true
		}
		if !found || math.Abs(strike-spot) < math.Abs(bestStrike-spot) {
			bestStrike = strike
			bestLeg = leg
			found = true
		}
		return true
	})
	if !found {
		return selected
	}

	selected["strike"] = bestStrike
	if id := bestLeg.Get("security_id"); id.Exists() && id.String() != "" {
		selected["security_id"] = id.String()
	}
	if seg := bestLeg.Get("exchange_segment"); seg.Exists() && seg.String() != "" {
		selected["exchange_segment"] = seg.String()
	}
	return selected
}

// spotFromState 读取已缓存的现价；行情不可用时回退到链快照自带的 last_price。
func spotFromState(state *State) float64 {
	if state.OptionChain == nil {
		return 0
	}
	if spot, ok := convert.Float64(state.OptionChain["spot_ltp"]); ok && spot > 0 {
		return spot
	}
	buf, err := json.Marshal(state.OptionChain["raw"])
	if err != nil {
		return 0
	}
	if lp := gjson.GetBytes(buf, "last_price"); lp.Exists() {
		return lp.Float()
	}
	return gjson.GetBytes(buf, "data.last_price").Float()
}

// fetchSpotLTP 取标的现价；任何失败都按"不可用"处理，不会让规划终止。
func (p *OptionsBuyingPlanner) fetchSpotLTP(ctx context.Context, inst map[string]any) float64 {
	secID, err := strconv.Atoi(maputil.String(inst, "security_id"))
	if err != nil {
		return 0
	}
	quote, callErr := p.Tools.Call(ctx, "get_quote", map[string]any{
		"securities": map[string]any{
			maputil.String(inst, "exchange_segment"): []any{secID},
		},
	})
	if callErr != nil || !quote.Ok() {
		return 0
	}
	quotes := maputil.Slice(quote, "quotes")
	if len(quotes) == 0 {
		return 0
	}
	first, _ := quotes[0].(map[string]any)
	ltp, _ := convert.Float64(first["ltp"])
	return ltp
}
