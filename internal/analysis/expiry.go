package analysis

import (
	"encoding/json"
	"sort"

	"github.com/tidwall/gjson"
)

// NearestExpiry 从异构的到期日负载中选出最近的有效到期日。
// 券商返回的形状不稳定：可能是裸数组、{"data": [...]}, 甚至
// {"data": {"data"/"expiries"/"expiry"/"expiry_list": [...]}}。
// 统一展平成 ISO-8601 日期列表后字典序排序（ISO 日期字典序即时间序），
// 取第一个 >= today 的日期；全部过期时退而返回最晚的一个。
func NearestExpiry(payload any, today string) (string, bool) {
	expiries := normalizeExpiries(payload)
	if len(expiries) == 0 {
		return "", false
	}
	sort.Strings(expiries)
	for _, e := range expiries {
		if e >= today {
			return e, true
		}
	}
	return expiries[len(expiries)-1], true
}

func normalizeExpiries(payload any) []string {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	root := gjson.ParseBytes(raw)

	candidates := []gjson.Result{root}
	if data := root.Get("data"); data.Exists() {
		candidates = append(candidates, data)
		for _, key := range []string{"data", "expiries", "expiry", "expiry_list"} {
			if inner := data.Get(key); inner.Exists() {
				candidates = append(candidates, inner)
			}
		}
	}

	for _, cand := range candidates {
		if !cand.IsArray() {
			continue
		}
		var out []string
		cand.ForEach(func(_, value gjson.Result) bool {
			if s := value.String(); len(s) >= 8 {
				out = append(out, s)
			}
			return true
		})
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
