package maputil

import (
	"fmt"
	"strconv"
	"strings"

	"sarathi/internal/pkg/convert"
)

// Has 判断 key 是否存在（值可以是任意类型，包括 nil 以外的零值）。
func Has(params map[string]any, key string) bool {
	if params == nil {
		return false
	}
	_, ok := params[key]
	return ok
}

func String(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	raw, ok := params[key]
	if !ok || raw == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", raw))
}

func Int(params map[string]any, key string) int {
	if params == nil {
		return 0
	}
	raw, ok := params[key]
	if !ok {
		return 0
	}
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	default:
		n, _ := strconv.Atoi(strings.TrimSpace(fmt.Sprintf("%v", v)))
		return n
	}
}

func Float(params map[string]any, key string) float64 {
	if params == nil {
		return 0
	}
	return convert.ToFloat64(params[key])
}

// Number 返回 key 对应的数值以及该值是否可解析为数字。
// 与 Float 不同，它能区分 "缺字段 / 非数字" 与 "数值恰为 0"。
func Number(params map[string]any, key string) (float64, bool) {
	if params == nil {
		return 0, false
	}
	raw, ok := params[key]
	if !ok {
		return 0, false
	}
	return convert.Float64(raw)
}

func Map(params map[string]any, key string) map[string]any {
	if params == nil {
		return nil
	}
	if m, ok := params[key].(map[string]any); ok {
		return m
	}
	return nil
}

func Slice(params map[string]any, key string) []any {
	if params == nil {
		return nil
	}
	if s, ok := params[key].([]any); ok {
		return s
	}
	return nil
}
