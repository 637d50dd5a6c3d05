package guard

import (
	"fmt"
	"strings"

	"sarathi/internal/schema"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Level 标识校验能力等级。等级在启动时一次性选定，调用点不再分支，
// 避免"同一契约在不同调用点得到不同结论"的隐性差异。
type Level string

const (
	// LevelMinimal 只做必填字段检查，类型/枚举/正则校验退化为空操作。
	LevelMinimal Level = "minimal"
	// LevelFull 在必填检查之外执行完整 JSON Schema 校验。
	LevelFull Level = "full"
)

// Validator 提供契约校验能力。实现必须是纯函数：不做 I/O，不 panic，
// 相同输入总是产生相同输出。
type Validator interface {
	Level() Level
	// Validate 返回人类可读的校验失败列表；空切片表示通过。
	Validate(contract *schema.Contract, payload map[string]any) []string
}

// NewValidator 按配置字符串选择校验等级，空值默认 full。
func NewValidator(level string) (Validator, error) {
	switch Level(strings.ToLower(strings.TrimSpace(level))) {
	case LevelMinimal:
		return minimalValidator{}, nil
	case LevelFull, "":
		return fullValidator{}, nil
	default:
		return nil, fmt.Errorf("unknown guard validation level: %q", level)
	}
}

type minimalValidator struct{}

func (minimalValidator) Level() Level { return LevelMinimal }

func (minimalValidator) Validate(*schema.Contract, map[string]any) []string { return nil }

type fullValidator struct{}

func (fullValidator) Level() Level { return LevelFull }

func (fullValidator) Validate(contract *schema.Contract, payload map[string]any) []string {
	compiled, err := contract.Compiled()
	if err != nil {
		// 契约本身坏了也按校验失败上报，而不是放行或 panic。
		return []string{fmt.Sprintf("contract %s is not usable: %v", contract.Name(), err)}
	}
	err = compiled.Validate(normalize(payload))
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}
	return flattenValidation(ve)
}

// flattenValidation 把嵌套的校验错误展平成 "字段: 原因" 形式的稳定消息。
func flattenValidation(ve *jsonschema.ValidationError) []string {
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if e == nil {
			return
		}
		if len(e.Causes) == 0 {
			field := strings.TrimPrefix(e.InstanceLocation, "/")
			field = strings.ReplaceAll(field, "/", ".")
			if field != "" {
				out = append(out, fmt.Sprintf("%s: %s", field, e.Message))
			} else {
				out = append(out, e.Message)
			}
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)
	return out
}

// normalize 把 map[string]any 里 JSON 校验器无法识别的数值类型拉平。
// 工具参数经由多种来源（HTTP body、配置、测试）进入，int 与 float64 混用。
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = normalize(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = normalize(child)
		}
		return out
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case float32:
		return float64(val)
	default:
		return val
	}
}
