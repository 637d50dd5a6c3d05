package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Contract 描述一个工具入参契约：object 型 JSON Schema 文档，
// 外加从文档（含 allOf 各分支）收集到的 required 字段清单。
type Contract struct {
	name string
	doc  map[string]any

	required []string

	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
}

// NewContract 从 JSON Schema 文档构造契约。required 按声明顺序去重收集。
func NewContract(name string, doc map[string]any) *Contract {
	return &Contract{
		name:     name,
		doc:      doc,
		required: collectRequired(doc),
	}
}

// Compose 在 base 之上叠加一个额外片段（allOf 组合），
// 用于表达 "同一形状，但此调用额外要求字段 X"。
func Compose(name string, base *Contract, extra map[string]any) *Contract {
	doc := map[string]any{
		"allOf": []any{base.Doc(), extra},
	}
	return NewContract(name, doc)
}

func (c *Contract) Name() string { return c.name }

// Required 返回所有必填字段名（含 allOf 分支）。
func (c *Contract) Required() []string {
	out := make([]string, len(c.required))
	copy(out, c.required)
	return out
}

// Doc 返回原始 schema 文档。
func (c *Contract) Doc() map[string]any { return c.doc }

// Compiled 懒编译并缓存 jsonschema。编译失败会作为错误返回而不是 panic。
func (c *Contract) Compiled() (*jsonschema.Schema, error) {
	c.compileOnce.Do(func() {
		c.compiled, c.compileErr = compileSchema(c.doc)
	})
	return c.compiled, c.compileErr
}

func compileSchema(doc map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource("schema.json", strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

// collectRequired 收集文档顶层与 allOf 分支的 required 字段，保持声明顺序。
func collectRequired(doc map[string]any) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(fields any) {
		switch list := fields.(type) {
		case []string:
			for _, f := range list {
				if f != "" && !seen[f] {
					seen[f] = true
					out = append(out, f)
				}
			}
		case []any:
			for _, raw := range list {
				f := fmt.Sprintf("%v", raw)
				if f != "" && !seen[f] {
					seen[f] = true
					out = append(out, f)
				}
			}
		}
	}
	add(doc["required"])
	if branches, ok := doc["allOf"].([]any); ok {
		for _, raw := range branches {
			if branch, ok := raw.(map[string]any); ok {
				add(branch["required"])
				// 组合只做一层，契约文档不会嵌套更深的 allOf。
			}
		}
	}
	return out
}
