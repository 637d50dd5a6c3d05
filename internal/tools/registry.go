package tools

import (
	"sort"
	"strings"
	"sync"
)

// aliases 维护遗留工具名到规范名的映射，注册与查找都走规范名。
var aliases = map[string]string{
	"search_instruments": "find_instrument",
	"get_market_quote":   "get_quote",
}

// Canonical 返回工具的规范名（剥离遗留别名）。
func Canonical(name string) string {
	name = strings.TrimSpace(name)
	if target, ok := aliases[name]; ok {
		return target
	}
	return name
}

// Registry 是可用工具的单一事实来源。
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register 按规范名登记工具，后注册者覆盖先注册者。
func (r *Registry) Register(h Handler) {
	if h == nil {
		return
	}
	name := Canonical(h.Name())
	if name == "" {
		return
	}
	r.mu.Lock()
	r.handlers[name] = h
	r.mu.Unlock()
}

// Lookup 按名称或别名取工具。
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[Canonical(name)]
	return h, ok
}

// Names 返回已注册的规范工具名（排序后）。
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
