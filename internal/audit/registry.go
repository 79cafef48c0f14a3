package audit

import (
	"strings"
	"sync"
)

// DefaultGroups 默认拦截分组：入口名 -> 查询类型
func DefaultGroups() map[string]string {
	return map[string]string{
		"ProductController":  QueryTypeProduct,
		"OrderController":    QueryTypeOrder,
		"OrderWebController": QueryTypeOrder,
		"WebController":      QueryTypeWeb,
	}
}

// Registry 拦截注册表。
// 键为入口名（Owner）或 Owner.method，精确到方法的条目优先。键不区分大小写。
type Registry struct {
	mu     sync.RWMutex
	groups map[string]string
}

// NewRegistry 创建注册表，groups 为空时使用默认分组
func NewRegistry(groups map[string]string) *Registry {
	if len(groups) == 0 {
		groups = DefaultGroups()
	}
	r := &Registry{groups: make(map[string]string, len(groups))}
	for key, queryType := range groups {
		r.Register(key, queryType)
	}
	return r
}

// Register 注册或覆盖一个条目
func (r *Registry) Register(key, queryType string) {
	key = normalizeKey(key)
	queryType = strings.ToUpper(strings.TrimSpace(queryType))
	if key == "" || queryType == "" {
		return
	}

	r.mu.Lock()
	r.groups[key] = queryType
	r.mu.Unlock()
}

// Lookup 返回操作对应的查询类型
func (r *Registry) Lookup(owner, method string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if method != "" {
		if qt, ok := r.groups[normalizeKey(owner+"."+method)]; ok {
			return qt, true
		}
	}
	qt, ok := r.groups[normalizeKey(owner)]
	return qt, ok
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
