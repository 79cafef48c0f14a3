package audit

import (
	"strings"
	"testing"

	"ordermgmt/internal/auth"

	"github.com/stretchr/testify/assert"
)

type orderForm struct {
	ProductID uint
	Quantity  int
}

func TestFormatArgs(t *testing.T) {
	long := strings.Repeat("x", 60)
	var nilPrincipal *auth.Principal
	var nilForm *orderForm

	tests := []struct {
		name string
		args []any
		want string
	}{
		{"无参数", nil, "none"},
		{"空切片", []any{}, "none"},
		{"单个参数", []any{42}, "42"},
		{"多个参数", []any{1, "abc", true}, "1, abc, true"},
		{"null", []any{nil, 3}, "null, 3"},
		{"带类型的空指针", []any{nilForm}, "null"},
		{"认证参数", []any{&auth.Principal{Username: "alice"}, 7}, "Authentication, 7"},
		{"认证参数值类型", []any{auth.Principal{}}, "Authentication"},
		{"认证参数空指针", []any{nilPrincipal}, "Authentication"},
		{"刚好 50 个字符", []any{strings.Repeat("y", 50)}, strings.Repeat("y", 50)},
		{"超长截断", []any{long}, strings.Repeat("x", 47) + "..."},
		{"结构体", []any{orderForm{ProductID: 3, Quantity: 2}}, "{3 2}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatArgs(tt.args))
		})
	}
}

func TestFormatArgsTruncatesByRune(t *testing.T) {
	got := FormatArgs([]any{strings.Repeat("订", 51)})
	assert.Equal(t, strings.Repeat("订", 47)+"...", got)
	assert.Len(t, []rune(got), 50)
}

func TestFormatDetail(t *testing.T) {
	assert.Equal(t, "Method: getAllProducts | Args: none", FormatDetail("getAllProducts", nil))
	assert.Equal(t, "Method: getOrderById | Args: 5, Authentication",
		FormatDetail("getOrderById", []any{5, auth.Anonymous()}))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(nil)

	qt, ok := r.Lookup("ProductController", "getAllProducts")
	assert.True(t, ok)
	assert.Equal(t, QueryTypeProduct, qt)

	qt, ok = r.Lookup("OrderWebController", "listOrders")
	assert.True(t, ok)
	assert.Equal(t, QueryTypeOrder, qt)

	_, ok = r.Lookup("LogController", "viewLogs")
	assert.False(t, ok)

	// 配置文件中的键会被 viper 转成小写
	custom := NewRegistry(map[string]string{
		"webcontroller":              "web",
		"webcontroller.dashboard":    "ADMIN",
		"reportcontroller.daily ":    "report",
	})
	qt, _ = custom.Lookup("WebController", "home")
	assert.Equal(t, "WEB", qt)
	qt, _ = custom.Lookup("WebController", "dashboard")
	assert.Equal(t, "ADMIN", qt, "方法级条目优先")
	_, ok = custom.Lookup("ReportController", "weekly")
	assert.False(t, ok)
	qt, _ = custom.Lookup("ReportController", "daily")
	assert.Equal(t, "REPORT", qt)
}
