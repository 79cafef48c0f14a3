package audit

import (
	"fmt"
	"reflect"
	"strings"

	"ordermgmt/internal/auth"
)

const (
	maxArgLength   = 50
	truncateLength = 47
	ellipsis       = "..."
)

// FormatDetail 生成 "Method: {method} | Args: {args}"
func FormatDetail(method string, args []any) string {
	return "Method: " + method + " | Args: " + FormatArgs(args)
}

// FormatArgs 渲染调用参数，参数之间以 ", " 分隔，无参数时为 "none"
func FormatArgs(args []any) string {
	if len(args) == 0 {
		return "none"
	}

	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = formatArg(arg)
	}
	return strings.Join(parts, ", ")
}

func formatArg(arg any) string {
	switch v := arg.(type) {
	case nil:
		return "null"
	case auth.Principal:
		return "Authentication"
	case *auth.Principal:
		// 空指针同样视为认证上下文参数
		return "Authentication"
	case fmt.Stringer:
		if isNil(arg) {
			return "null"
		}
		return truncate(v.String())
	}

	if isNil(arg) {
		return "null"
	}
	return truncate(fmt.Sprintf("%v", arg))
}

// isNil 判断带类型的空指针。nil 切片和 map 按空集合渲染
func isNil(arg any) bool {
	rv := reflect.ValueOf(arg)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// truncate 超过 50 个字符时保留前 47 个字符并追加 "..."
func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxArgLength {
		return s
	}
	return string(runes[:truncateLength]) + ellipsis
}
