package auth

import (
	"context"
	"strings"
)

// AnonymousUsername 未认证请求使用的哨兵用户名
const AnonymousUsername = "anonymousUser"

// RoleAdmin 管理员角色
const RoleAdmin = "ADMIN"

// Principal 当前调用者的认证信息
type Principal struct {
	Username      string
	Roles         []string
	Authenticated bool
}

// Anonymous 返回匿名调用者
func Anonymous() *Principal {
	return &Principal{Username: AnonymousUsername}
}

// IsAnonymous 是否为未认证或匿名哨兵
func (p *Principal) IsAnonymous() bool {
	return p == nil || !p.Authenticated || p.Username == "" || p.Username == AnonymousUsername
}

// HasRole 角色比较不区分大小写
func (p *Principal) HasRole(roles ...string) bool {
	if p == nil {
		return false
	}
	return hasRole(p.Roles, roles)
}

// IsAdmin 是否管理员
func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

func (p *Principal) String() string {
	if p == nil {
		return AnonymousUsername
	}
	return p.Username
}

type principalKey struct{}

// WithPrincipal 将调用者写入标准 context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext 从标准 context 读取调用者，不存在时返回匿名调用者
func PrincipalFromContext(ctx context.Context) *Principal {
	if ctx != nil {
		if p, ok := ctx.Value(principalKey{}).(*Principal); ok && p != nil {
			return p
		}
	}
	return Anonymous()
}

// hasRole 检查是否有指定角色
func hasRole(userRoles []string, requiredRoles []string) bool {
	roleMap := make(map[string]bool, len(userRoles))
	for _, role := range userRoles {
		roleMap[strings.ToLower(strings.TrimSpace(role))] = true
	}

	for _, required := range requiredRoles {
		if roleMap[strings.ToLower(required)] {
			return true
		}
	}
	return false
}
