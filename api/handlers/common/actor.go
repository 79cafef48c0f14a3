package common

import (
	"context"
	"errors"

	"ordermgmt/internal/auth"
	"ordermgmt/internal/catalog"
)

// UserLookup 按用户名查询用户
type UserLookup interface {
	FindByUsername(ctx context.Context, username string) (*auth.User, error)
}

// ResolveActor 将调用者映射为订单权限判断所需的 Actor。
// 匿名或未登记的用户返回零值 Actor（无 UserID），仍可能是管理员角色。
func ResolveActor(ctx context.Context, users UserLookup, p *auth.Principal) (catalog.Actor, error) {
	actor := catalog.Actor{Admin: p.IsAdmin()}
	if p.IsAnonymous() || users == nil {
		return actor, nil
	}
	user, err := users.FindByUsername(ctx, p.Username)
	if errors.Is(err, auth.ErrUserNotFound) {
		return actor, nil
	}
	if err != nil {
		return actor, err
	}
	actor.UserID = user.ID
	return actor, nil
}
