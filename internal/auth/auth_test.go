package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// initTestDB 创建内存数据库用于测试
func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))
	return db
}

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("secret", "ordermgmt")

	token, err := svc.GenerateToken("alice", []string{"USER"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	p := claims.Principal()
	assert.True(t, p.Authenticated)
	assert.False(t, p.IsAnonymous())
	assert.False(t, p.IsAdmin())
}

func TestJWTRejects(t *testing.T) {
	svc := NewJWTService("secret", "ordermgmt")
	other := NewJWTService("other-secret", "ordermgmt")

	token, err := other.GenerateToken("alice", nil)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewJWTService("secret", "ordermgmt")
	expired.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	token, err = expired.GenerateToken("alice", nil)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPrincipalAnonymous(t *testing.T) {
	var nilPrincipal *Principal
	assert.True(t, nilPrincipal.IsAnonymous())
	assert.True(t, Anonymous().IsAnonymous())
	assert.True(t, (&Principal{Username: AnonymousUsername, Authenticated: true}).IsAnonymous())
	assert.True(t, (&Principal{Username: "bob"}).IsAnonymous())

	ctx := context.Background()
	assert.True(t, PrincipalFromContext(ctx).IsAnonymous())

	ctx = WithPrincipal(ctx, &Principal{Username: "bob", Roles: []string{"admin"}, Authenticated: true})
	p := PrincipalFromContext(ctx)
	assert.Equal(t, "bob", p.Username)
	assert.True(t, p.IsAdmin())
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewJWTService("secret", "ordermgmt")

	r := gin.New()
	r.Use(AuthMiddleware(svc))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, PrincipalFromContext(c.Request.Context()).String())
	})
	r.GET("/admin", RequireRole(RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	userToken, err := svc.GenerateToken("alice", []string{"USER"})
	require.NoError(t, err)
	adminToken, err := svc.GenerateToken("root", []string{"ADMIN"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
		body   string
	}{
		{"匿名", "/whoami", "", http.StatusOK, AnonymousUsername},
		{"无效令牌按匿名处理", "/whoami", "bad", http.StatusOK, AnonymousUsername},
		{"已认证", "/whoami", userToken, http.StatusOK, "alice"},
		{"管理接口未认证", "/admin", "", http.StatusUnauthorized, ""},
		{"管理接口角色不足", "/admin", userToken, http.StatusForbidden, ""},
		{"管理员", "/admin", adminToken, http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestUserDirectory(t *testing.T) {
	db := initTestDB(t)
	dir := NewUserDirectory(db)
	ctx := context.Background()

	_, err := dir.FindByUsername(ctx, "alice")
	assert.ErrorIs(t, err, ErrUserNotFound)

	created, err := dir.Ensure(ctx, "alice", "USER", "ADMIN")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	again, err := dir.Ensure(ctx, "alice", "USER")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	found, err := dir.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, []string{"USER", "ADMIN"}, found.RoleList())
}

func TestAuthenticate(t *testing.T) {
	db := initTestDB(t)
	dir := NewUserDirectory(db)
	ctx := context.Background()

	_, err := dir.Ensure(ctx, "bob", "USER")
	require.NoError(t, err)

	_, err = dir.Authenticate(ctx, "bob", "")
	assert.ErrorIs(t, err, ErrBadCredentials, "未设置密码")

	require.NoError(t, dir.SetPassword(ctx, "bob", "s3cret"))
	assert.ErrorIs(t, dir.SetPassword(ctx, "ghost", "x"), ErrUserNotFound)

	user, err := dir.Authenticate(ctx, "bob", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
	assert.NotEqual(t, "s3cret", user.Password)

	_, err = dir.Authenticate(ctx, "bob", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = dir.Authenticate(ctx, "ghost", "s3cret")
	assert.ErrorIs(t, err, ErrBadCredentials)
}
