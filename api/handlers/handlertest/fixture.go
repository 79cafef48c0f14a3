// Package handlertest 处理器测试共用的内存数据库与调用者注入。
package handlertest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"ordermgmt/internal/audit"
	"ordermgmt/internal/auth"
	"ordermgmt/internal/catalog"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// UserHeader 测试请求中指定调用者用户名的请求头
const UserHeader = "X-Test-User"

// Fixture 已写入示例数据的测试环境
type Fixture struct {
	DB          *gorm.DB
	Users       *auth.UserDirectory
	Records     *audit.RecordStore
	Service     *catalog.Service
	Interceptor *audit.Interceptor
	Engine      *gin.Engine
}

// New 创建测试环境。示例数据包含 user、admin、api 三个用户。
func New(t *testing.T) *Fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auth.User{}, &audit.Record{}, &catalog.Product{}, &catalog.Order{}))

	users := auth.NewUserDirectory(db)
	require.NoError(t, catalog.Seed(context.Background(), db, users))

	records := audit.NewRecordStore(db)
	f := &Fixture{
		DB:          db,
		Users:       users,
		Records:     records,
		Service:     catalog.NewService(db),
		Interceptor: audit.NewInterceptor(nil, records, audit.NewDirectoryResolver(users)),
	}

	gin.SetMode(gin.TestMode)
	f.Engine = gin.New()
	f.Engine.Use(f.principalMiddleware())
	return f
}

// principalMiddleware 按请求头注入调用者，角色取自用户表；无请求头时为匿名
func (f *Fixture) principalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := auth.Anonymous()
		if name := c.GetHeader(UserHeader); name != "" {
			principal = &auth.Principal{Username: name, Authenticated: true}
			if user, err := f.Users.FindByUsername(c.Request.Context(), name); err == nil {
				principal.Roles = user.RoleList()
			}
		}
		auth.SetPrincipal(c, principal)
		c.Next()
	}
}

// Do 以 user 身份发送请求，body 非 nil 时编码为 JSON
func (f *Fixture) Do(t *testing.T, method, url, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	w := httptest.NewRecorder()
	f.Engine.ServeHTTP(w, req)
	return w
}

// UserID 用户名对应的 ID
func (f *Fixture) UserID(t *testing.T, name string) uint {
	t.Helper()
	user, err := f.Users.FindByUsername(context.Background(), name)
	require.NoError(t, err)
	return user.ID
}

// AuditRecords 全部审计记录，按写入顺序
func (f *Fixture) AuditRecords(t *testing.T) []audit.Record {
	t.Helper()
	var records []audit.Record
	require.NoError(t, f.DB.Order("id").Find(&records).Error)
	return records
}

// Decode 解析响应 JSON
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
