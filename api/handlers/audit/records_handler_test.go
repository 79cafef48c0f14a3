package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ordermgmt/internal/audit"
	"ordermgmt/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordsBody struct {
	Success bool           `json:"success"`
	Data    []audit.Record `json:"data"`
}

func setup(t *testing.T) (*gin.Engine, *auth.User) {
	t.Helper()
	dsn := fmt.Sprintf("file:records_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auth.User{}, &audit.Record{}))

	users := auth.NewUserDirectory(db)
	ctx := context.Background()
	alice, err := users.Ensure(ctx, "alice", "USER")
	require.NoError(t, err)
	bob, err := users.Ensure(ctx, "bob", "USER")
	require.NoError(t, err)

	times := []time.Time{
		time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC),
	}
	i := 0
	store := audit.NewRecordStore(db, audit.WithStoreClock(func() time.Time {
		ts := times[i%len(times)]
		i++
		return ts
	}))
	for _, uid := range []uint{alice.ID, alice.ID, bob.ID} {
		_, err := store.Save(ctx, &audit.Record{QueryType: audit.QueryTypeOrder, Detail: "Method: getMyOrders | Args: none", UserID: uid})
		require.NoError(t, err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin/audit/records", NewRecordsHandler(store, users).ListRecords)
	return r, alice
}

func get(t *testing.T, r *gin.Engine, url string) (int, recordsBody) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	var body recordsBody
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w.Code, body
}

func TestListRecordsByUser(t *testing.T) {
	r, alice := setup(t)

	code, body := get(t, r, fmt.Sprintf("/admin/audit/records?userId=%d", alice.ID))
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body.Data, 2)
	assert.True(t, body.Data[0].Timestamp.After(body.Data[1].Timestamp), "按时间倒序")

	code, body = get(t, r, "/admin/audit/records?username=alice&limit=1")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body.Data, 1)

	code, body = get(t, r, "/admin/audit/records?userId=999")
	require.Equal(t, http.StatusOK, code)
	assert.NotNil(t, body.Data)
	assert.Empty(t, body.Data)

	code, _ = get(t, r, "/admin/audit/records?username=ghost")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListRecordsByRange(t *testing.T) {
	r, _ := setup(t)

	code, body := get(t, r, "/admin/audit/records?start=2024-05-02T00:00:00Z&end=2024-05-03T09:00:00Z")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body.Data, 2, "区间两端都包含")

	code, body = get(t, r, "/admin/audit/records?start=2024-05-04T00:00:00Z&end=2024-05-01T00:00:00Z")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body.Data)
}

func TestListRecordsBadInput(t *testing.T) {
	r, _ := setup(t)

	for _, url := range []string{
		"/admin/audit/records",
		"/admin/audit/records?start=2024-05-01",
		"/admin/audit/records?userId=abc",
		"/admin/audit/records?userId=1&limit=0",
	} {
		code, _ := get(t, r, url)
		assert.Equal(t, http.StatusBadRequest, code, url)
	}
}
