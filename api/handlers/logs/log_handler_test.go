package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ordermgmt/internal/logstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    LogsView `json:"data"`
}

type fakeQueue struct {
	date       time.Time
	categories []logstore.Category
	err        error
}

func (q *fakeQueue) EnqueueRotateLogs(_ context.Context, date time.Time, categories ...logstore.Category) (string, error) {
	q.date = date
	q.categories = categories
	return "task-1", q.err
}

func (q *fakeQueue) Close() error { return nil }

func setup(t *testing.T, h *LogHandler) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin/logs", h.ViewCurrentLogs)
	r.GET("/admin/logs/archived", h.ViewArchivedLogs)
	r.POST("/admin/logs/rotate", h.RotateLogs)
	return r
}

func writeFile(t *testing.T, path string, lines int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	var b strings.Builder
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func get(t *testing.T, r *gin.Engine, url string) (int, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestViewCurrentLogs(t *testing.T) {
	dir := t.TempDir()
	store := logstore.New(dir)
	writeFile(t, filepath.Join(dir, "database.log"), 600)
	writeFile(t, filepath.Join(dir, "application.log"), 3)
	writeFile(t, filepath.Join(dir, "archived", "database.2024-01-05.log"), 1)
	r := setup(t, NewLogHandler(store, nil))

	code, body := get(t, r, "/admin/logs")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, logstore.CategoryDatabase, body.Data.LogType, "默认查看持久层日志")
	assert.Equal(t, DefaultLines, body.Data.Lines)
	require.Len(t, body.Data.Logs, 500)
	assert.Equal(t, "line 101", body.Data.Logs[0])
	assert.Equal(t, []string{"2024-01-05"}, body.Data.AvailableDates)
	assert.Len(t, body.Data.LogTypes, 2)

	code, body = get(t, r, "/admin/logs?logType=application&lines=2")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"line 2", "line 3"}, body.Data.Logs)
	assert.Empty(t, body.Data.AvailableDates)

	code, _ = get(t, r, "/admin/logs?logType=bogus")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = get(t, r, "/admin/logs?lines=abc")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestViewArchivedLogs(t *testing.T) {
	dir := t.TempDir()
	store := logstore.New(dir)
	writeFile(t, filepath.Join(dir, "archived", "application.2024-02-01.log"), 4)
	r := setup(t, NewLogHandler(store, nil))

	code, body := get(t, r, "/admin/logs/archived?logType=APPLICATION&date=2024-02-01&lines=-1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "archived", body.Data.ViewType)
	assert.Equal(t, "2024-02-01", body.Data.Date)
	assert.Len(t, body.Data.Logs, 4)

	code, body = get(t, r, "/admin/logs/archived?date=2023-01-01")
	require.Equal(t, http.StatusOK, code)
	assert.NotNil(t, body.Data.Logs)
	assert.Empty(t, body.Data.Logs, "缺失的归档文件返回空列表")

	for _, url := range []string{
		"/admin/logs/archived",
		"/admin/logs/archived?date=2024-1-5",
		"/admin/logs/archived?date=yesterday",
	} {
		code, _ = get(t, r, url)
		assert.Equal(t, http.StatusBadRequest, code, url)
	}
}

func TestRotateLogs(t *testing.T) {
	dir := t.TempDir()
	store := logstore.New(dir)
	writeFile(t, filepath.Join(dir, "application.log"), 2)

	r := setup(t, NewLogHandler(store, nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/logs/rotate?date=2024-03-03", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.FileExists(t, filepath.Join(dir, "archived", "application.2024-03-03.log"))
	assert.NoFileExists(t, filepath.Join(dir, "application.log"))

	q := &fakeQueue{}
	r = setup(t, NewLogHandler(store, q))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/logs/rotate?logType=database&date=2024-03-04", nil))
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "task-1")
	assert.Equal(t, []logstore.Category{logstore.CategoryDatabase}, q.categories)
	assert.Equal(t, "2024-03-04", q.date.Format(logstore.DateLayout))

	q.err = errors.New("redis down")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/logs/rotate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
