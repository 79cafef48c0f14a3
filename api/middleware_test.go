package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ordermgmt/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func corsRouter(cfg config.CORSConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestCORSDefaults(t *testing.T) {
	r := corsRouter(config.CORSConfig{})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://any.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Request-ID")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestCORSAllowList(t *testing.T) {
	r := corsRouter(config.CORSConfig{
		AllowOrigins: []string{" https://app.example ", ""},
		AllowMethods: []string{"GET"},
	})

	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"允许的来源", "https://app.example", "https://app.example"},
		{"未允许的来源", "https://evil.example", ""},
		{"无来源", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET", w.Header().Get("Access-Control-Allow-Methods"))
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	r := corsRouter(config.CORSConfig{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/ping", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}
