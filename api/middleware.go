package api

import (
	"net/http"
	"slices"
	"strings"

	"ordermgmt/internal/config"

	"github.com/gin-gonic/gin"
)

var (
	defaultCORSHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization",
		"Accept", "Origin", "Cache-Control", "X-Requested-With", "X-Request-ID",
	}
	defaultCORSMethods = []string{"POST", "OPTIONS", "GET", "PUT", "DELETE", "PATCH"}
)

// CORS 跨域中间件
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := trimList(cfg.AllowOrigins)
	allowedHeaders := strings.Join(defaultIfEmpty(trimList(cfg.AllowHeaders), defaultCORSHeaders), ", ")
	allowedMethods := strings.Join(defaultIfEmpty(trimList(cfg.AllowMethods), defaultCORSMethods), ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		switch {
		case len(allowedOrigins) == 0:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(allowedOrigins, origin):
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
		c.Writer.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		c.Writer.Header().Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
