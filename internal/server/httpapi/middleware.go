package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/gallerysync/internal/server/auth"
)

const (
	userIDKey       = "userID"
	requestIDHeader = "X-Request-ID"
)

// accessTokenMiddleware requires a valid bearer token and stores the user id
// it carries on the gin context.
func (s *HTTPServer) accessTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			clientError(c, http.StatusUnauthorized, "missing token", nil)
			return
		}

		userID, err := auth.GetUserIDFromToken(strings.TrimSpace(token), s.jwtSecret)
		if err != nil {
			s.logger.Debug(c.Request.Context(), "token rejected", "error", err)
			clientError(c, http.StatusUnauthorized, "invalid token", nil)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// requestLogger tags every request with an id and logs its outcome.
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}

func (s *HTTPServer) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error(c.Request.Context(), "panic recovered", "panic", recovered)
		serverError(c, http.StatusInternalServerError, "internal error", nil)
	})
}

func requesterID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
