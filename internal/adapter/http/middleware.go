package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/YelzhanWeb/comandas/internal/adapter/logger"
	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
)

const (
	requestIDKey = "request_id"
	userKey      = "user"
)

func LoggingMiddleware(logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		logger.Debug("http_request", fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path), requestID, map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		})

		c.Next()

		logger.Debug("http_response", "Request completed", requestID, map[string]interface{}{
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}

func RecoveryMiddleware(logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic_recovered", "Panic recovered", c.GetString(requestIDKey), nil, fmt.Errorf("%v", err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, envelope{Error: true, Msg: "Internal server error"})
			}
		}()
		c.Next()
	}
}

// AuthMiddleware resolves the authorization header to a user. A missing
// header is rejected with code 006.
func AuthMiddleware(service interfaces.BackofficeService, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := service.Authenticate(c.Request.Context(), c.GetHeader("authorization"))
		if err != nil {
			logger.Debug("auth_rejected", "Request without a valid token", c.GetString(requestIDKey), map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			respondError(c, logger, err)
			c.Abort()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return &domain.User{}
}
