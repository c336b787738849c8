package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/YelzhanWeb/comandas/internal/adapter/logger"
	"github.com/YelzhanWeb/comandas/internal/domain"
)

// envelope wraps every response body.
type envelope struct {
	Error     bool   `json:"error"`
	Msg       any    `json:"msg"`
	ErrorCode string `json:"error_code,omitempty"`
}

func respondOK(c *gin.Context, status int, msg any) {
	c.JSON(status, envelope{Error: false, Msg: msg})
}

func respondError(c *gin.Context, logger logger.Logger, err error) {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		c.JSON(mapCodeToStatus(apiErr.Code), envelope{Error: true, Msg: apiErr.Message, ErrorCode: apiErr.Code})
		return
	}

	logger.Error("request_failed", "Unhandled error", c.GetString(requestIDKey), map[string]interface{}{
		"path": c.Request.URL.Path,
	}, err)
	c.JSON(http.StatusInternalServerError, envelope{Error: true, Msg: "Internal server error"})
}

func mapCodeToStatus(code string) int {
	switch code {
	case domain.CodeWrongMethod:
		return http.StatusMethodNotAllowed
	case domain.CodeUnknownMethod, domain.CodeUserNotFound, domain.CodeOrderNotFound:
		return http.StatusNotFound
	case domain.CodeBadCredentials, domain.CodeTokenMissing:
		return http.StatusUnauthorized
	case domain.CodeUsernameTaken, domain.CodePhoneTaken, domain.CodeInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// queryID parses a required numeric query parameter. Missing or malformed
// values are rejected as empty parameters.
func queryID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.APIError{Code: domain.CodeEmptyParams, Message: name + " is required"}
	}
	return id, nil
}

func (s *Server) unknownMethod(c *gin.Context) {
	respondError(c, s.logger, &domain.APIError{Code: domain.CodeUnknownMethod, Message: "method does not exist"})
}

func (s *Server) wrongMethod(c *gin.Context) {
	respondError(c, s.logger, &domain.APIError{Code: domain.CodeWrongMethod, Message: "wrong request method"})
}
