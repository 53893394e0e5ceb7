package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/service"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code"`
	Fields []string `json:"fields,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// respondServiceError maps an error kind onto a status. Store and internal
// error text never reaches the client.
func respondServiceError(c *gin.Context, log *zap.Logger, err error) {
	switch service.KindOf(err) {
	case service.KindUnauthenticated:
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required", Code: "UNAUTHENTICATED"})

	case service.KindForbidden:
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied", Code: "FORBIDDEN"})

	case service.KindOwnership:
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not allowed to act on this resource", Code: "NOT_OWNER"})

	case service.KindInvalidTransition:
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "INVALID_TRANSITION"})

	case service.KindNotFound:
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})

	case service.KindValidation:
		resp := ValidationErrorResponse{Error: "validation failed", Code: "VALIDATION"}
		var validErr *service.ValidationError
		if errors.As(err, &validErr) {
			resp.Fields = validErr.Fields
		} else {
			resp.Error = err.Error()
		}
		c.JSON(http.StatusBadRequest, resp)

	case service.KindConflict:
		c.JSON(http.StatusConflict, ErrorResponse{Error: "request conflicted with a concurrent change", Code: "CONFLICT"})

	default:
		fields := []zap.Field{
			zap.String("path", c.FullPath()),
			zap.Error(err),
		}
		var txErr *database.TxError
		if errors.As(err, &txErr) {
			fields = append(fields, zap.String("transaction_id", txErr.TransactionID))
		}
		logger.FromContext(c.Request.Context(), log).Error("request failed", fields...)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

// parseQueryTime reads an RFC 3339 timestamp. A missing key yields nil.
func parseQueryTime(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + key + ": must be RFC 3339"})
		return nil, false
	}
	return &t, true
}

// parseRange reads from/to, defaulting to the last 24 hours.
func parseRange(c *gin.Context, now time.Time) (time.Time, time.Time, bool) {
	from, ok := parseQueryTime(c, "from")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	to, ok := parseQueryTime(c, "to")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end := now
	if to != nil {
		end = *to
	}
	start := end.Add(-24 * time.Hour)
	if from != nil {
		start = *from
	}
	return start, end, true
}
