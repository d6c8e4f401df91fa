package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/babytracker/internal/entry"
	"github.com/babytracker/internal/logging"
	"github.com/babytracker/internal/resource"
	"github.com/babytracker/internal/service"
	"github.com/babytracker/internal/view"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errMethodNotAllowed = errors.New("method not allowed")

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// statusFor maps an error to its HTTP status and the message safe to show the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, entry.ErrUnknownKind),
		errors.Is(err, entry.ErrUnknownField),
		errors.Is(err, entry.ErrInvalidValue),
		errors.Is(err, view.ErrInvalidTime):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, service.ErrInvalidCredentials.Error()
	case errors.Is(err, resource.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, resource.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, errMethodNotAllowed):
		return http.StatusMethodNotAllowed, errMethodNotAllowed.Error()
	case service.IsConflict(err):
		return http.StatusConflict, err.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}

// respondWithError writes the JSON error for err. Server errors are logged with full detail
// and reported to the client generically.
func respondWithError(c *gin.Context, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c).Error("request failed", zap.Error(err))
		c.Error(err)
	}
	respondError(c, status, message)
}

// readBody decodes a JSON object or a form post into wire strings. Numbers keep their
// literal form, booleans become "true"/"false" and nulls are dropped.
func readBody(c *gin.Context) (map[string]string, error) {
	if !strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if err := c.Request.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: malformed form body", service.ErrInvalidInput)
		}
		values := make(map[string]string, len(c.Request.PostForm))
		for key, v := range c.Request.PostForm {
			if len(v) > 0 {
				values[key] = v[0]
			}
		}
		return values, nil
	}

	decoder := json.NewDecoder(c.Request.Body)
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("%w: body must be a JSON object", service.ErrInvalidInput)
	}

	values := make(map[string]string, len(raw))
	for key, v := range raw {
		switch typed := v.(type) {
		case nil:
			continue
		case string:
			values[key] = typed
		case json.Number:
			values[key] = typed.String()
		case bool:
			values[key] = fmt.Sprint(typed)
		default:
			return nil, fmt.Errorf("%w: %s must be a scalar", service.ErrInvalidInput, key)
		}
	}
	return values, nil
}

// takeString removes key from values and reports whether it was present.
func takeString(values map[string]string, key string) (string, bool) {
	v, ok := values[key]
	if ok {
		delete(values, key)
	}
	return v, ok
}
