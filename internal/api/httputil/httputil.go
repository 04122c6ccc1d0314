// Package httputil carries the response plumbing shared by the API handler
// packages: mapping service-layer errors onto HTTP status codes and the
// date-only formatting used for calendar fields.
package httputil

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/committee-registry/committee-registry/internal/services"
)

// DateFormat is the wire format for calendar fields (start_date, for_month,
// due_date). Timestamps keep RFC3339.
const DateFormat = "2006-01-02"

// ServiceError writes the HTTP response for an error returned by the service
// layer. Typed errors carry their own status; anything else is a 500 with a
// generic body, logged with the request context.
func ServiceError(c *gin.Context, err error) {
	switch {
	case services.IsValidation(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case services.IsForbidden(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case services.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// Date formats a calendar field for a response body.
func Date(t time.Time) string {
	return t.Format(DateFormat)
}

// DatePtr formats an optional calendar field, nil in for null out.
func DatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateFormat)
	return &s
}

// ParseDate parses a calendar field from a request body.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// ParseDatePtr parses an optional calendar field, nil in for nil out.
func ParseDatePtr(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(DateFormat, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
