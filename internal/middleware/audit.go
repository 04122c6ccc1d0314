// audit.go provides Gin middleware that records authenticated operations to the
// audit_logs table so organizers' money-moving actions are traceable after the fact.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/committee-registry/committee-registry/internal/config"
	"github.com/committee-registry/committee-registry/internal/db/models"
)

// AuditRecorder persists a single audit log entry.
// *repositories.AuditRepository satisfies it.
type AuditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuditMiddleware logs requests to the audit trail after the handler runs.
//
// Default policy (nil config): only successful write operations are recorded.
// GET requests and failed requests can be opted in via config.AuditConfig.
// The database write happens in a goroutine so the response is never delayed
// by audit persistence; a lost entry on crash is acceptable for this trail.
func AuditMiddleware(recorder AuditRecorder, auditCfg *config.AuditConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == "OPTIONS" {
			return
		}

		logReadOps := auditCfg != nil && auditCfg.LogReadOperations
		logFailedReqs := auditCfg != nil && auditCfg.LogFailedRequests

		isReadOp := c.Request.Method == "GET"
		isFailed := c.Writer.Status() >= 400

		if isReadOp && !logReadOps {
			return
		}
		if isFailed && !logFailedReqs {
			return
		}

		path := c.Request.URL.Path
		action := auditAction(c.Request.Method, path)
		ipAddress := c.ClientIP()

		entry := &models.AuditLog{
			Action:    action,
			IPAddress: &ipAddress,
			CreatedAt: time.Now(),
		}

		if userID, ok := c.Get(UserIDKey); ok {
			if id, ok := userID.(string); ok && id != "" {
				entry.UserID = &id
			}
		}

		// Handlers that operate in a committee's scope stash its ID so the
		// trail can be filtered per committee.
		if committeeID, ok := c.Get("committee_id"); ok {
			if id, ok := committeeID.(string); ok && id != "" {
				entry.CommitteeID = &id
			}
		}

		if rt := resourceTypeForPath(path); rt != "" {
			entry.ResourceType = &rt
		}
		if resourceID, ok := c.Get("resource_id"); ok {
			if id, ok := resourceID.(string); ok && id != "" {
				entry.ResourceID = &id
			}
		}

		metadata := map[string]interface{}{
			"status_code": c.Writer.Status(),
		}
		if authMethod, ok := c.Get("auth_method"); ok {
			metadata["auth_method"] = authMethod
		}
		if requestID, ok := c.Get(RequestIDKey); ok {
			metadata["request_id"] = requestID
		}
		entry.Metadata = metadata

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if recorder == nil {
				return
			}
			if err := recorder.CreateAuditLog(ctx, entry); err != nil {
				slog.Error("failed to write audit log", "action", entry.Action, "error", err)
			}
		}()
	}
}

// auditAction derives a readable action name from the request.
// Domain endpoints get a resource.verb form; anything else falls back
// to "METHOD /path".
func auditAction(method, path string) string {
	rt := resourceTypeForPath(path)
	if rt == "" {
		return fmt.Sprintf("%s %s", method, path)
	}

	var verb string
	switch method {
	case "POST":
		verb = "created"
	case "PUT", "PATCH":
		verb = "updated"
	case "DELETE":
		verb = "deleted"
	case "GET":
		verb = "viewed"
	default:
		return fmt.Sprintf("%s %s", method, path)
	}

	switch {
	case strings.Contains(path, "/verify"):
		return rt + ".verified"
	case strings.Contains(path, "/confirm"):
		return rt + ".confirmed"
	case strings.Contains(path, "/login"):
		return "user.logged_in"
	case strings.Contains(path, "/signup"):
		return "user.signed_up"
	}
	return rt + "." + verb
}

// resourceTypeForPath maps a URL path to the audit resource type.
// Order matters: member, contribution, and payout routes are nested under
// /committees, so the more specific segments are checked first.
func resourceTypeForPath(path string) string {
	switch {
	case strings.Contains(path, "/members"):
		return "membership"
	case strings.Contains(path, "/contributions"):
		return "contribution"
	case strings.Contains(path, "/payouts"):
		return "payout"
	case strings.Contains(path, "/committees"):
		return "committee"
	case strings.Contains(path, "/users"), strings.Contains(path, "/auth"):
		return "user"
	}
	return ""
}
