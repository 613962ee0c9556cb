package middleware

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/models"
)

// AuditWriter persists audit entries.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// resourceParams are the path parameters that identify the touched record,
// in lookup order.
var resourceParams = []string{"code", "examCode", "groupCode", "rootCode"}

// Audit records who changed what once the handler has succeeded. Failed
// requests leave no trace; the write outlives a cancelled request.
func Audit(writer AuditWriter, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if writer == nil || c.Writer.Status() >= 400 {
			return
		}

		entry := &models.AuditLog{
			Action:    action,
			Resource:  resource,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		}
		if session, ok := Session(c); ok {
			id := session.UserID
			entry.UserID = &id
			if session.RootCode > 0 {
				root := session.RootCode
				entry.RootCode = &root
			}
		}
		values := map[string]interface{}{
			"route":  c.FullPath(),
			"method": c.Request.Method,
			"status": c.Writer.Status(),
		}
		for _, name := range resourceParams {
			if v := c.Param(name); v != "" {
				if entry.ResourceID == nil {
					entry.ResourceID = &v
				}
				values[name] = v
			}
		}
		entry.NewValues, _ = json.Marshal(values)

		_ = writer.CreateAuditLog(context.WithoutCancel(c.Request.Context()), entry)
	}
}
