package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/inflight"
)

// InFlight rejects a mutation while another one from the same user on the same
// resource family is still being processed, so adding, editing and deleting
// income exclude each other. Guard errors let the request through.
func InFlight(guard inflight.Guard, ttl time.Duration, recorder GuardRecorder, logger *zap.Logger) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if guard == nil || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		user := "anonymous"
		if session, ok := Session(c); ok {
			user = session.UserID
		}
		key := user + ":" + resourceFamily(c)

		release, acquired, err := guard.Acquire(c.Request.Context(), key, ttl)
		if err != nil {
			logger.Warn("in-flight guard unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			reject(c, recorder, "inflight", appErrors.ErrRequestInFlight)
			return
		}
		defer release(context.WithoutCancel(c.Request.Context()))
		c.Next()
	}
}

// resourceFamily is the matched route template without its trailing path
// parameters: /income and /income/:code share /income.
func resourceFamily(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		return c.Request.URL.Path
	}
	segments := strings.Split(route, "/")
	for len(segments) > 1 {
		last := segments[len(segments)-1]
		if !strings.HasPrefix(last, ":") && !strings.HasPrefix(last, "*") {
			break
		}
		segments = segments[:len(segments)-1]
	}
	return strings.Join(segments, "/")
}
