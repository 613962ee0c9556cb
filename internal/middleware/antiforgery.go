package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

// DefaultAntiForgeryHeader carries the request verification token.
const DefaultAntiForgeryHeader = "RequestVerificationToken"

// TokenVerifier checks anti-forgery tokens issued for a subject.
type TokenVerifier interface {
	Verify(subject, token string) error
}

// GuardRecorder counts rejected requests per guard.
type GuardRecorder interface {
	RecordGuardRejection(guard string)
}

// AntiForgery requires a valid verification token on state-changing requests.
// It must run after JWT; the token is bound to the session user.
func AntiForgery(verifier TokenVerifier, header string, recorder GuardRecorder, logger *zap.Logger) gin.HandlerFunc {
	if header == "" {
		header = DefaultAntiForgeryHeader
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if verifier == nil || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		session, ok := Session(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		token := c.GetHeader(header)
		if token == "" {
			reject(c, recorder, "antiforgery", appErrors.Clone(appErrors.ErrInvalidAntiForgery, "missing anti-forgery token"))
			return
		}
		if err := verifier.Verify(session.UserID, token); err != nil {
			logger.Debug("anti-forgery token rejected", zap.String("user_id", session.UserID), zap.Error(err))
			reject(c, recorder, "antiforgery", appErrors.ErrInvalidAntiForgery)
			return
		}
		c.Next()
	}
}

func reject(c *gin.Context, recorder GuardRecorder, guard string, err error) {
	if recorder != nil {
		recorder.RecordGuardRejection(guard)
	}
	response.Error(c, err)
	c.Abort()
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
