package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/middleware"
	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/service"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

func sessionFromContext(c *gin.Context) (models.Session, error) {
	session, ok := middleware.Session(c)
	if !ok {
		return models.Session{}, appErrors.ErrUnauthorized
	}
	return session, nil
}

// rootScope resolves the session and the tenant the request targets. Only
// super admins may pick a root through ?root_code.
func rootScope(c *gin.Context) (models.Session, int64, error) {
	session, err := sessionFromContext(c)
	if err != nil {
		return session, 0, err
	}
	requested, err := queryCode(c, "root_code")
	if err != nil {
		return session, 0, err
	}
	root, err := service.ScopeRoot(session, requested)
	return session, root, err
}

func pathCode(c *gin.Context, name string) (int64, error) {
	code, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || code <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return code, nil
}

func invalidPayload(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
}

func wantsHTML(c *gin.Context) bool {
	return strings.EqualFold(c.Query("format"), "html")
}

func originalMeta(original interface{}) map[string]interface{} {
	return map[string]interface{}{"original": original}
}

// queryCode reads an optional positive integer query parameter; absent means 0.
func queryCode(c *gin.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	code, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || code <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return code, nil
}
