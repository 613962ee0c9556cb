package service

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

// ScopeRoot resolves the tenant an operation runs against. Super admins may
// target any root; everyone else is pinned to the root of their session.
func ScopeRoot(session models.Session, requested int64) (int64, error) {
	if session.Role == models.RoleSuperAdmin {
		if requested > 0 {
			return requested, nil
		}
		return session.RootCode, nil
	}
	if session.RootCode == 0 {
		return 0, appErrors.Clone(appErrors.ErrForbidden, "session is not bound to a root")
	}
	if requested > 0 && requested != session.RootCode {
		return 0, appErrors.Clone(appErrors.ErrForbidden, "root is outside the current session")
	}
	return session.RootCode, nil
}

func notFoundOr(err error, entity, action string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", entity))
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to %s %s", action, entity))
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
