// Package service holds the blog's business rules: the publishing workflow,
// similarity ranking, comment moderation, sharing and registration.
package service

import (
	"context"
	"errors"

	"myblog/internal/models"

	"gorm.io/gorm"
)

// PermissionChecker answers has_permission(user, capability).
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID uint, codename string) (bool, error)
}

// notFound converts a missing-row error into a NOT_FOUND AppError and wraps
// anything else as internal.
func notFound(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

func requirePermission(ctx context.Context, perms PermissionChecker, userID uint, codename string) error {
	ok, err := perms.HasPermission(ctx, userID, codename)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewUnauthorizedError("Authentication required")
		}
		return models.NewInternalError(err)
	}
	if !ok {
		return models.NewPermissionDeniedError("You do not have permission to perform this action")
	}
	return nil
}
