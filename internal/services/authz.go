package services

import (
	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// authorize is the single ownership gate for mutations and reads of
// user-owned resources: the actor must own the resource or hold the admin
// role.
func authorize(actorID string, actorRole models.UserRole, ownerID string) error {
	if actorID == ownerID || actorRole == models.RoleAdmin {
		return nil
	}
	return apperrors.ErrForbidden
}
