package service

import "bugzero-api/internal/model"

// CanAccess reports whether actor may read or mutate resource.
func CanAccess(actor *model.User, resource model.Owned) bool {
	if actor == nil || resource == nil {
		return false
	}
	return actor.ID == resource.OwnerID()
}

// Authorize is CanAccess as an error for handler paths.
func Authorize(actor *model.User, resource model.Owned) error {
	if !CanAccess(actor, resource) {
		return ErrForbidden
	}
	return nil
}
