package services

import "boardly/internal/models"

// Identity is the authenticated caller. Services receive it explicitly; a nil
// *Identity means an anonymous request.
type Identity struct {
	ID   uint
	Role models.Role
}

func IsOwner(actor *Identity, ownerID uint) bool {
	return actor != nil && actor.ID == ownerID
}

func IsAdmin(actor *Identity) bool {
	return actor != nil && actor.Role == models.RoleAdmin
}

func requireIdentity(actor *Identity) error {
	if actor == nil {
		return ErrAuthRequired
	}
	return nil
}

// CanEdit: posts and comments are edited by their owner only.
func CanEdit(actor *Identity, ownerID uint) error {
	if err := requireIdentity(actor); err != nil {
		return err
	}
	if !IsOwner(actor, ownerID) {
		return ErrDenied
	}
	return nil
}

// CanDelete: posts and comments are deleted by their owner or an admin.
func CanDelete(actor *Identity, ownerID uint) error {
	if err := requireIdentity(actor); err != nil {
		return err
	}
	if !IsOwner(actor, ownerID) && !IsAdmin(actor) {
		return ErrDenied
	}
	return nil
}

// RequireAdmin gates board management, role changes and admin listings.
func RequireAdmin(actor *Identity) error {
	if err := requireIdentity(actor); err != nil {
		return err
	}
	if !IsAdmin(actor) {
		return ErrDenied
	}
	return nil
}

// CanDeleteUser: admin only, and never the admin's own account.
func CanDeleteUser(actor *Identity, targetID uint) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}
	if actor.ID == targetID {
		return &Error{Kind: KindDenied, Message: "you cannot delete your own account"}
	}
	return nil
}
