// Package auth - кто делает запрос и что ему разрешено.
package auth

import (
	"marketplace/internal/errs"
	"marketplace/models"
)

// Principal - аутентифицированный пользователь запроса.
// Нулевое значение означает анонимный запрос.
type Principal struct {
	UserID   int64
	Username string
	Role     models.Role
	IsStaff  bool
}

// Anonymous - запрос без токена.
var Anonymous = Principal{}

func (p Principal) Authenticated() bool {
	return p.UserID != 0
}

// RequireAuthenticated - 401 для анонимного запроса.
func RequireAuthenticated(p Principal) error {
	if !p.Authenticated() {
		return errs.NewUnauthorizedError("Authentication credentials were not provided.", false)
	}
	return nil
}

// RequireRole - аутентифицирован и имеет нужный тип профиля.
func RequireRole(p Principal, role models.Role) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.Role != role {
		return errs.NewForbiddenError("Only "+string(role)+" users can perform this action.", true)
	}
	return nil
}

// RequireOwner - аутентифицирован и ownerID совпадает с ним.
func RequireOwner(p Principal, ownerID int64) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.UserID != ownerID {
		return errs.NewForbiddenError("You do not have permission to perform this action.", false)
	}
	return nil
}

// RequireOwnerOrAdmin - владелец либо администратор.
func RequireOwnerOrAdmin(p Principal, ownerID int64) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.UserID != ownerID && !p.IsStaff {
		return errs.NewForbiddenError("You do not have permission to perform this action.", false)
	}
	return nil
}

// RequireAdmin - только администратор.
func RequireAdmin(p Principal) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if !p.IsStaff {
		return errs.NewForbiddenError("You do not have permission to perform this action.", false)
	}
	return nil
}
