package service

import (
	"go-inventory-procurement/internal/model"

	"github.com/google/uuid"
)

// Principal is the authenticated caller of a service operation.
type Principal struct {
	UserID uuid.UUID
	Name   string
	Email  string
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

func (p Principal) actor() string {
	return p.UserID.String()
}

func requireAdmin(p Principal) error {
	if !p.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
