package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a fixed privilege level assigned to every user
type Role string

const (
	RoleCustomer Role = "customer"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Valid reports whether role is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Email          string
	FirstName      string
	LastName       string
	Role           Role
	HashedPassword string
}
