package model

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is a user's RBAC role.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"  // firm administrator: user management, all checks
	RoleMember UserRole = "member" // attorney/staff: own matters and checks
	RoleReader UserRole = "reader" // read-only access
)

// RoleAtLeast reports whether role meets or exceeds the required role.
// Ordering: admin > member > reader.
func RoleAtLeast(role, required UserRole) bool {
	rank := map[UserRole]int{RoleReader: 1, RoleMember: 2, RoleAdmin: 3}
	return rank[role] >= rank[required]
}

// User is an authenticated owner of matters and conflict checks.
// APIKeyHash is an Argon2id hash; the plaintext key is never stored.
type User struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       UserRole  `json:"role"`
	APIKeyHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}
