package model

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidRole, raw)
	}
}

// RoleSet is an allow-list of roles. It is never mutated after construction.
type RoleSet struct {
	roles map[Role]struct{}
}

func NewRoleSet(roles ...Role) RoleSet {
	set := RoleSet{roles: make(map[Role]struct{}, len(roles))}
	for _, role := range roles {
		set.roles[role] = struct{}{}
	}
	return set
}

func (s RoleSet) Permits(role Role) bool {
	_, ok := s.roles[role]
	return ok
}

func (s RoleSet) String() string {
	names := make([]string, 0, len(s.roles))
	for _, role := range []Role{RoleUser, RoleAdmin} {
		if s.Permits(role) {
			names = append(names, string(role))
		}
	}
	return strings.Join(names, ",")
}

type User struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type AccessClaims struct {
	Subject     string    `json:"sub"`
	PhoneNumber string    `json:"phone_number"`
	TokenID     string    `json:"jti"`
	ExpiresAt   time.Time `json:"exp"`
}

// Identity is the verified caller of a single request.
type Identity struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
	Role        Role   `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
