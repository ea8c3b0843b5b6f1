package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles carried in access tokens.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleTeacher    UserRole = "TEACHER"
)

// JWTClaims is the verified identity extracted from an access token.
type JWTClaims struct {
	UserID string   `json:"-"`
	Email  string   `json:"email"`
	Role   UserRole `json:"-"`
	jwt.RegisteredClaims
}
