package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates the roles recognised by this service.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleIncharge UserRole = "INCHARGE"
	RoleFaculty  UserRole = "FACULTY"
)

// JWTClaims represents the JWT payload for access tokens. Token issuance is
// owned by the institution's identity service; this API only validates.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
