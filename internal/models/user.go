package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleInstructor UserRole = "INSTRUCTOR"
	RoleViewer     UserRole = "VIEWER"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleInstructor || r == RoleViewer
}

// JWTClaims represents the access token payload issued by the auth provider.
type JWTClaims struct {
	UserID         string   `json:"sub"`
	Email          string   `json:"email,omitempty"`
	Role           UserRole `json:"app_role"`
	CongregationID string   `json:"congregation_id"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
