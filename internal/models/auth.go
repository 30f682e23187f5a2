package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials. Login accepts either the e-mail or the roster name.
type LoginRequest struct {
	Login     string `json:"login" validate:"required"`
	Password  string `json:"senha" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued tokens and user info.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         UserInfo  `json:"usuario"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"senhaAtual" validate:"required"`
	NewPassword string `json:"novaSenha" validate:"required,min=6"`
}

// RequestMeta carries caller details recorded in audit logs.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"nome"`
	Email      string     `json:"email"`
	Department string     `json:"departamento"`
	Permission Permission `json:"permissoes"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID     string     `json:"user_id"`
	Name       string     `json:"nome"`
	Email      string     `json:"email"`
	Department string     `json:"departamento"`
	Permission Permission `json:"permissoes"`
	jwt.RegisteredClaims
}

// Viewer converts the claims into the identity used by visibility rules.
func (c *JWTClaims) Viewer() Viewer {
	if c == nil {
		return Viewer{}
	}
	return Viewer{UserID: c.UserID, Department: c.Department, Permission: c.Permission}
}

// Viewer is the identity against which visibility and edit rights are evaluated.
type Viewer struct {
	UserID     string
	Department string
	Permission Permission
}

// IsAdmin reports whether the viewer has admin permission.
func (v Viewer) IsAdmin() bool {
	return v.Permission == PermissionAdmin
}
