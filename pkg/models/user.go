package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User represents a registered citizen account
type User struct {
	ID        int       `json:"id" db:"id"`
	Nombre    string    `json:"nombre" db:"nombre"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"` // Never return password in JSON
	Activo    bool      `json:"activo" db:"activo"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserProfile is the user shape returned to the mobile client.
// The client historically reads both "id" and "idUsuario", so both
// keys carry the same value.
type UserProfile struct {
	ID        int    `json:"id"`
	IDUsuario int    `json:"idUsuario"`
	Nombre    string `json:"nombre"`
	Email     string `json:"email"`
	Activo    bool   `json:"activo"`
}

// Profile converts a User row into the client-facing shape
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:        u.ID,
		IDUsuario: u.ID,
		Nombre:    u.Nombre,
		Email:     u.Email,
		Activo:    u.Activo,
	}
}

// LoginRequest represents the request payload for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents the request payload for registration
type RegisterRequest struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest represents the request payload for profile updates.
// Password fields are optional; when NewPassword is set, CurrentPassword
// must match the stored one.
type UpdateUserRequest struct {
	Nombre          string `json:"nombre"`
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// TokenClaims represents the JWT token claims
type TokenClaims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	JTI    string `json:"jti"`
	Exp    int64  `json:"exp"`
	Iat    int64  `json:"iat"`
}

// GetExpirationTime implements jwt.Claims interface
func (c *TokenClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}

// GetIssuedAt implements jwt.Claims interface
func (c *TokenClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Iat, 0)), nil
}

// GetNotBefore implements jwt.Claims interface
func (c *TokenClaims) GetNotBefore() (*jwt.NumericDate, error) {
	return nil, nil
}

// GetIssuer implements jwt.Claims interface
func (c *TokenClaims) GetIssuer() (string, error) {
	return "miciudadsv", nil
}

// GetSubject implements jwt.Claims interface
func (c *TokenClaims) GetSubject() (string, error) {
	return c.Email, nil
}

// GetAudience implements jwt.Claims interface
func (c *TokenClaims) GetAudience() (jwt.ClaimStrings, error) {
	return nil, nil
}
