// Package token issues and verifies the signed access/refresh token pair.
// Access and refresh tokens carry a token_type claim and are signed with
// distinct secrets; a token presented in the wrong context is rejected.
package token

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "auctus/internal/errors"
)

const (
	// TypeAccess marks short-lived tokens used for per-request authorization.
	TypeAccess = "access"
	// TypeRefresh marks long-lived tokens used solely to obtain new access tokens.
	TypeRefresh = "refresh"

	accessTokenExpiry  = 15 * time.Minute
	refreshTokenExpiry = 7 * 24 * time.Hour

	issuer = "auctus-api"
)

// Claims represents the claims in the JWT
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens. It is constructed once and injected
// into handlers; it holds no mutable state and is safe for concurrent use.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
}

// NewManager creates a Manager from the two signing secrets.
func NewManager(accessSecret, refreshSecret string) *Manager {
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}
}

// IssueAccess generates a short-lived JWT access token for a user.
func (m *Manager) IssueAccess(userID, email string) (string, error) {
	return m.sign(userID, email, TypeAccess, accessTokenExpiry, m.accessSecret)
}

// IssueRefresh generates a long-lived JWT refresh token for a user.
// Refresh tokens carry no email claim.
func (m *Manager) IssueRefresh(userID string) (string, error) {
	return m.sign(userID, "", TypeRefresh, refreshTokenExpiry, m.refreshSecret)
}

// VerifyAccess parses and validates an access token. It returns
// ErrInvalidToken if the signature is invalid, the token has expired,
// or the token is not an access token.
func (m *Manager) VerifyAccess(tokenString string) (*Claims, error) {
	return m.verify(tokenString, TypeAccess, m.accessSecret)
}

// VerifyRefresh parses and validates a refresh token under the same rules
// as VerifyAccess, against the refresh secret.
func (m *Manager) VerifyRefresh(tokenString string) (*Claims, error) {
	return m.verify(tokenString, TypeRefresh, m.refreshSecret)
}

func (m *Manager) sign(userID, email, tokenType string, expiry time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    userID,
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (m *Manager) verify(tokenString, wantType string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, apperrors.Wrap(apperrors.ErrInvalidToken,
			fmt.Errorf("token type %q presented where %q is required", claims.TokenType, wantType))
	}
	return claims, nil
}

// Hash returns the SHA-256 hex digest of a token string. Single-use tokens
// are stored only in this form.
func Hash(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
