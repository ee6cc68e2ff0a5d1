package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	pterrors "github.com/papertrail-app/papertrail/internal/errors"
	"github.com/papertrail-app/papertrail/internal/store"
)

// Claims is the session token payload.
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a token manager. The secret must be non-empty.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, pterrors.New(pterrors.ErrCodeConfigInvalid, "auth secret key is empty", nil)
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the token lifetime, for cookie expiry.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a signed session token for the user.
func (m *Manager) Issue(u *store.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, pterrors.New(pterrors.ErrCodeNotAuthorized, "invalid session token", err)
	}
	if !token.Valid {
		return nil, pterrors.NotAuthorized("invalid session token")
	}
	return claims, nil
}
