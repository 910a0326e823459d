package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/qcms/backend/internal/infrastructure/config"
)

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session has expired")
	ErrRevokedSession = errors.New("session has been revoked")
)

// Claims carried by the session cookie
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Session is a freshly issued session token
type Session struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// SessionUser is the identity a session is issued for
type SessionUser struct {
	ID       int64
	Username string
	Role     string
}

// SessionManager signs and verifies session tokens
type SessionManager struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewSessionManager creates a SessionManager from session config
func NewSessionManager(cfg config.SessionConfig) *SessionManager {
	exp := cfg.Expiration
	if exp <= 0 {
		exp = 8 * time.Hour
	}
	return &SessionManager{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: exp,
		now:        time.Now,
	}
}

// Expiration returns the lifetime of issued sessions
func (m *SessionManager) Expiration() time.Duration {
	return m.expiration
}

// Issue signs a new session for user
func (m *SessionManager) Issue(user SessionUser) (*Session, error) {
	now := m.now()
	expiresAt := now.Add(m.expiration)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ID: claims.ID, ExpiresAt: expiresAt}, nil
}

// Parse verifies token and returns its claims
func (m *SessionManager) Parse(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredSession
		}
		return nil, ErrInvalidSession
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" || claims.UserID == 0 {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
