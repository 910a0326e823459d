package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qcms/backend/internal/domain/identity"
	"github.com/qcms/backend/internal/domain/shared"
	"github.com/qcms/backend/internal/infrastructure/auth"
)

// LoginInput is the login form
type LoginInput struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,max=128"`
}

// UserInfo is the public view of a signed-in user
type UserInfo struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// LoginResult carries the new session and its user
type LoginResult struct {
	Session *auth.Session
	User    UserInfo
}

// CreateUserInput seeds a login user
type CreateUserInput struct {
	Username    string
	Password    string
	DisplayName string
	Role        string
}

var errInvalidCredentials = shared.NewDomainError(shared.ErrUnauthorized.Code, "Invalid username or password")

// AuthService handles session authentication
type AuthService struct {
	users    identity.UserRepository
	sessions *auth.SessionManager
	revoked  auth.RevocationList
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users identity.UserRepository,
	sessions *auth.SessionManager,
	revoked auth.RevocationList,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		revoked:  revoked,
		logger:   logger,
		now:      time.Now,
	}
}

// Login checks the credentials and issues a session
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.users.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown user", zap.String("username", input.Username))
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", user.Username))
		return nil, errInvalidCredentials
	}
	if !user.IsActive {
		s.logger.Warn("Login attempt for deactivated account", zap.String("username", user.Username))
		return nil, shared.NewDomainError(shared.ErrUnauthorized.Code, "Account has been deactivated")
	}

	session, err := s.sessions.Issue(auth.SessionUser{ID: user.ID, Username: user.Username, Role: user.Role})
	if err != nil {
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		// Don't fail the login - just log the error
		s.logger.Error("Failed to record last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	s.logger.Info("User logged in", zap.String("username", user.Username), zap.String("session_id", session.ID))
	return &LoginResult{
		Session: session,
		User: UserInfo{
			ID:          user.ID,
			Username:    user.Username,
			DisplayName: user.DisplayName,
			Role:        user.Role,
		},
	}, nil
}

// Authenticate verifies a session token and checks it has not been revoked
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	if token == "" {
		return nil, shared.NewDomainError(shared.ErrUnauthorized.Code, "Authentication required")
	}
	claims, err := s.sessions.Parse(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredSession) {
			return nil, shared.NewDomainError(shared.ErrUnauthorized.Code, "Session has expired")
		}
		return nil, shared.NewDomainError(shared.ErrUnauthorized.Code, "Invalid session")
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("Session revocation check failed", zap.String("session_id", claims.ID), zap.Error(err))
		return nil, shared.NewDomainError(shared.ErrUnavailable.Code, "Session store unavailable")
	}
	if revoked {
		return nil, shared.NewDomainError(shared.ErrUnauthorized.Code, auth.ErrRevokedSession.Error())
	}
	return claims, nil
}

// Logout revokes the session until it would have expired. Tokens that do
// not parse have nothing to revoke.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.sessions.Parse(token)
	if err != nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return err
	}
	s.logger.Info("User logged out", zap.String("username", claims.Username), zap.String("session_id", claims.ID))
	return nil
}

// CreateUser hashes the password and stores a new active user
func (s *AuthService) CreateUser(ctx context.Context, input CreateUserInput) (*identity.User, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if username == "" {
		return nil, shared.NewValidationError("Username is required", shared.FieldError{Field: "username", Message: "required"})
	}
	role := input.Role
	if role == "" {
		role = identity.RoleInspector
	}
	if !identity.ValidRole(role) {
		return nil, shared.NewValidationError("Unknown role "+role, shared.FieldError{Field: "role", Message: "must be admin, inspector or viewer"})
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, shared.NewValidationError(err.Error(), shared.FieldError{Field: "password", Message: err.Error()})
		}
		return nil, err
	}

	user := &identity.User{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  input.DisplayName,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
