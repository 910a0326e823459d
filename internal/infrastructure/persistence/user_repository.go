package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qcms/backend/internal/domain/identity"
	"github.com/qcms/backend/internal/domain/shared"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByUsername finds an active or inactive user by case-insensitive username
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	var user identity.User
	err := r.db.WithContext(ctx).
		Where("username = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create inserts a user; usernames are stored lower-cased
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError(shared.ErrAlreadyExists.Code, "username already exists")
		}
		return err
	}
	return nil
}

// TouchLastLogin records a successful login
func (r *GormUserRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&identity.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
