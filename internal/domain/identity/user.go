package identity

import (
	"context"
	"time"
)

// Roles
const (
	RoleAdmin     = "admin"
	RoleInspector = "inspector"
	RoleViewer    = "viewer"
)

// User is an operator allowed to sign in
type User struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"column:username;type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"column:password_hash;type:varchar(100);not null" json:"-"`
	DisplayName  string     `gorm:"column:display_name;type:varchar(100)" json:"display_name"`
	Role         string     `gorm:"column:role;type:varchar(20);not null" json:"role"`
	IsActive     bool       `gorm:"column:is_active;not null" json:"is_active"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName implements gorm's tabler
func (User) TableName() string { return "users" }

// UserRepository persists users
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, user *User) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// ValidRole reports whether role is a known role
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleInspector, RoleViewer:
		return true
	}
	return false
}
