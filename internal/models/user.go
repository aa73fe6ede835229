package models

import (
	"time"

	"trailkeeper/internal/tracking"
)

// User represents the user model in the database
type User struct {
	Base
	Email               string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash        string     `gorm:"not null" json:"-"`
	FullName            string     `gorm:"size:100" json:"full_name"`
	RefreshTokenHash    string     `gorm:"size:64" json:"-"`
	RefreshTokenExpiry  *time.Time `json:"-"`
	FailedLoginAttempts int        `gorm:"not null" json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) DataFields() []tracking.Field {
	return []tracking.Field{
		tracking.NewField("email", tracking.String(u.Email)),
		tracking.NewField("passwordHash", tracking.String(u.PasswordHash)),
		tracking.NewField("fullName", tracking.String(u.FullName)),
		tracking.NewField("refreshTokenHash", tracking.String(u.RefreshTokenHash)),
		tracking.NewField("refreshTokenExpiry", tracking.OptTime(u.RefreshTokenExpiry)),
		tracking.NewField("failedLoginAttempts", tracking.Int(int64(u.FailedLoginAttempts))),
		tracking.NewField("lastLoginAt", tracking.OptTime(u.LastLoginAt)),
		tracking.NewField("active", tracking.Bool(u.Active)),
	}
}
