package services

import (
	"context"
	"time"

	"trailkeeper/internal/models"
	"trailkeeper/internal/tracking"
	"trailkeeper/internal/unitofwork"
)

// AuditServicer is the audit sink: it persists change records produced by
// units-of-work, accepts free-form events, and answers the two lookups
// operators need. Write failures are always returned, never swallowed.
type AuditServicer interface {
	unitofwork.AuditWriter

	WriteEvent(ctx context.Context, table, action, subjectID string, payload tracking.Values, actor string) (*models.AuditLog, error)
	LogEntityChange(ctx context.Context, entityName, entityID string, oldValues, newValues tracking.Values, actor string) (*models.AuditLog, error)
	LogCustomEvent(ctx context.Context, table, action, entityID string, payload tracking.Values, actor string) error
	LogUserActivity(ctx context.Context, actorID, action string, metadata tracking.Values) error
	LogSecurityEvent(ctx context.Context, actorID, eventType, ipAddress, clientLabel string, details tracking.Values) error
	LogBulkChanges(ctx context.Context, records []tracking.ChangeRecord, actor string) ([]models.AuditLog, error)

	GetRecentEntityLogs(ctx context.Context, table, entityID string, limit int) ([]models.AuditLog, error)
	GetActorActivityLogs(ctx context.Context, actorID string, limit int) ([]models.AuditLog, error)
}

// UserServicer defines the contract for account business logic. Every
// mutation runs through a unit-of-work and is audited.
type UserServicer interface {
	Register(ctx context.Context, email, password, fullName, actor string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	Deactivate(ctx context.Context, id, actor string) (*models.User, error)
	Reactivate(ctx context.Context, id, actor string) (*models.User, error)
	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error
	RotateRefreshToken(ctx context.Context, userID, presentedHash, newHash string, expiry time.Time) error
	RevokeRefreshToken(ctx context.Context, userID string) error
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
}

// ProfilePatch is a sparse profile update: nil fields are left untouched.
type ProfilePatch struct {
	FullName           *string    `json:"full_name" binding:"omitempty,max=100"`
	IdentityNumber     *string    `json:"identity_number" binding:"omitempty,max=16"`
	TaxNumber          *string    `json:"tax_number" binding:"omitempty,max=16"`
	DateOfBirth        *time.Time `json:"date_of_birth"`
	Gender             *string    `json:"gender" binding:"omitempty,max=10"`
	Address            *string    `json:"address" binding:"omitempty,max=200"`
	City               *string    `json:"city" binding:"omitempty,max=50"`
	State              *string    `json:"state" binding:"omitempty,max=50"`
	Country            *string    `json:"country" binding:"omitempty,max=50"`
	ZipCode            *string    `json:"zip_code" binding:"omitempty,max=20"`
	PhoneNumber        *string    `json:"phone_number" binding:"omitempty,phone"`
	ProfilePictureURL  *string    `json:"profile_picture_url" binding:"omitempty,url,max=255"`
	EmailNotifications *bool      `json:"email_notifications"`
	PushNotifications  *bool      `json:"push_notifications"`
	TwoFactorEnabled   *bool      `json:"two_factor_enabled"`
	LinkedInURL        *string    `json:"linkedin_url" binding:"omitempty,url,max=255"`
	TwitterURL         *string    `json:"twitter_url" binding:"omitempty,url,max=255"`
	FacebookURL        *string    `json:"facebook_url" binding:"omitempty,url,max=255"`
	InstagramURL       *string    `json:"instagram_url" binding:"omitempty,url,max=255"`
	ProfileVisibility  *bool      `json:"profile_visibility"`
	ShowEmail          *bool      `json:"show_email"`
	ShowBirthDate      *bool      `json:"show_birth_date"`
	IsProfileComplete  *bool      `json:"is_profile_complete"`
}

// ProfileServicer defines the contract for profile business logic.
type ProfileServicer interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, patch ProfilePatch, actor string) (*models.UserProfile, error)
}
