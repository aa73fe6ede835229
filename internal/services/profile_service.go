package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"trailkeeper/internal/database"
	apperrors "trailkeeper/internal/errors"
	"trailkeeper/internal/models"
	"trailkeeper/internal/unitofwork"
)

// profileService handles profile business logic.
type profileService struct {
	db      *gorm.DB
	audit   AuditServicer
	uowOpts []unitofwork.Option
}

// NewProfileService creates a new ProfileServicer.
func NewProfileService(db *gorm.DB, audit AuditServicer, opts ...unitofwork.Option) ProfileServicer {
	return &profileService{db: db, audit: audit, uowOpts: opts}
}

// GetProfile retrieves the profile of a user.
func (s *profileService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := database.Conn(ctx, s.db).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProfileNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &profile, nil
}

// UpdateProfile applies a sparse patch. Only the fields whose value actually
// changes end up in the audit record; a patch that changes nothing writes
// nothing.
func (s *profileService) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch, actor string) (*models.UserProfile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	uow := unitofwork.New(s.db, s.audit, actor, s.uowOpts...)
	if err := uow.Attach(profile); err != nil {
		return nil, err
	}
	patch.apply(profile)
	if err := uow.Update(profile); err != nil {
		return nil, err
	}
	if _, err := uow.Commit(ctx); err != nil {
		return nil, err
	}
	return profile, nil
}

func (p ProfilePatch) apply(profile *models.UserProfile) {
	setString(&profile.FullName, p.FullName)
	setString(&profile.IdentityNumber, p.IdentityNumber)
	setString(&profile.TaxNumber, p.TaxNumber)
	if p.DateOfBirth != nil {
		dob := p.DateOfBirth.UTC().Truncate(time.Microsecond)
		profile.DateOfBirth = &dob
	}
	setString(&profile.Gender, p.Gender)
	setString(&profile.Address, p.Address)
	setString(&profile.City, p.City)
	setString(&profile.State, p.State)
	setString(&profile.Country, p.Country)
	setString(&profile.ZipCode, p.ZipCode)
	setString(&profile.PhoneNumber, p.PhoneNumber)
	setString(&profile.ProfilePictureURL, p.ProfilePictureURL)
	setBool(&profile.EmailNotifications, p.EmailNotifications)
	setBool(&profile.PushNotifications, p.PushNotifications)
	setBool(&profile.TwoFactorEnabled, p.TwoFactorEnabled)
	setOptString(&profile.LinkedInURL, p.LinkedInURL)
	setOptString(&profile.TwitterURL, p.TwitterURL)
	setOptString(&profile.FacebookURL, p.FacebookURL)
	setOptString(&profile.InstagramURL, p.InstagramURL)
	setBool(&profile.ProfileVisibility, p.ProfileVisibility)
	setBool(&profile.ShowEmail, p.ShowEmail)
	setBool(&profile.ShowBirthDate, p.ShowBirthDate)
	setBool(&profile.IsProfileComplete, p.IsProfileComplete)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// setOptString clears the column when the patch carries an empty string.
func setOptString(dst **string, v *string) {
	if v == nil {
		return
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		*dst = nil
		return
	}
	*dst = &s
}
