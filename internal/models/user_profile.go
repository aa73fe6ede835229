package models

import (
	"time"

	"trailkeeper/internal/tracking"
)

// UserProfile holds the personal data and preferences of a user. It is
// created empty at registration and edited through sparse patches.
type UserProfile struct {
	Base
	UserID             string     `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	FullName           string     `gorm:"size:100" json:"full_name"`
	IdentityNumber     string     `gorm:"size:16" json:"identity_number"`
	TaxNumber          string     `gorm:"size:16" json:"tax_number"`
	DateOfBirth        *time.Time `json:"date_of_birth,omitempty"`
	Gender             string     `gorm:"size:10" json:"gender"`
	Address            string     `gorm:"size:200" json:"address"`
	City               string     `gorm:"size:50" json:"city"`
	State              string     `gorm:"size:50" json:"state"`
	Country            string     `gorm:"size:50" json:"country"`
	ZipCode            string     `gorm:"size:20" json:"zip_code"`
	PhoneNumber        string     `gorm:"size:20" json:"phone_number"`
	ProfilePictureURL  string     `gorm:"size:255" json:"profile_picture_url"`
	EmailNotifications bool       `gorm:"not null" json:"email_notifications"`
	PushNotifications  bool       `gorm:"not null" json:"push_notifications"`
	TwoFactorEnabled   bool       `gorm:"not null" json:"two_factor_enabled"`
	LinkedInURL        *string    `gorm:"size:255" json:"linkedin_url,omitempty"`
	TwitterURL         *string    `gorm:"size:255" json:"twitter_url,omitempty"`
	FacebookURL        *string    `gorm:"size:255" json:"facebook_url,omitempty"`
	InstagramURL       *string    `gorm:"size:255" json:"instagram_url,omitempty"`
	ProfileVisibility  bool       `gorm:"not null" json:"profile_visibility"`
	ShowEmail          bool       `gorm:"not null" json:"show_email"`
	ShowBirthDate      bool       `gorm:"not null" json:"show_birth_date"`
	IsProfileComplete  bool       `gorm:"not null" json:"is_profile_complete"`
}

func (UserProfile) TableName() string { return "user_profiles" }

// NewUserProfile returns an empty profile with the default preferences.
func NewUserProfile(userID, fullName string) *UserProfile {
	return &UserProfile{
		UserID:             userID,
		FullName:           fullName,
		EmailNotifications: true,
		PushNotifications:  true,
		ProfileVisibility:  true,
	}
}

func (p *UserProfile) DataFields() []tracking.Field {
	return []tracking.Field{
		tracking.NewField("userId", tracking.String(p.UserID)),
		tracking.NewField("fullName", tracking.String(p.FullName)),
		tracking.NewField("identityNumber", tracking.String(p.IdentityNumber)),
		tracking.NewField("taxNumber", tracking.String(p.TaxNumber)),
		tracking.NewField("dateOfBirth", tracking.OptTime(p.DateOfBirth)),
		tracking.NewField("gender", tracking.String(p.Gender)),
		tracking.NewField("address", tracking.String(p.Address)),
		tracking.NewField("city", tracking.String(p.City)),
		tracking.NewField("state", tracking.String(p.State)),
		tracking.NewField("country", tracking.String(p.Country)),
		tracking.NewField("zipCode", tracking.String(p.ZipCode)),
		tracking.NewField("phoneNumber", tracking.String(p.PhoneNumber)),
		tracking.NewField("profilePictureUrl", tracking.String(p.ProfilePictureURL)),
		tracking.NewField("emailNotifications", tracking.Bool(p.EmailNotifications)),
		tracking.NewField("pushNotifications", tracking.Bool(p.PushNotifications)),
		tracking.NewField("twoFactorEnabled", tracking.Bool(p.TwoFactorEnabled)),
		tracking.NewField("linkedInUrl", tracking.OptString(p.LinkedInURL)),
		tracking.NewField("twitterUrl", tracking.OptString(p.TwitterURL)),
		tracking.NewField("facebookUrl", tracking.OptString(p.FacebookURL)),
		tracking.NewField("instagramUrl", tracking.OptString(p.InstagramURL)),
		tracking.NewField("profileVisibility", tracking.Bool(p.ProfileVisibility)),
		tracking.NewField("showEmail", tracking.Bool(p.ShowEmail)),
		tracking.NewField("showBirthDate", tracking.Bool(p.ShowBirthDate)),
		tracking.NewField("isProfileComplete", tracking.Bool(p.IsProfileComplete)),
		tracking.NewField("active", tracking.Bool(p.Active)),
	}
}
