package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"trailkeeper/internal/models"
	"trailkeeper/internal/tracking"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email, stamped as
// created by the system actor. No audit rows are written.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Test User",
	}
	tracking.Stamp(user, tracking.Added, tracking.SystemActor, time.Now().UTC().Truncate(time.Microsecond))
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestProfile creates an empty profile for the user.
func CreateTestProfile(t *testing.T, db *gorm.DB, userID string) *models.UserProfile {
	t.Helper()

	profile := models.NewUserProfile(userID, "Test User")
	tracking.Stamp(profile, tracking.Added, tracking.SystemActor, time.Now().UTC().Truncate(time.Microsecond))
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	return profile
}
