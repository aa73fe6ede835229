package testutil_test

import (
	"testing"

	"trailkeeper/internal/errors"
	"trailkeeper/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "user_profiles", "audit_log"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDBIsolated(t *testing.T) {
	a := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, a)
	b := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, b)

	testutil.CreateTestUser(t, a)

	var n int64
	b.Table("users").Count(&n)
	if n != 0 {
		t.Errorf("expected an empty second database, got %d users", n)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}
	if user.CreatedBy != "SYSTEM" || !user.Active {
		t.Errorf("expected system-stamped active user, got %q active=%v", user.CreatedBy, user.Active)
	}

	profile := testutil.CreateTestProfile(t, db, user.ID)
	if profile.UserID != user.ID {
		t.Errorf("expected profile for %s, got %s", user.ID, profile.UserID)
	}
	if !profile.EmailNotifications {
		t.Error("expected default email notifications on")
	}

	if n := testutil.CountAuditLogs(t, db, ""); n != 0 {
		t.Errorf("fixtures must not write audit rows, got %d", n)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrProfileNotFound, "custom message")
	testutil.AssertAppError(t, err, "PROFILE_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
