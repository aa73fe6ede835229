package services

import (
	"context"
	"testing"

	"trailkeeper/internal/models"
	"trailkeeper/internal/testutil"
	"trailkeeper/internal/unitofwork"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestUpdateProfile(t *testing.T) {
	t.Run("phone_only_patch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		audit := newTestAuditService(db)
		svc := NewProfileService(db, audit, unitofwork.WithClock(testutil.FixedClock(auditNow)))
		user := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestProfile(t, db, user.ID)

		profile, err := svc.UpdateProfile(context.Background(), user.ID, ProfilePatch{PhoneNumber: strPtr("+4712345678")}, user.ID)
		testutil.AssertNoError(t, err)
		if profile.PhoneNumber != "+4712345678" {
			t.Errorf("expected phone updated, got %s", profile.PhoneNumber)
		}
		if profile.LastModifiedTime == nil || !profile.LastModifiedTime.Equal(auditNow) {
			t.Errorf("expected last_modified_time %v, got %v", auditNow, profile.LastModifiedTime)
		}

		logs, err := audit.GetRecentEntityLogs(context.Background(), "UserProfile", created.ID, 10)
		testutil.AssertNoError(t, err)
		if len(logs) != 1 {
			t.Fatalf("expected 1 audit row, got %d", len(logs))
		}
		testutil.AssertAuditRow(t, logs[0], "user_profiles", "UPDATED", user.ID)
		testutil.AssertAffectedColumns(t, logs[0], "phoneNumber")
		entry, err := DecodeAuditLog(logs[0])
		testutil.AssertNoError(t, err)
		if len(entry.OldValues) != 1 || len(entry.NewValues) != 1 {
			t.Errorf("expected only the changed field, got old=%v new=%v", entry.OldValues, entry.NewValues)
		}
		if got, _ := entry.OldValues["phoneNumber"].AsString(); got != "" {
			t.Errorf("expected empty old phone, got %q", got)
		}
		if entry.CreatedBy != user.ID {
			t.Errorf("expected created_by %s, got %s", user.ID, entry.CreatedBy)
		}
	})

	t.Run("unchanged_patch_writes_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProfileService(db, newTestAuditService(db))
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestProfile(t, db, user.ID)

		profile, err := svc.UpdateProfile(context.Background(), user.ID, ProfilePatch{
			FullName:           strPtr("Test User"),
			EmailNotifications: boolPtr(true),
		}, user.ID)
		testutil.AssertNoError(t, err)
		if profile.LastModifiedTime != nil {
			t.Errorf("expected no version bump, got %v", profile.LastModifiedTime)
		}
		if got := testutil.CountAuditLogs(t, db, ""); got != 0 {
			t.Errorf("expected no audit rows, got %d", got)
		}
	})

	t.Run("clear_social_link", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProfileService(db, newTestAuditService(db))
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestProfile(t, db, user.ID)

		_, err := svc.UpdateProfile(context.Background(), user.ID, ProfilePatch{LinkedInURL: strPtr("https://linkedin.com/in/t")}, user.ID)
		testutil.AssertNoError(t, err)
		profile, err := svc.UpdateProfile(context.Background(), user.ID, ProfilePatch{LinkedInURL: strPtr("")}, user.ID)
		testutil.AssertNoError(t, err)
		if profile.LinkedInURL != nil {
			t.Errorf("expected link cleared, got %v", *profile.LinkedInURL)
		}

		var stored models.UserProfile
		testutil.AssertNoError(t, db.Where("user_id = ?", user.ID).First(&stored).Error)
		if stored.LinkedInURL != nil {
			t.Errorf("expected stored link cleared, got %v", *stored.LinkedInURL)
		}
		if got := testutil.CountAuditLogs(t, db, "user_profiles"); got != 2 {
			t.Errorf("expected 2 audit rows, got %d", got)
		}
	})

	t.Run("profile_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProfileService(db, newTestAuditService(db))

		_, err := svc.UpdateProfile(context.Background(), "missing", ProfilePatch{City: strPtr("Oslo")}, "")
		testutil.AssertAppError(t, err, "PROFILE_NOT_FOUND")
	})
}

func TestGetProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewProfileService(db, newTestAuditService(db))
	user := testutil.CreateTestUser(t, db)
	testutil.CreateTestProfile(t, db, user.ID)

	profile, err := svc.GetProfile(context.Background(), user.ID)
	testutil.AssertNoError(t, err)
	if profile.UserID != user.ID {
		t.Errorf("expected profile of %s, got %s", user.ID, profile.UserID)
	}
	if !profile.EmailNotifications || !profile.ProfileVisibility {
		t.Error("expected default preferences")
	}
}
