package testutil

import (
	"errors"
	"slices"
	"testing"

	apperrors "trailkeeper/internal/errors"
	"trailkeeper/internal/models"
	"trailkeeper/internal/tracking"
)

// AssertAppError checks that err is an *AppError carrying the expected code.
func AssertAppError(t *testing.T, err error, code string) {
	t.Helper()

	var appErr *apperrors.AppError
	switch {
	case err == nil:
		t.Fatalf("expected %s, got nil", code)
	case !errors.As(err, &appErr):
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	case appErr.Code != code:
		t.Errorf("expected %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertAuditRow checks the identifying columns of a stored audit row.
func AssertAuditRow(t *testing.T, row models.AuditLog, table, action, actor string) {
	t.Helper()

	if row.Table != table {
		t.Errorf("expected table %s, got %s", table, row.Table)
	}
	if row.Action != action {
		t.Errorf("expected action %s, got %s", action, row.Action)
	}
	if row.CreatedBy != actor {
		t.Errorf("expected created_by %s, got %s", actor, row.CreatedBy)
	}
}

// AssertAffectedColumns decodes the affected_columns column and compares it
// with want in order. No arguments means the column must be NULL.
func AssertAffectedColumns(t *testing.T, row models.AuditLog, want ...string) {
	t.Helper()

	got, err := tracking.DecodeColumns(row.AffectedColumns)
	if err != nil {
		t.Fatalf("decode affected columns: %v", err)
	}
	if len(want) == 0 && row.AffectedColumns != nil {
		t.Errorf("expected NULL affected columns, got %s", *row.AffectedColumns)
		return
	}
	if !slices.Equal(got, want) {
		t.Errorf("expected affected columns %v, got %v", want, got)
	}
}
