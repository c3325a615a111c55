package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

var adminColumnNames = []string{
	"id", "name", "user_name", "password_hash", "session_identifiers",
	"logged_in_devices", "failed_attempts_left", "last_failed_at", "last_login_at",
	"created_at", "modified_at", "version",
}

func newMockStore(t *testing.T) (*PGStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return NewPGStore(db), mock
}

func TestPGFindByUserName(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(adminColumnNames).AddRow(
		"adm-1", "Alice", "alice1", "$2a$10$hash", []byte(`["sid-1","sid-2"]`),
		2, 3, nil, now, now, now, int64(4),
	)
	mock.ExpectQuery(`(?s)select .+ from administrators where user_name=\$1`).
		WithArgs("alice1").
		WillReturnRows(rows)

	admin, err := store.FindByUserName(context.Background(), "alice1")
	if err != nil {
		t.Fatalf("FindByUserName: %v", err)
	}
	if admin.ID != "adm-1" || admin.Version != 4 || admin.LoggedInDevices != 2 {
		t.Fatalf("unexpected record: %+v", admin)
	}
	if len(admin.SessionIdentifiers) != 2 || admin.SessionIdentifiers[0] != "sid-1" {
		t.Fatalf("sessions not decoded: %v", admin.SessionIdentifiers)
	}
	if admin.LastFailedAt != nil {
		t.Fatalf("null last_failed_at decoded as %v", admin.LastFailedAt)
	}
	if admin.LastLoginAt == nil || !admin.LastLoginAt.Equal(now) {
		t.Fatalf("last_login_at not decoded: %v", admin.LastLoginAt)
	}
}

func TestPGFindByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`(?s)select .+ from administrators where id=\$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(adminColumnNames))

	if _, err := store.FindByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGCreateDuplicateUserName(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`insert into administrators`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := store.Create(context.Background(), &Administrator{ID: "adm-1", UserName: "alice1"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestPGUpdateStaleVersion(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`(?s)update administrators set .+ where id=\$1 and version=\$10`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Update(context.Background(), &Administrator{ID: "adm-1", Version: 3})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestPGUpdateBumpsVersion(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`(?s)update administrators set .+ where id=\$1 and version=\$10`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	admin := &Administrator{ID: "adm-1", Version: 3}
	if err := store.Update(context.Background(), admin); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if admin.Version != 4 {
		t.Fatalf("version not bumped: %d", admin.Version)
	}
}

func TestPGDelete(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`delete from administrators where id=\$1`).
		WithArgs("adm-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`delete from administrators where id=\$1`).
		WithArgs("adm-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := store.Delete(context.Background(), "adm-1")
	if err != nil || !deleted {
		t.Fatalf("first delete: deleted=%v err=%v", deleted, err)
	}
	deleted, err = store.Delete(context.Background(), "adm-1")
	if err != nil || deleted {
		t.Fatalf("second delete: deleted=%v err=%v", deleted, err)
	}
}
