package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"campusgate.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const adminColumns = `id, name, user_name, password_hash, session_identifiers,
	logged_in_devices, failed_attempts_left, last_failed_at, last_login_at,
	created_at, modified_at, version`

func (s *PGStore) Create(ctx context.Context, a *Administrator) error {
	if a.ID == "" {
		a.ID = ids.New()
	}
	sessions, _ := json.Marshal(a.SessionIdentifiers)
	_, err := s.db.ExecContext(ctx,
		`insert into administrators(id, name, user_name, password_hash, session_identifiers,
			logged_in_devices, failed_attempts_left, last_failed_at, last_login_at, created_at, modified_at, version)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		a.ID, a.Name, a.UserName, a.PasswordHash, sessions,
		a.LoggedInDevices, a.FailedAttemptsLeft, a.LastFailedAt, a.LastLoginAt,
		a.CreatedAt, a.ModifiedAt, a.Version,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (s *PGStore) FindByID(ctx context.Context, id string) (*Administrator, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+adminColumns+` from administrators where id=$1`, id)
	return scanAdmin(row)
}

func (s *PGStore) FindByUserName(ctx context.Context, userName string) (*Administrator, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+adminColumns+` from administrators where user_name=$1`, userName)
	return scanAdmin(row)
}

// Update is a compare-and-swap on the version column. Concurrent writers for
// the same account lose with ErrConflict and the caller retries from a fresh
// read.
func (s *PGStore) Update(ctx context.Context, a *Administrator) error {
	sessions, _ := json.Marshal(a.SessionIdentifiers)
	res, err := s.db.ExecContext(ctx,
		`update administrators set name=$2, password_hash=$3, session_identifiers=$4,
			logged_in_devices=$5, failed_attempts_left=$6, last_failed_at=$7, last_login_at=$8,
			modified_at=$9, version=version+1
		 where id=$1 and version=$10`,
		a.ID, a.Name, a.PasswordHash, sessions,
		a.LoggedInDevices, a.FailedAttemptsLeft, a.LastFailedAt, a.LastLoginAt,
		a.ModifiedAt, a.Version,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConflict
	}
	a.Version++
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `delete from administrators where id=$1`, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdmin(row rowScanner) (*Administrator, error) {
	var (
		a          Administrator
		sessions   []byte
		lastFailed sql.NullTime
		lastLogin  sql.NullTime
	)
	err := row.Scan(&a.ID, &a.Name, &a.UserName, &a.PasswordHash, &sessions,
		&a.LoggedInDevices, &a.FailedAttemptsLeft, &lastFailed, &lastLogin,
		&a.CreatedAt, &a.ModifiedAt, &a.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	_ = json.Unmarshal(sessions, &a.SessionIdentifiers)
	if lastFailed.Valid {
		t := lastFailed.Time.UTC()
		a.LastFailedAt = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		a.LastLoginAt = &t
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
