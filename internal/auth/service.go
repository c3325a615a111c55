package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusgate.org/internal/ids"
	"campusgate.org/internal/obs"
)

// casRetries bounds the read-mutate-update loop. Conflicts on a single
// account are rare; five rounds is plenty before giving up.
const casRetries = 5

// Service orchestrates the credential store, password hasher, lockout policy
// and token issuer into the login/signup/reset/logout operations.
type Service struct {
	store Store
	cfg   Config
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the authentication service. The signing secret is
// required; every other Config field falls back to a default.
func NewService(store Store, cfg Config, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth: signing secret is required")
	}
	svc := &Service{
		store: store,
		cfg:   cfg.withDefaults(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Config returns the effective configuration after defaults were applied.
func (s *Service) Config() Config { return s.cfg }

// mutate runs a read-modify-persist sequence under the store's version CAS,
// retrying from a fresh read on conflict. This serializes mutations per
// account: concurrent failed logins cannot under- or over-count and session
// lists cannot lose writes.
func (s *Service) mutate(ctx context.Context, id string, fn func(*Administrator) error) (*Administrator, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		admin, err := s.store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(admin); err != nil {
			return nil, err
		}
		admin.ModifiedAt = s.now().UTC()
		err = s.store.Update(ctx, admin)
		if err == nil {
			return admin, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
	}
	return nil, ErrConflict
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Name            string
	UserName        string
	LoggedInDevices int
	Token           string
}

// Login authenticates an administrator by username and password and issues a
// session token bound to the caller's client context (user-agent string).
//
// Order of checks: existence, device ceiling, lockout, password. An unknown
// username and a wrong password both map to ErrUnauthorized so callers cannot
// distinguish which part failed; the lockout check runs before the password
// comparison so a locked account leaks nothing beyond "locked".
func (s *Service) Login(ctx context.Context, userName, password, clientContext string) (LoginResult, error) {
	admin, err := s.store.FindByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			obs.ObserveLogin("unknown_user")
			return LoginResult{}, ErrUnauthorized
		}
		return LoginResult{}, err
	}

	now := s.now().UTC()
	switch status := StatusOf(admin, s.cfg, now); status.State {
	case StateAtCapacity:
		obs.ObserveLogin("at_capacity")
		return LoginResult{}, ErrDeviceLimit
	case StateLocked:
		obs.ObserveLogin("locked")
		return LoginResult{}, &LockedError{Until: status.Until, now: now}
	}

	if err := VerifyPassword(admin.PasswordHash, password); err != nil {
		updated, merr := s.mutate(ctx, admin.ID, s.recordFailedAttempt)
		if merr != nil {
			return LoginResult{}, merr
		}
		if admin.FailedAttemptsLeft > 0 && updated.FailedAttemptsLeft == 0 {
			obs.LockoutArmed()
		}
		obs.ObserveLogin("bad_password")
		return LoginResult{}, ErrUnauthorized
	}

	token, err := s.issueToken(ctx, admin.ID, clientContext)
	if err != nil {
		obs.ObserveLogin("token_error")
		return LoginResult{}, fmt.Errorf("%w: %w", ErrTokenCreate, err)
	}

	// The ceiling is re-checked on the fresh read inside the CAS loop:
	// two concurrent logins at ceiling-1 both pass the early status check,
	// but only one may claim the last device slot. The loser's session slot
	// stays consumed and is reclaimed by FIFO retention.
	admin, err = s.mutate(ctx, admin.ID, func(a *Administrator) error {
		if a.LoggedInDevices >= s.cfg.DeviceCeiling {
			return ErrDeviceLimit
		}
		a.FailedAttemptsLeft = s.cfg.MaxFailedAttempts
		a.LastFailedAt = nil
		a.LoggedInDevices++
		t := s.now().UTC()
		a.LastLoginAt = &t
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDeviceLimit) {
			obs.ObserveLogin("at_capacity")
		}
		return LoginResult{}, err
	}

	obs.ObserveLogin("success")
	return LoginResult{
		Name:            admin.Name,
		UserName:        admin.UserName,
		LoggedInDevices: admin.LoggedInDevices,
		Token:           token,
	}, nil
}

// recordFailedAttempt burns one remaining attempt and stamps the failure
// time. The counter is floored at zero; the stamp re-arms the lockout window.
func (s *Service) recordFailedAttempt(a *Administrator) error {
	if a.FailedAttemptsLeft > 0 {
		a.FailedAttemptsLeft--
	}
	t := s.now().UTC()
	a.LastFailedAt = &t
	return nil
}

// Signup registers a new administrator with a unique username.
func (s *Service) Signup(ctx context.Context, name, userName, password, confirmPassword string) (*Administrator, error) {
	if _, err := s.store.FindByUserName(ctx, userName); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if password != confirmPassword {
		return nil, ErrPasswordMismatch
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	admin := &Administrator{
		ID:                 ids.New(),
		Name:               name,
		UserName:           userName,
		PasswordHash:       hash,
		FailedAttemptsLeft: s.cfg.MaxFailedAttempts,
		CreatedAt:          now,
		ModifiedAt:         now,
	}
	if err := s.store.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// ResetPassword replaces the account password after verifying the old one,
// then drops the presented session identifier so at least the current session
// has to authenticate again.
func (s *Service) ResetPassword(ctx context.Context, accountID, sessionID, oldPassword, newPassword, confirmPassword string) error {
	admin, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrForbidden
		}
		return err
	}
	if err := VerifyPassword(admin.PasswordHash, oldPassword); err != nil {
		return fmt.Errorf("%w: wrong password", ErrForbidden)
	}
	if newPassword == oldPassword {
		return ErrPasswordUnchanged
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	var removed bool
	_, err = s.mutate(ctx, accountID, func(a *Administrator) error {
		a.PasswordHash = hash
		before := len(a.SessionIdentifiers)
		a.SessionIdentifiers = removeSession(a.SessionIdentifiers, sessionID)
		removed = len(a.SessionIdentifiers) != before
		return nil
	})
	if err != nil {
		return err
	}
	if removed {
		obs.SessionClosed()
	}
	return nil
}

// Logout releases one device slot and revokes the presented session
// identifier. The device count is floored at zero.
func (s *Service) Logout(ctx context.Context, accountID, sessionID string) error {
	var removed bool
	_, err := s.mutate(ctx, accountID, func(a *Administrator) error {
		if a.LoggedInDevices > 0 {
			a.LoggedInDevices--
		}
		before := len(a.SessionIdentifiers)
		a.SessionIdentifiers = removeSession(a.SessionIdentifiers, sessionID)
		removed = len(a.SessionIdentifiers) != before
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrForbidden
		}
		return err
	}
	if removed {
		obs.SessionClosed()
	}
	return nil
}

// DeleteAccount removes the requester's own record. The requester must still
// map to a live account.
func (s *Service) DeleteAccount(ctx context.Context, accountID string) error {
	admin, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrForbidden
		}
		return err
	}
	deleted, err := s.store.Delete(ctx, accountID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotAcknowledged
	}
	obs.SessionsEnded(len(admin.SessionIdentifiers))
	return nil
}

// Verify confirms the account id still maps to a live administrator. Used by
// downstream authorization middleware; returns ErrUnauthorized otherwise.
func (s *Service) Verify(ctx context.Context, accountID string) error {
	if _, err := s.store.FindByID(ctx, accountID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	return nil
}

func removeSession(sessions []string, sessionID string) []string {
	out := sessions[:0]
	for _, sid := range sessions {
		if sid != sessionID {
			out = append(out, sid)
		}
	}
	return out
}
