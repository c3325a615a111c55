package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound          = errors.New("auth: not found")
	ErrAlreadyExists     = errors.New("auth: username already exists")
	ErrUnauthorized      = errors.New("auth: unauthorized")
	ErrForbidden         = errors.New("auth: forbidden")
	ErrDeviceLimit       = errors.New("auth: logged in to the maximum number of devices")
	ErrPasswordMismatch  = errors.New("auth: passwords do not match")
	ErrPasswordUnchanged = errors.New("auth: new password must differ from the old one")
	ErrNotAcknowledged   = errors.New("auth: change was not acknowledged by the store")
	ErrTokenCreate       = errors.New("auth: failed to create token")
	ErrConflict          = errors.New("auth: concurrent modification")
	ErrInvalidToken      = errors.New("auth: invalid token")
)

// LockedError reports that an account exhausted its failed attempts and is in
// the cooldown window. It is returned before any password comparison so a
// locked account leaks nothing about password correctness.
type LockedError struct {
	Until time.Time
	now   time.Time
}

func (e *LockedError) Error() string {
	remaining := e.Until.Sub(e.now).Round(time.Second)
	if remaining < time.Second {
		remaining = time.Second
	}
	return fmt.Sprintf("account locked, try again in %s", remaining)
}
