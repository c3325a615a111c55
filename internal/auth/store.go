package auth

import "context"

// Store describes the persistence operations required by the auth service.
// Implementations must treat Update as a compare-and-swap keyed on
// Administrator.Version and return ErrConflict on a stale write, so the
// service can serialize mutations per account without in-process locks.
type Store interface {
	// Create persists a new record. Returns ErrAlreadyExists when the
	// username is taken (case-sensitive exact match).
	Create(ctx context.Context, a *Administrator) error

	// FindByID returns the record or ErrNotFound.
	FindByID(ctx context.Context, id string) (*Administrator, error)

	// FindByUserName returns the record or ErrNotFound.
	FindByUserName(ctx context.Context, userName string) (*Administrator, error)

	// Update writes the record iff the stored version equals a.Version,
	// then bumps a.Version. Returns ErrConflict on a version mismatch.
	Update(ctx context.Context, a *Administrator) error

	// Delete removes the record by id and reports whether a row was
	// actually deleted.
	Delete(ctx context.Context, id string) (bool, error)
}
