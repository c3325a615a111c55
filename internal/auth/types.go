package auth

import "time"

// Administrator is the single principal type authenticated by this service.
type Administrator struct {
	ID                 string
	Name               string
	UserName           string
	PasswordHash       string
	SessionIdentifiers []string
	LoggedInDevices    int
	FailedAttemptsLeft int
	LastFailedAt       *time.Time
	LastLoginAt        *time.Time
	CreatedAt          time.Time
	ModifiedAt         time.Time

	// Version guards read-modify-persist sequences. Every successful Update
	// increments it; a stale write fails with ErrConflict.
	Version int64
}

// Config carries the process-wide authentication settings. It is constructed
// at startup and injected; nothing in this package reads the environment.
type Config struct {
	Secret            []byte
	TokenTTL          time.Duration
	MaxFailedAttempts int
	LockoutWindow     time.Duration
	SessionCapacity   int
	DeviceCeiling     int
	Issuer            string
}

const (
	defaultTokenTTL          = 24 * time.Hour
	defaultMaxFailedAttempts = 3
	defaultLockoutWindow     = 5 * time.Minute
	defaultSessionCapacity   = 3
	defaultDeviceCeiling     = 2
	defaultIssuer            = "campusgate"
)

// withDefaults fills in zero-valued fields so callers only need to set the
// secret and whatever they want to override.
func (c Config) withDefaults() Config {
	if c.TokenTTL <= 0 {
		c.TokenTTL = defaultTokenTTL
	}
	if c.MaxFailedAttempts <= 0 {
		c.MaxFailedAttempts = defaultMaxFailedAttempts
	}
	if c.LockoutWindow <= 0 {
		c.LockoutWindow = defaultLockoutWindow
	}
	if c.SessionCapacity <= 0 {
		c.SessionCapacity = defaultSessionCapacity
	}
	if c.DeviceCeiling <= 0 {
		c.DeviceCeiling = defaultDeviceCeiling
	}
	if c.Issuer == "" {
		c.Issuer = defaultIssuer
	}
	return c
}
