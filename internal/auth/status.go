package auth

import "time"

// AccountState is the derived login-time state of an administrator account.
// It is never stored; it is recomputed from the persisted counters on every
// attempt.
type AccountState int

const (
	StateActive AccountState = iota
	StateLocked
	StateAtCapacity
)

func (s AccountState) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateAtCapacity:
		return "at_capacity"
	default:
		return "active"
	}
}

// AccountStatus pairs the derived state with the lockout deadline when the
// state is StateLocked.
type AccountStatus struct {
	State AccountState
	Until time.Time
}

// StatusOf computes the account status from the stored counters and the
// current time. Pure function, no side effects.
//
// Capacity takes precedence over lockout: a login is refused for the device
// ceiling before the failure counters are even consulted, matching the order
// of checks in Service.Login.
func StatusOf(a *Administrator, cfg Config, now time.Time) AccountStatus {
	if a.LoggedInDevices >= cfg.DeviceCeiling {
		return AccountStatus{State: StateAtCapacity}
	}
	if a.FailedAttemptsLeft <= 0 && a.LastFailedAt != nil {
		until := a.LastFailedAt.Add(cfg.LockoutWindow)
		if now.Before(until) {
			return AccountStatus{State: StateLocked, Until: until}
		}
	}
	return AccountStatus{State: StateActive}
}
