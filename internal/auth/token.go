package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"campusgate.org/internal/obs"
)

// Claims is the JWT payload of a session token. The session identifier allows
// selective revocation of one session without invalidating the rest.
type Claims struct {
	SessionID     string `json:"sid"`
	UserName      string `json:"user_name"`
	DisplayName   string `json:"display_name"`
	ClientContext string `json:"client_context,omitempty"`
	jwt.RegisteredClaims
}

// issueToken mints a signed session token for the account and records the
// fresh session identifier in the credential store, evicting the oldest entry
// once the retention capacity is exceeded.
//
// The session list is persisted before signing. If signing fails afterwards
// the slot stays consumed; callers surface that as a token-creation failure
// rather than attempting a rollback.
func (s *Service) issueToken(ctx context.Context, accountID, clientContext string) (string, error) {
	sessionID := uuid.NewString()

	var evicted int
	admin, err := s.mutate(ctx, accountID, func(a *Administrator) error {
		a.SessionIdentifiers = append(a.SessionIdentifiers, sessionID)
		evicted = 0
		if over := len(a.SessionIdentifiers) - s.cfg.SessionCapacity; over > 0 {
			a.SessionIdentifiers = a.SessionIdentifiers[over:]
			evicted = over
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("record session: %w", err)
	}
	obs.SessionOpened()
	obs.SessionsEnded(evicted)

	now := s.now().UTC()
	claims := Claims{
		SessionID:     sessionID,
		UserName:      admin.UserName,
		DisplayName:   admin.Name,
		ClientContext: clientContext,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   admin.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies the token signature and registered claims and returns
// the decoded payload. Revocation is checked separately via IsRevoked.
func (s *Service) ParseToken(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.cfg.Secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != s.cfg.Issuer {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsRevoked reports whether the presented session identifier is no longer
// valid for the account. A missing account or empty session list means
// revoked: the check fails closed.
func (s *Service) IsRevoked(ctx context.Context, accountID, sessionID string) bool {
	admin, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		return true
	}
	for _, sid := range admin.SessionIdentifiers {
		if sid == sessionID {
			return false
		}
	}
	return true
}

// Authenticate parses the token and rejects it if the embedded session has
// been revoked. Intended to run per privileged request, independent of the
// token's own expiry check.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.ParseToken(token)
	if err != nil {
		return nil, err
	}
	if s.IsRevoked(ctx, claims.Subject, claims.SessionID) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
