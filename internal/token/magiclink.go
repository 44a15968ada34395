package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/coursemark/coursemark/internal/model"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// ErrInvalidLink is returned for a magic link that was tampered with or was
// never issued by this deployment.
var ErrInvalidLink = errors.New("invalid magic link")

type magicLinkClaims struct {
	MarkerID uint `json:"marker_id"`
	jwt.RegisteredClaims
}

// IssueMagicLink signs a time-limited passwordless login token for a marker.
func IssueMagicLink(secret []byte, markerID uint, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := magicLinkClaims{
		MarkerID: markerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("marker:%d", markerID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseMagicLink verifies a magic link and returns the session it encodes.
// An expired link still yields the session, flagged not-live, so the gate can
// deny with "expired" rather than a generic failure.
func ParseMagicLink(secret []byte, raw string) (*MarkerSession, error) {
	var claims magicLinkClaims
	t, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && claims.MarkerID != 0 {
			return &MarkerSession{MarkerID: claims.MarkerID, Live: false}, nil
		}
		return nil, ErrInvalidLink
	}
	if !t.Valid {
		return nil, ErrInvalidLink
	}
	session := &MarkerSession{MarkerID: claims.MarkerID, Live: true}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// NewStaticToken mints a per-assignment access token record. The secret is a
// random UUID; expiry is optional.
func NewStaticToken(assignmentID uint, scope string, expiresAt *time.Time) model.AccessToken {
	return model.AccessToken{
		AssignmentID: assignmentID,
		Scope:        scope,
		Secret:       uuid.NewString(),
		ExpiresAt:    expiresAt,
	}
}
