package token

import (
	"testing"
	"time"

	"github.com/coursemark/coursemark/internal/lifecycle"
	"github.com/coursemark/coursemark/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedGate() *Gate {
	return &Gate{NowFunc: func() time.Time { return fixedNow }}
}

func timePtr(t time.Time) *time.Time { return &t }

func assignmentIn(status string) *model.Assignment {
	return &model.Assignment{ID: 7, MarkerID: 3, Status: status}
}

func issuedTokens() []model.AccessToken {
	return []model.AccessToken{
		{AssignmentID: 7, Scope: model.TokenScopeStaff, Secret: "staff-secret"},
		{AssignmentID: 7, Scope: model.TokenScopePublic, Secret: "public-secret"},
	}
}

func TestAdminSessionAlwaysConfidential(t *testing.T) {
	g := fixedGate()
	out := g.Authorize(assignmentIn(lifecycle.StatusCreated), nil, Credentials{AdminSession: true})
	assert.True(t, out.Granted)
	assert.Equal(t, AccessConfidential, out.Level)
}

func TestOwningMarkerSessionConfidential(t *testing.T) {
	g := fixedGate()
	creds := Credentials{MarkerSession: &MarkerSession{MarkerID: 3, Live: true}}
	out := g.Authorize(assignmentIn(lifecycle.StatusStarted), nil, creds)
	assert.True(t, out.Granted)
	assert.Equal(t, AccessConfidential, out.Level)
}

func TestExpiredMarkerSessionDenied(t *testing.T) {
	g := fixedGate()
	creds := Credentials{MarkerSession: &MarkerSession{MarkerID: 3, Live: false}}
	out := g.Authorize(assignmentIn(lifecycle.StatusStarted), nil, creds)
	assert.False(t, out.Granted)
	assert.Equal(t, ReasonExpired, out.Reason)
}

func TestForeignMarkerSessionFallsThroughToToken(t *testing.T) {
	g := fixedGate()
	creds := Credentials{
		MarkerSession: &MarkerSession{MarkerID: 99, Live: true},
		Token:         "public-secret",
	}
	out := g.Authorize(assignmentIn(lifecycle.StatusReleased), issuedTokens(), creds)
	assert.True(t, out.Granted)
	assert.Equal(t, AccessRedacted, out.Level)
}

func TestNoTokenDenied(t *testing.T) {
	g := fixedGate()
	out := g.Authorize(assignmentIn(lifecycle.StatusReleased), issuedTokens(), Credentials{})
	assert.False(t, out.Granted)
	assert.Equal(t, ReasonNoToken, out.Reason)
}

func TestUnknownTokenMismatch(t *testing.T) {
	g := fixedGate()
	out := g.Authorize(assignmentIn(lifecycle.StatusReleased), issuedTokens(), Credentials{Token: "guessed"})
	assert.False(t, out.Granted)
	assert.Equal(t, ReasonMismatch, out.Reason)
}

func TestStaffTokenAvailability(t *testing.T) {
	g := fixedGate()
	creds := Credentials{Token: "staff-secret"}

	for status, wantGranted := range map[string]bool{
		lifecycle.StatusCreated:    false,
		lifecycle.StatusNotStarted: false,
		lifecycle.StatusStarted:    false,
		lifecycle.StatusSubmitted:  true,
		lifecycle.StatusReleased:   true,
	} {
		out := g.Authorize(assignmentIn(status), issuedTokens(), creds)
		assert.Equal(t, wantGranted, out.Granted, "status %s", status)
		if wantGranted {
			assert.Equal(t, AccessConfidential, out.Level)
		} else {
			assert.Equal(t, ReasonNotAvailable, out.Reason)
		}
	}
}

func TestPublicTokenAvailability(t *testing.T) {
	g := fixedGate()
	creds := Credentials{Token: "public-secret"}

	out := g.Authorize(assignmentIn(lifecycle.StatusStarted), issuedTokens(), creds)
	assert.False(t, out.Granted)
	assert.Equal(t, ReasonNotAvailable, out.Reason)

	out = g.Authorize(assignmentIn(lifecycle.StatusSubmitted), issuedTokens(), creds)
	assert.False(t, out.Granted)
	assert.Equal(t, ReasonNotAvailable, out.Reason)

	out = g.Authorize(assignmentIn(lifecycle.StatusReleased), issuedTokens(), creds)
	assert.True(t, out.Granted)
	assert.Equal(t, AccessRedacted, out.Level)
}

func TestExpiredStaticTokenDenied(t *testing.T) {
	g := fixedGate()
	issued := []model.AccessToken{{
		AssignmentID: 7,
		Scope:        model.TokenScopePublic,
		Secret:       "stale",
		ExpiresAt:    timePtr(fixedNow.Add(-time.Hour)),
	}}
	out := g.Authorize(assignmentIn(lifecycle.StatusReleased), issued, Credentials{Token: "stale"})
	assert.False(t, out.Granted)
	assert.Equal(t, ReasonExpired, out.Reason)
}

func TestUnexpiredStaticTokenHonoursDeadline(t *testing.T) {
	g := fixedGate()
	issued := []model.AccessToken{{
		AssignmentID: 7,
		Scope:        model.TokenScopePublic,
		Secret:       "fresh",
		ExpiresAt:    timePtr(fixedNow.Add(time.Hour)),
	}}
	out := g.Authorize(assignmentIn(lifecycle.StatusReleased), issued, Credentials{Token: "fresh"})
	assert.True(t, out.Granted)
}

func TestIssueAndParseMagicLink(t *testing.T) {
	secret := []byte("signing-secret")
	raw, err := IssueMagicLink(secret, 3, time.Hour)
	require.NoError(t, err)

	session, err := ParseMagicLink(secret, raw)
	require.NoError(t, err)
	assert.Equal(t, uint(3), session.MarkerID)
	assert.True(t, session.Live)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)
}

func TestParseExpiredMagicLinkYieldsDeadSession(t *testing.T) {
	secret := []byte("signing-secret")
	raw, err := IssueMagicLink(secret, 3, -time.Hour)
	require.NoError(t, err)

	session, err := ParseMagicLink(secret, raw)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, uint(3), session.MarkerID)
	assert.False(t, session.Live)
}

func TestParseMagicLinkWrongSecret(t *testing.T) {
	raw, err := IssueMagicLink([]byte("right"), 3, time.Hour)
	require.NoError(t, err)

	_, err = ParseMagicLink([]byte("wrong"), raw)
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestParseMagicLinkGarbage(t *testing.T) {
	_, err := ParseMagicLink([]byte("secret"), "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestNewStaticToken(t *testing.T) {
	exp := timePtr(fixedNow)
	tok := NewStaticToken(7, model.TokenScopePublic, exp)
	assert.Equal(t, uint(7), tok.AssignmentID)
	assert.Equal(t, model.TokenScopePublic, tok.Scope)
	assert.NotEmpty(t, tok.Secret)
	assert.Equal(t, exp, tok.ExpiresAt)

	other := NewStaticToken(7, model.TokenScopePublic, nil)
	assert.NotEqual(t, tok.Secret, other.Secret)
}
