package token

import (
	"crypto/subtle"
	"time"

	"github.com/coursemark/coursemark/internal/lifecycle"
	"github.com/coursemark/coursemark/internal/model"
)

// Access levels a credential can unlock. Redacted access withholds every
// confidential question and component.
type AccessLevel string

const (
	AccessConfidential AccessLevel = "confidential"
	AccessRedacted     AccessLevel = "redacted"
)

// User-facing denial reasons. Every denial carries exactly one of these;
// there is no default-allow branch anywhere in the gate.
const (
	ReasonNoToken      = "no token"
	ReasonExpired      = "expired"
	ReasonMismatch     = "token mismatch"
	ReasonNotAvailable = "not yet available"
)

// Outcome is the gate's decision for one request.
type Outcome struct {
	Granted bool
	Level   AccessLevel
	Reason  string
}

func granted(level AccessLevel) Outcome { return Outcome{Granted: true, Level: level} }
func denied(reason string) Outcome      { return Outcome{Reason: reason} }

// MarkerSession is a magic-link-backed session as parsed by the transport
// layer. Live is false once the underlying link has expired.
type MarkerSession struct {
	MarkerID  uint
	Live      bool
	ExpiresAt time.Time
}

// Credentials collects everything the request presented. All fields are
// optional; the gate checks them in fixed priority order.
type Credentials struct {
	AdminSession  bool
	MarkerSession *MarkerSession
	Token         string
}

// Gate decides what level of access, if any, a set of credentials grants on
// an assignment's report.
type Gate struct {
	// NowFunc is the wall clock used for expiry checks; mockable in tests.
	NowFunc func() time.Time
}

func NewGate() *Gate {
	return &Gate{NowFunc: time.Now}
}

// Authorize checks credentials against an assignment and its issued static
// tokens. Priority: admin session, then a live marker session owning the
// assignment, then a static per-assignment token whose scope and the
// assignment's status line up.
func (g *Gate) Authorize(a *model.Assignment, issued []model.AccessToken, creds Credentials) Outcome {
	if creds.AdminSession {
		return granted(AccessConfidential)
	}

	if s := creds.MarkerSession; s != nil {
		if !s.Live {
			return denied(ReasonExpired)
		}
		if s.MarkerID == a.MarkerID {
			return granted(AccessConfidential)
		}
		// A live session for a different marker falls through to the static
		// token check rather than leaking that the assignment exists.
	}

	if creds.Token == "" {
		return denied(ReasonNoToken)
	}

	now := g.NowFunc()
	for _, t := range issued {
		if subtle.ConstantTimeCompare([]byte(t.Secret), []byte(creds.Token)) != 1 {
			continue
		}
		if t.Expired(now) {
			return denied(ReasonExpired)
		}
		switch t.Scope {
		case model.TokenScopeStaff:
			if a.Status == lifecycle.StatusSubmitted || a.Status == lifecycle.StatusReleased {
				return granted(AccessConfidential)
			}
			return denied(ReasonNotAvailable)
		case model.TokenScopePublic:
			if a.Status == lifecycle.StatusReleased {
				return granted(AccessRedacted)
			}
			return denied(ReasonNotAvailable)
		}
	}
	return denied(ReasonMismatch)
}
