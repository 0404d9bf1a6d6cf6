package utils

import (
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/iliyamo/salvambiente-api/internal/model"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

var alice = Identity{ID: 7, Username: "alice", Email: "alice@example.com", Role: model.RoleUser, RoleID: 2}

func TestSessionTokenRoundTrip(t *testing.T) {
	c := qt.New(t)
	clock := &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	issuer := NewTokenIssuer("s3cret").WithClock(clock.Now)

	tok, err := issuer.IssueSession(alice, 4*time.Hour)
	c.Assert(err, qt.IsNil)
	c.Assert(tok.Exp, qt.Equals, clock.t.Add(4*time.Hour))

	claims, err := issuer.VerifySession(tok.Token)
	c.Assert(err, qt.IsNil)
	c.Assert(claims.Identity(), qt.DeepEquals, alice)
}

func TestSessionTokenExpiredIsDistinct(t *testing.T) {
	c := qt.New(t)
	clock := &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	issuer := NewTokenIssuer("s3cret").WithClock(clock.Now)

	tok, err := issuer.IssueSession(alice, 10*time.Minute)
	c.Assert(err, qt.IsNil)

	clock.t = clock.t.Add(10*time.Minute + 2*time.Second)
	_, err = issuer.VerifySession(tok.Token)
	c.Assert(errors.Is(err, ErrTokenExpired), qt.IsTrue)
	c.Assert(errors.Is(err, ErrTokenInvalid), qt.IsFalse)
}

func TestSessionTokenWrongSecret(t *testing.T) {
	c := qt.New(t)
	tok, err := NewTokenIssuer("one").IssueSession(alice, time.Hour)
	c.Assert(err, qt.IsNil)

	_, err = NewTokenIssuer("two").VerifySession(tok.Token)
	c.Assert(errors.Is(err, ErrTokenInvalid), qt.IsTrue)
}

func TestSessionTokenMalformed(t *testing.T) {
	c := qt.New(t)
	_, err := NewTokenIssuer("one").VerifySession("not-a-jwt")
	c.Assert(errors.Is(err, ErrTokenInvalid), qt.IsTrue)
}

func TestPendingAndSessionTokensAreNotInterchangeable(t *testing.T) {
	c := qt.New(t)
	issuer := NewTokenIssuer("s3cret")

	pending, err := issuer.IssuePending("new@example.com", "New Person", 10*time.Minute)
	c.Assert(err, qt.IsNil)
	_, err = issuer.VerifySession(pending.Token)
	c.Assert(errors.Is(err, ErrTokenInvalid), qt.IsTrue)

	claims, err := issuer.VerifyPending(pending.Token)
	c.Assert(err, qt.IsNil)
	c.Assert(claims.Email, qt.Equals, "new@example.com")
	c.Assert(claims.Verified, qt.IsFalse)

	session, err := issuer.IssueSession(alice, time.Hour)
	c.Assert(err, qt.IsNil)
	_, err = issuer.VerifyPending(session.Token)
	c.Assert(errors.Is(err, ErrTokenInvalid), qt.IsTrue)
}
