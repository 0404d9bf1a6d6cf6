package utils // package utils provides helper functions for token creation and hashing

import (
    "errors"
    "fmt"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

    "github.com/iliyamo/salvambiente-api/internal/model"
)

var (
    // ErrTokenExpired is returned for a well-formed, correctly signed token
    // whose exp claim is in the past.  Clients should prompt a new login.
    ErrTokenExpired = errors.New("token expired")
    // ErrTokenInvalid covers malformed, forged or wrong-kind tokens.
    ErrTokenInvalid = errors.New("token invalid")
)

// AccessToken represents a signed JWT along with its expiry.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// Identity is the user data embedded in a session token.
type Identity struct {
    ID       uint64
    Username string
    Email    string
    Role     model.Role
    RoleID   uint8
}

// SessionClaims are carried by full session tokens.
type SessionClaims struct {
    ID       uint64     `json:"id"`
    Username string     `json:"usuario"`
    Email    string     `json:"correo"`
    Role     model.Role `json:"rol"`
    RoleID   uint8      `json:"rol_id"`
    jwt.RegisteredClaims
}

// Identity returns the identity carried by the claims.
func (c *SessionClaims) Identity() Identity {
    return Identity{ID: c.ID, Username: c.Username, Email: c.Email, Role: c.Role, RoleID: c.RoleID}
}

// PendingClaims are carried by the short-lived, role-less token handed out
// when a Google identity has no local account yet.
type PendingClaims struct {
    Email    string `json:"email"`
    Name     string `json:"name"`
    Verified bool   `json:"verified"`
    jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens with a shared secret.  The
// clock is injectable so expiry can be exercised deterministically.
type TokenIssuer struct {
    secret []byte
    now    func() time.Time
}

// NewTokenIssuer returns an issuer using the wall clock.
func NewTokenIssuer(secret string) *TokenIssuer {
    return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

// WithClock returns a copy of the issuer reading time from now.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
    return &TokenIssuer{secret: t.secret, now: now}
}

// IssueSession signs a session token for id valid for ttl.
func (t *TokenIssuer) IssueSession(id Identity, ttl time.Duration) (AccessToken, error) {
    now := t.now().UTC()
    exp := now.Add(ttl)
    claims := SessionClaims{
        ID:       id.ID,
        Username: id.Username,
        Email:    id.Email,
        Role:     id.Role,
        RoleID:   id.RoleID,
        RegisteredClaims: jwt.RegisteredClaims{
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now),
        },
    }
    return t.sign(claims, exp)
}

// IssuePending signs a "complete registration" token for a Google identity.
func (t *TokenIssuer) IssuePending(email, name string, ttl time.Duration) (AccessToken, error) {
    now := t.now().UTC()
    exp := now.Add(ttl)
    claims := PendingClaims{
        Email:    email,
        Name:     name,
        Verified: false,
        RegisteredClaims: jwt.RegisteredClaims{
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now),
        },
    }
    return t.sign(claims, exp)
}

func (t *TokenIssuer) sign(claims jwt.Claims, exp time.Time) (AccessToken, error) {
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// VerifySession parses a session token.  Pending tokens and tokens with an
// unknown role are rejected as invalid.
func (t *TokenIssuer) VerifySession(raw string) (*SessionClaims, error) {
    var claims SessionClaims
    if err := t.parse(raw, &claims); err != nil {
        return nil, err
    }
    if claims.ID == 0 || !claims.Role.Valid() {
        return nil, ErrTokenInvalid
    }
    return &claims, nil
}

// VerifyPending parses a "complete registration" token.
func (t *TokenIssuer) VerifyPending(raw string) (*PendingClaims, error) {
    var claims PendingClaims
    if err := t.parse(raw, &claims); err != nil {
        return nil, err
    }
    if claims.Email == "" {
        return nil, ErrTokenInvalid
    }
    return &claims, nil
}

func (t *TokenIssuer) parse(raw string, claims jwt.Claims) error {
    _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
        return t.secret, nil
    },
        jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
        jwt.WithExpirationRequired(),
        jwt.WithTimeFunc(t.now),
    )
    switch {
    case err == nil:
        return nil
    case errors.Is(err, jwt.ErrTokenExpired):
        return ErrTokenExpired
    default:
        return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
    }
}
