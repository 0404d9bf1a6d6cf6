// Package resetcode runs the forgot-password flow: a six-digit code is
// mailed to the account's address, confirmed, then exchanged for a new
// password.
package resetcode

import (
    "context"
    "crypto/rand"
    "errors"
    "fmt"
    "io"
    "log/slog"
    "math/big"
    "strconv"
    "time"

    "github.com/iliyamo/salvambiente-api/internal/utils"
)

var (
    ErrCodeNotFound     = errors.New("reset code not found")
    ErrCodeExpired      = errors.New("reset code expired")
    ErrCodeNotVerified  = errors.New("reset code not verified")
    ErrPasswordTooShort = errors.New("new password too short")
    ErrMailDelivery     = errors.New("reset code mail not delivered")
)

const (
    codeMin = 100000
    codeMax = 999999

    // expiredGrace keeps an expired entry around in stores with native
    // expiry so a late lookup still reports "expired" instead of "unknown".
    expiredGrace = 10 * time.Minute
)

// Mailer delivers a code to its owner.
type Mailer interface {
    SendResetCode(ctx context.Context, to, code string, ttl time.Duration) error
}

// PasswordStore persists a new password hash for the account with email.
type PasswordStore interface {
    UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error
}

// Registry issues, confirms and consumes reset codes.  It is safe for
// concurrent use as long as its Store is.
type Registry struct {
    store  Store
    mailer Mailer
    users  PasswordStore
    ttl    time.Duration
    cost   int
    logger *slog.Logger
    now    func() time.Time
    random io.Reader
}

// New returns a registry whose codes live for ttl and whose new passwords
// are hashed with bcryptCost.
func New(store Store, mailer Mailer, users PasswordStore, ttl time.Duration, bcryptCost int, logger *slog.Logger) *Registry {
    if logger == nil {
        logger = slog.Default()
    }
    return &Registry{
        store:  store,
        mailer: mailer,
        users:  users,
        ttl:    ttl,
        cost:   bcryptCost,
        logger: logger,
        now:    time.Now,
        random: rand.Reader,
    }
}

// WithClock makes the registry read time from now.
func (r *Registry) WithClock(now func() time.Time) *Registry {
    cp := *r
    cp.now = now
    return &cp
}

// TTL is how long an issued code stays valid.
func (r *Registry) TTL() time.Duration { return r.ttl }

// Issue registers a fresh code for email and mails it.  A code that happens
// to collide with a live one replaces it.  The entry is stored before the
// mail is sent and stays registered when delivery fails; the caller then
// gets ErrMailDelivery.
func (r *Registry) Issue(ctx context.Context, email string) (string, error) {
    code, err := r.newCode()
    if err != nil {
        return "", fmt.Errorf("generate reset code: %w", err)
    }
    e := Entry{Email: email, ExpiresAt: r.now().Add(r.ttl)}
    if err := r.store.Put(ctx, code, e, r.ttl+expiredGrace); err != nil {
        return "", fmt.Errorf("store reset code: %w", err)
    }
    if err := r.mailer.SendResetCode(ctx, email, code, r.ttl); err != nil {
        return code, fmt.Errorf("%w: %v", ErrMailDelivery, err)
    }
    r.logger.Info("reset code issued", "email", email, "expires_at", e.ExpiresAt)
    return code, nil
}

// Confirm marks code as verified.  Confirming twice is allowed.
func (r *Registry) Confirm(ctx context.Context, code string) error {
    e, err := r.lookup(ctx, code)
    if err != nil {
        return err
    }
    if e.Verified {
        return nil
    }
    e.Verified = true
    if err := r.store.Put(ctx, code, e, e.ExpiresAt.Sub(r.now())+expiredGrace); err != nil {
        return fmt.Errorf("store reset code: %w", err)
    }
    return nil
}

// Consume sets newPassword on the account behind a verified code and
// retires the code.
func (r *Registry) Consume(ctx context.Context, code, newPassword string) error {
    e, err := r.lookup(ctx, code)
    if err != nil {
        return err
    }
    if !e.Verified {
        return ErrCodeNotVerified
    }
    if !utils.PasswordLongEnough(newPassword) {
        return ErrPasswordTooShort
    }
    hash, err := utils.HashPassword(newPassword, r.cost)
    if err != nil {
        return fmt.Errorf("hash password: %w", err)
    }
    if err := r.users.UpdatePasswordByEmail(ctx, e.Email, hash); err != nil {
        return fmt.Errorf("update password: %w", err)
    }
    if err := r.store.Delete(ctx, code); err != nil {
        r.logger.Warn("reset code not deleted after use", "error", err)
    }
    r.logger.Info("password reset", "email", e.Email)
    return nil
}

// Close releases the store when it holds resources of its own.
func (r *Registry) Close() error {
    if c, ok := r.store.(io.Closer); ok {
        return c.Close()
    }
    return nil
}

// lookup returns the live entry for code.  An expired entry is deleted and
// reported as ErrCodeExpired.
func (r *Registry) lookup(ctx context.Context, code string) (Entry, error) {
    e, ok, err := r.store.Get(ctx, code)
    if err != nil {
        return Entry{}, fmt.Errorf("load reset code: %w", err)
    }
    if !ok {
        return Entry{}, ErrCodeNotFound
    }
    if r.now().After(e.ExpiresAt) {
        if err := r.store.Delete(ctx, code); err != nil {
            r.logger.Warn("expired reset code not deleted", "error", err)
        }
        return Entry{}, ErrCodeExpired
    }
    return e, nil
}

func (r *Registry) newCode() (string, error) {
    n, err := rand.Int(r.random, big.NewInt(codeMax-codeMin+1))
    if err != nil {
        return "", err
    }
    return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}
