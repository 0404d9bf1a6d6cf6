package handler // handler package contains the Google sign-in redirects

import (
    "context"
    "errors"
    "log/slog"
    "net/http"
    "net/url"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/salvambiente-api/internal/config"
    "github.com/iliyamo/salvambiente-api/internal/model"
    "github.com/iliyamo/salvambiente-api/internal/oauth"
    "github.com/iliyamo/salvambiente-api/internal/repository"
    "github.com/iliyamo/salvambiente-api/internal/utils"
)

const oauthStateCookie = "oauth_state" // holds the state nonce between Start and Callback

// IdentityProvider runs the delegated sign-in round trip.
type IdentityProvider interface {
    Configured() bool
    AuthCodeURL(state string) string
    Exchange(ctx context.Context, code string) (oauth.Profile, error)
}

// EmailLookup finds local accounts by email.
type EmailLookup interface {
    GetByEmail(ctx context.Context, email string) (model.User, error)
}

// GoogleHandler drives Google sign-in.  Every outcome is a browser
// redirect to the frontend, never JSON.
type GoogleHandler struct {
    base
    provider    IdentityProvider
    users       EmailLookup
    tokens      *utils.TokenIssuer
    frontendURL string        // every redirect lands here
    sessionTTL  time.Duration // for returning users
    pendingTTL  time.Duration // for the complete-registration step
    secure      bool          // Secure cookie flag, off in dev
}

// NewGoogleHandler wires the provider and the token issuer.
func NewGoogleHandler(cfg config.Config, provider IdentityProvider, users EmailLookup, tokens *utils.TokenIssuer, logger *slog.Logger) *GoogleHandler {
    return &GoogleHandler{
        base:        newBase(logger, cfg.Debug()),
        provider:    provider,
        users:       users,
        tokens:      tokens,
        frontendURL: cfg.FrontendURL,
        sessionTTL:  cfg.SessionTTL,
        pendingTTL:  cfg.PendingTTL,
        secure:      !cfg.Debug(),
    }
}

// Start sends the browser to Google with a fresh state bound to a cookie.
func (h *GoogleHandler) Start(c echo.Context) error {
    if !h.provider.Configured() {
        h.logger.Warn("google sign-in: client not configured")
        return h.fallback(c)
    }
    state, err := oauth.NewState()
    if err != nil {
        h.logger.Error("google sign-in: state", "error", err)
        return h.fallback(c)
    }
    c.SetCookie(&http.Cookie{
        Name:     oauthStateCookie,
        Value:    state,
        Path:     "/api/auth/google",
        MaxAge:   600,
        HttpOnly: true,
        Secure:   h.secure,
        SameSite: http.SameSiteLaxMode,
    })
    return c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

// Callback signs in an existing account or hands out a pending token so the
// frontend can finish registration.
func (h *GoogleHandler) Callback(c echo.Context) error {
    cookie, err := c.Cookie(oauthStateCookie)
    c.SetCookie(&http.Cookie{Name: oauthStateCookie, Path: "/api/auth/google", MaxAge: -1, HttpOnly: true, Secure: h.secure})
    if err != nil || cookie.Value == "" || cookie.Value != c.QueryParam("state") {
        h.logger.Warn("google sign-in: state mismatch")
        return h.fallback(c)
    }
    code := c.QueryParam("code")
    if code == "" || c.QueryParam("error") != "" {
        h.logger.Warn("google sign-in: denied", "error", c.QueryParam("error"))
        return h.fallback(c)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()
    profile, err := h.provider.Exchange(ctx, code)
    if err != nil {
        h.logger.Error("google sign-in: exchange", "error", err)
        return h.fallback(c)
    }

    u, err := h.users.GetByEmail(ctx, profile.Email)
    switch {
    case err == nil:
        tok, err := h.tokens.IssueSession(identityOf(u), h.sessionTTL)
        if err != nil {
            h.logger.Error("google sign-in: session token", "error", err)
            return h.fallback(c)
        }
        h.logger.Info("google sign-in", "user_id", u.ID)
        return c.Redirect(http.StatusFound, h.frontendURL+"/login-google?token="+url.QueryEscape(tok.Token))
    case errors.Is(err, repository.ErrNotFound):
        tok, err := h.tokens.IssuePending(profile.Email, profile.Name, h.pendingTTL)
        if err != nil {
            h.logger.Error("google sign-in: pending token", "error", err)
            return h.fallback(c)
        }
        return c.Redirect(http.StatusFound, h.frontendURL+"/completar-registro-google?temp_token="+url.QueryEscape(tok.Token))
    default:
        h.logger.Error("google sign-in: lookup", "error", err)
        return h.fallback(c)
    }
}

func (h *GoogleHandler) fallback(c echo.Context) error {
    return c.Redirect(http.StatusFound, h.frontendURL+"/")
}
