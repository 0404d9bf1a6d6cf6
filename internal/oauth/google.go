// Package oauth wraps the Google sign-in round trip.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/iliyamo/salvambiente-api/internal/config"
)

var (
	ErrNotConfigured = errors.New("google sign-in not configured")
	ErrNoEmail       = errors.New("google account has no verified email")
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// Profile is the part of a Google identity the service uses.
type Profile struct {
	Email string
	Name  string
}

// GoogleProvider drives the authorization-code flow against Google.
type GoogleProvider struct {
	conf        *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(cfg config.GoogleConfig) *GoogleProvider {
	return &GoogleProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// Configured reports whether client credentials are present.
func (p *GoogleProvider) Configured() bool {
	return p.conf.ClientID != "" && p.conf.ClientSecret != ""
}

// AuthCodeURL is where the browser is sent to consent.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for the account's profile.  Accounts
// without a verified email are refused.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (Profile, error) {
	if !p.Configured() {
		return Profile{}, ErrNotConfigured
	}
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("exchange code: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return Profile{}, err
	}
	resp, err := p.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}
	var info struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Profile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	email := strings.ToLower(strings.TrimSpace(info.Email))
	if email == "" || !info.EmailVerified {
		return Profile{}, ErrNoEmail
	}
	return Profile{Email: email, Name: strings.TrimSpace(info.Name)}, nil
}

// NewState returns a random value binding a callback to the browser that
// started the flow.
func NewState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
