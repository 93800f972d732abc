package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/lakelandsports/cms/internal/common"
	"github.com/lakelandsports/cms/internal/randx"
	"github.com/lakelandsports/cms/internal/server/models"
)

// googleEndpoint is spelled out here instead of importing
// golang.org/x/oauth2/google, which drags in the GCE metadata client for two
// URLs.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// oauthStateValidity bounds how long a consent-screen round trip may take.
const oauthStateValidity = 10 * time.Minute

// CredentialStore persists the OAuth credential set and the single-slot
// CSRF state record. Implemented by the settings service, which encrypts
// secrets before they reach the database.
type CredentialStore interface {
	CredentialSource

	SaveMailCredentials(ctx context.Context, creds *Credentials) error
	ClearMailCredentials(ctx context.Context) error

	SaveOAuthState(ctx context.Context, state *models.OAuthState) error
	LoadOAuthState(ctx context.Context) (*models.OAuthState, error)
	ClearOAuthState(ctx context.Context) error
}

// OAuthConnector walks an operator through the authorization-code flow:
// Begin stores the state slot and yields the consent URL, Complete exchanges
// the code and persists the refresh token. Only one flow can be in flight;
// a second Begin overwrites the slot and invalidates the first flow.
type OAuthConnector struct {
	store       CredentialStore
	redirectURL string
	endpoint    oauth2.Endpoint

	now func() time.Time
}

func NewOAuthConnector(store CredentialStore, redirectURL string) *OAuthConnector {
	return &OAuthConnector{
		store:       store,
		redirectURL: redirectURL,
		endpoint:    googleEndpoint,
		now:         time.Now,
	}
}

func (c *OAuthConnector) config(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  c.redirectURL,
		Endpoint:     c.endpoint,
		Scopes:       []string{"https://www.googleapis.com/auth/gmail.send"},
	}
}

// Begin stores a fresh state slot and returns the provider consent URL.
// address is the Gmail account the operator is about to connect; it is kept
// for display only.
func (c *OAuthConnector) Begin(ctx context.Context, clientID, clientSecret, address string) (string, error) {
	state, err := randx.URLToken(24)
	if err != nil {
		return "", err
	}

	slot := &models.OAuthState{
		State:        state,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Address:      address,
		ExpiresAt:    c.now().Add(oauthStateValidity),
	}
	if err := c.store.SaveOAuthState(ctx, slot); err != nil {
		return "", fmt.Errorf("saving oauth state: %w", err)
	}

	cfg := c.config(clientID, clientSecret)
	return cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent")), nil
}

// Complete validates the callback state, exchanges the code and persists the
// credential set. The exchange is never attempted on a state mismatch or an
// expired slot, and a response without a refresh token stores nothing.
func (c *OAuthConnector) Complete(ctx context.Context, state, code string) error {
	slot, err := c.store.LoadOAuthState(ctx)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrOAuthStateMismatch
		}
		return err
	}
	if slot.State == "" || slot.State != state {
		return common.ErrOAuthStateMismatch
	}
	if c.now().After(slot.ExpiresAt) {
		return common.ErrOAuthStateExpired
	}

	cfg := c.config(slot.ClientID, slot.ClientSecret)
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("token exchange: %w", err)
	}
	if token.RefreshToken == "" {
		// The provider did not grant offline access; storing the rest
		// would leave the mailer half-connected.
		return common.ErrOAuthNoRefreshToken
	}

	creds := &Credentials{
		ClientID:     slot.ClientID,
		ClientSecret: slot.ClientSecret,
		RefreshToken: token.RefreshToken,
		Address:      slot.Address,
		ConnectedAt:  c.now(),
	}
	if err := c.store.SaveMailCredentials(ctx, creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	// The slot is one-time; drop it so a replayed callback cannot
	// re-exchange.
	if err := c.store.ClearOAuthState(ctx); err != nil {
		return fmt.Errorf("clearing oauth state: %w", err)
	}
	return nil
}

// Disconnect destroys the stored credential set.
func (c *OAuthConnector) Disconnect(ctx context.Context) error {
	return c.store.ClearMailCredentials(ctx)
}
