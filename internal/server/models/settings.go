package models

import "time"

// Setting is one row of the generic key/value settings store. Secret values
// are AES-GCM encrypted before they reach the database and decrypted only at
// point of use.
type Setting struct {
	Key       string
	Value     string
	Secret    bool
	UpdatedAt time.Time
}

// Well-known settings keys.
const (
	// Bot-score verification (reCAPTCHA-style scoring service).
	SettingCaptchaSecret    = "captcha.secret"
	SettingCaptchaThreshold = "captcha.threshold"

	// Gmail OAuth credential set, owned by the mailer.
	SettingMailClientID     = "mail.oauth.client_id"
	SettingMailClientSecret = "mail.oauth.client_secret" // secret
	SettingMailRefreshToken = "mail.oauth.refresh_token" // secret
	SettingMailAddress      = "mail.oauth.address"
	SettingMailConnectedAt  = "mail.oauth.connected_at"

	// Single-slot CSRF state for the in-flight OAuth connect flow.
	SettingMailOAuthState = "mail.oauth.state" // secret

	// Inbox that receives contact-form submissions.
	SettingContactInbox = "contact.inbox"
)

// OAuthState is the single-slot record persisted while an operator walks
// through the provider consent screen. A second initiation overwrites the
// slot and silently invalidates the first flow.
type OAuthState struct {
	State        string    `json:"state"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Address      string    `json:"address"`
	ExpiresAt    time.Time `json:"expires_at"`
}
