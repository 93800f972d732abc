package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/lakelandsports/cms/internal/common"
	"github.com/lakelandsports/cms/internal/logging"
)

const gmailSendEndpoint = "https://gmail.googleapis.com/gmail/v1/users/me/messages/send"

// CredentialSource yields the stored Gmail credential set, or
// common.ErrMailerNotConnected when no account is connected.
type CredentialSource interface {
	MailCredentials(ctx context.Context) (*Credentials, error)
}

// GmailMailer sends messages through the Gmail API, refreshing the access
// token from the stored refresh token via x/oauth2.
type GmailMailer struct {
	source   CredentialSource
	logger   logging.Logger
	endpoint string
	authCfg  func(c *Credentials) *oauth2.Config
}

func NewGmailMailer(source CredentialSource, logger logging.Logger) *GmailMailer {
	return &GmailMailer{
		source:   source,
		logger:   logger.With("module", "mailer"),
		endpoint: gmailSendEndpoint,
		authCfg:  gmailOAuthConfig,
	}
}

func gmailOAuthConfig(c *Credentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     googleEndpoint,
		Scopes:       []string{"https://www.googleapis.com/auth/gmail.send"},
	}
}

// Send builds an RFC 822 message and posts it to the Gmail API. The access
// token is minted on demand; x/oauth2 caches and refreshes it per call
// through the stored refresh token.
func (m *GmailMailer) Send(ctx context.Context, to, subject, body string) error {
	creds, err := m.source.MailCredentials(ctx)
	if err != nil {
		return err
	}
	if creds.RefreshToken == "" {
		return common.ErrMailerNotConnected
	}

	cfg := m.authCfg(creds)
	client := cfg.Client(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})

	raw := buildMessage(creds.Address, to, subject, body)
	payload, err := json.Marshal(map[string]string{
		"raw": base64.URLEncoding.EncodeToString(raw),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gmail send: %s: %s", resp.Status, string(b))
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}

// Dispatcher routes between the Gmail mailer and the log fallback depending
// on whether a credential set is stored.
type Dispatcher struct {
	source   CredentialSource
	gmail    Mailer
	fallback Mailer
}

func NewDispatcher(source CredentialSource, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		source:   source,
		gmail:    NewGmailMailer(source, logger),
		fallback: NewLogMailer(logger),
	}
}

func (d *Dispatcher) Send(ctx context.Context, to, subject, body string) error {
	if _, err := d.source.MailCredentials(ctx); err != nil {
		if errors.Is(err, common.ErrMailerNotConnected) {
			return d.fallback.Send(ctx, to, subject, body)
		}
		return err
	}
	return d.gmail.Send(ctx, to, subject, body)
}
