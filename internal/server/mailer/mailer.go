// Package mailer sends outbound email through a Gmail account connected via
// OAuth. It owns the OAuth credential set and the connect flow; nothing else
// in the server touches those secrets.
package mailer

import (
	"context"
	"time"

	"github.com/lakelandsports/cms/internal/logging"
)

// Mailer delivers one message. Callers treat delivery as a best-effort side
// effect: failures are logged by the caller, never rolled back into the
// primary operation.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Credentials is the stored Gmail OAuth credential set. ClientSecret and
// RefreshToken are encrypted at rest by the settings store.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Address      string
	ConnectedAt  time.Time
}

// LogMailer is the fallback used until an operator connects a Gmail
// account. It records the message instead of delivering it.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Info(ctx, "mail not connected, dropping message", "to", to, "subject", subject)
	return nil
}
