// Package captcha verifies bot-score tokens against a third-party scoring
// service (reCAPTCHA-style): the client submits an opaque token, the server
// posts it with a secret and receives a success flag plus a [0,1] score.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lakelandsports/cms/internal/common"
	"github.com/lakelandsports/cms/internal/logging"
)

// configTTL bounds how long a cached secret/threshold pair is served before
// the settings store is consulted again.
const configTTL = 60 * time.Second

// ConfigSource yields the current secret and score threshold, normally the
// settings service. An empty secret means the service is not configured.
type ConfigSource interface {
	CaptchaConfig(ctx context.Context) (secret string, threshold float64, err error)
}

// Verifier scores submissions. When no secret is configured and FailOpen is
// set, verification is skipped and treated as success: the site keeps
// accepting forms instead of locking everyone out.
type Verifier struct {
	source   ConfigSource
	endpoint string
	failOpen bool
	client   *http.Client
	logger   logging.Logger

	mu        sync.Mutex
	secret    string
	threshold float64
	fetchedAt time.Time

	now func() time.Time
}

func NewVerifier(source ConfigSource, endpoint string, failOpen bool, logger logging.Logger) *Verifier {
	return &Verifier{
		source:   source,
		endpoint: endpoint,
		failOpen: failOpen,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger.With("module", "captcha"),
		now:      time.Now,
	}
}

// Invalidate drops the cached configuration. The settings handler calls
// this after every admin settings update so changes apply immediately.
func (v *Verifier) Invalidate() {
	v.mu.Lock()
	v.fetchedAt = time.Time{}
	v.mu.Unlock()
}

func (v *Verifier) config(ctx context.Context) (string, float64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.fetchedAt.IsZero() && v.now().Sub(v.fetchedAt) < configTTL {
		return v.secret, v.threshold, nil
	}

	secret, threshold, err := v.source.CaptchaConfig(ctx)
	if err != nil {
		return "", 0, err
	}
	v.secret, v.threshold, v.fetchedAt = secret, threshold, v.now()
	return secret, threshold, nil
}

type scoreResponse struct {
	Success bool     `json:"success"`
	Score   float64  `json:"score"`
	Action  string   `json:"action"`
	Errors  []string `json:"error-codes"`
}

// Verify scores the client token for the named action. It returns
// common.ErrBotCheckFailed when the service rejects the token or the score
// falls below the threshold; upstream transport failures surface as errors.
func (v *Verifier) Verify(ctx context.Context, token, action string) error {
	secret, threshold, err := v.config(ctx)
	if err != nil {
		return err
	}

	if secret == "" {
		if v.failOpen {
			v.logger.Warn(ctx, "captcha secret not configured, skipping verification", "action", action)
			return nil
		}
		return common.ErrBotCheckFailed
	}

	form := url.Values{
		"secret":   {secret},
		"response": {token},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("captcha verify: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("captcha verify: %w", err)
	}

	var score scoreResponse
	if err := json.Unmarshal(body, &score); err != nil {
		return fmt.Errorf("captcha verify: decoding response: %w", err)
	}

	if !score.Success || score.Score < threshold {
		v.logger.Warn(ctx, "bot check failed", "action", action, "score", score.Score, "success", score.Success)
		return common.ErrBotCheckFailed
	}
	return nil
}
