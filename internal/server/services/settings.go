package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lakelandsports/cms/internal/common"
	"github.com/lakelandsports/cms/internal/cryptox"
	"github.com/lakelandsports/cms/internal/server/mailer"
	"github.com/lakelandsports/cms/internal/server/models"
	"github.com/lakelandsports/cms/internal/server/repositories/repomanager"
)

// defaultCaptchaThreshold is used when no threshold setting is stored.
const defaultCaptchaThreshold = 0.5

// SettingsService fronts the generic key/value settings store. Secret values
// pass through the cryptox box on the way in and out, so the database only
// ever holds opaque blobs.
//
// It also implements mailer.CredentialStore: the OAuth credential set and
// the single-slot connect state live in the same store.
type SettingsService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	box         *cryptox.Box
}

func NewSettingsService(db *sql.DB, m repomanager.RepositoryManager, box *cryptox.Box) *SettingsService {
	return &SettingsService{db: db, repomanager: m, box: box}
}

// GetString returns the cleartext value for key, decrypting secrets at point
// of use. Missing keys yield common.ErrorNotFound.
func (s *SettingsService) GetString(ctx context.Context, key string) (string, error) {
	setting, err := s.repomanager.Settings(s.db).Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !setting.Secret {
		return setting.Value, nil
	}
	plain, err := s.box.DecryptString(setting.Value)
	if err != nil {
		return "", fmt.Errorf("decrypting %s: %w", key, err)
	}
	return plain, nil
}

// SetString stores value under key, encrypting when secret.
func (s *SettingsService) SetString(ctx context.Context, key, value string, secret bool) error {
	stored := value
	if secret {
		sealed, err := s.box.EncryptString(value)
		if err != nil {
			return fmt.Errorf("encrypting %s: %w", key, err)
		}
		stored = sealed
	}
	return s.repomanager.Settings(s.db).Set(ctx, &models.Setting{Key: key, Value: stored, Secret: secret})
}

// Delete removes key from the store.
func (s *SettingsService) Delete(ctx context.Context, key string) error {
	return s.repomanager.Settings(s.db).Delete(ctx, key)
}

// List returns all settings with secret values masked. Secrets never leave
// the server in cleartext through this path.
func (s *SettingsService) List(ctx context.Context) (map[string]string, error) {
	all, err := s.repomanager.Settings(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(all))
	for _, setting := range all {
		if setting.Secret {
			out[setting.Key] = "********"
			continue
		}
		out[setting.Key] = setting.Value
	}
	return out, nil
}

// CaptchaConfig returns the bot-score secret and threshold. An absent secret
// comes back empty, which the verifier interprets per its fail-open flag.
func (s *SettingsService) CaptchaConfig(ctx context.Context) (secret string, threshold float64, err error) {
	secret, err = s.GetString(ctx, models.SettingCaptchaSecret)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return "", 0, err
	}

	threshold = defaultCaptchaThreshold
	if raw, err := s.GetString(ctx, models.SettingCaptchaThreshold); err == nil {
		if parsed, perr := strconv.ParseFloat(raw, 64); perr == nil && parsed >= 0 && parsed <= 1 {
			threshold = parsed
		}
	}
	return secret, threshold, nil
}

// --- mailer.CredentialStore ---

func (s *SettingsService) MailCredentials(ctx context.Context) (*mailer.Credentials, error) {
	clientID, err := s.GetString(ctx, models.SettingMailClientID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrMailerNotConnected
		}
		return nil, err
	}
	clientSecret, err := s.GetString(ctx, models.SettingMailClientSecret)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.GetString(ctx, models.SettingMailRefreshToken)
	if err != nil {
		return nil, err
	}

	creds := &mailer.Credentials{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RefreshToken: refreshToken,
	}
	if addr, err := s.GetString(ctx, models.SettingMailAddress); err == nil {
		creds.Address = addr
	}
	if raw, err := s.GetString(ctx, models.SettingMailConnectedAt); err == nil {
		if t, perr := time.Parse(time.RFC3339, raw); perr == nil {
			creds.ConnectedAt = t
		}
	}
	return creds, nil
}

func (s *SettingsService) SaveMailCredentials(ctx context.Context, creds *mailer.Credentials) error {
	if err := s.SetString(ctx, models.SettingMailClientID, creds.ClientID, false); err != nil {
		return err
	}
	if err := s.SetString(ctx, models.SettingMailClientSecret, creds.ClientSecret, true); err != nil {
		return err
	}
	if err := s.SetString(ctx, models.SettingMailRefreshToken, creds.RefreshToken, true); err != nil {
		return err
	}
	if err := s.SetString(ctx, models.SettingMailAddress, creds.Address, false); err != nil {
		return err
	}
	return s.SetString(ctx, models.SettingMailConnectedAt, creds.ConnectedAt.Format(time.RFC3339), false)
}

func (s *SettingsService) ClearMailCredentials(ctx context.Context) error {
	for _, key := range []string{
		models.SettingMailClientID,
		models.SettingMailClientSecret,
		models.SettingMailRefreshToken,
		models.SettingMailAddress,
		models.SettingMailConnectedAt,
	} {
		if err := s.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (s *SettingsService) SaveOAuthState(ctx context.Context, state *models.OAuthState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.SetString(ctx, models.SettingMailOAuthState, string(raw), true)
}

func (s *SettingsService) LoadOAuthState(ctx context.Context) (*models.OAuthState, error) {
	raw, err := s.GetString(ctx, models.SettingMailOAuthState)
	if err != nil {
		return nil, err
	}
	state := &models.OAuthState{}
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		return nil, fmt.Errorf("corrupt oauth state: %w", err)
	}
	return state, nil
}

func (s *SettingsService) ClearOAuthState(ctx context.Context) error {
	return s.Delete(ctx, models.SettingMailOAuthState)
}
