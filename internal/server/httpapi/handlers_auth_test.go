package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lakelandsports/cms/internal/common"
	"github.com/lakelandsports/cms/internal/dbx"
	"github.com/lakelandsports/cms/internal/ratelimit"
	"github.com/lakelandsports/cms/internal/server/auth"
	"github.com/lakelandsports/cms/internal/server/captcha"
	"github.com/lakelandsports/cms/internal/server/config"
	"github.com/lakelandsports/cms/internal/server/models"
	accountsrepo "github.com/lakelandsports/cms/internal/server/repositories/accounts"
	postsrepo "github.com/lakelandsports/cms/internal/server/repositories/posts"
	settingsrepo "github.com/lakelandsports/cms/internal/server/repositories/settings"
	"github.com/lakelandsports/cms/internal/server/services"
)

// accountStore is a minimal in-memory accounts repository for handler tests.
type accountStore struct {
	byID map[string]*models.Account
}

func (r *accountStore) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	for _, existing := range r.byID {
		if strings.EqualFold(existing.Email, a.Email) {
			return nil, common.ErrorAlreadyExists
		}
	}
	r.byID[a.ID] = a
	return a, nil
}

func (r *accountStore) GetByID(ctx context.Context, id string) (*models.Account, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func (r *accountStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	for _, a := range r.byID {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *accountStore) GetByVerificationToken(ctx context.Context, token string) (*models.Account, error) {
	for _, a := range r.byID {
		if a.EmailVerificationToken != nil && *a.EmailVerificationToken == token {
			return a, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *accountStore) List(ctx context.Context) ([]*models.Account, error) {
	out := make([]*models.Account, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	return out, nil
}

func (r *accountStore) Update(ctx context.Context, a *models.Account) error {
	r.byID[a.ID] = a
	return nil
}

type accountManager struct {
	accounts *accountStore
}

func (m *accountManager) RunMigrations(context.Context) error { return nil }
func (m *accountManager) Conn() *sql.DB                       { return nil }
func (m *accountManager) Accounts(db dbx.DBTX) accountsrepo.Repository {
	return m.accounts
}
func (m *accountManager) Settings(db dbx.DBTX) settingsrepo.Repository { return nil }
func (m *accountManager) Posts(db dbx.DBTX) postsrepo.Repository       { return nil }

type nopMailer struct{}

func (nopMailer) Send(context.Context, string, string, string) error { return nil }

type emptyCaptchaSource struct{}

func (emptyCaptchaSource) CaptchaConfig(ctx context.Context) (string, float64, error) {
	return "", 0.5, nil
}

func newAuthTestServer(t *testing.T, accounts ...*models.Account) *Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SessionSecret = testSecret

	store := &accountStore{byID: map[string]*models.Account{}}
	for _, a := range accounts {
		store.byID[a.ID] = a
	}

	svc := services.NewAccountService(nil, &accountManager{accounts: store}, nopMailer{}, nopLogger{}, cfg)

	return NewServer(Deps{
		Config:   cfg,
		Logger:   nopLogger{},
		Accounts: svc,
		Captcha:  captcha.NewVerifier(emptyCaptchaSource{}, "http://unused.invalid", true, nopLogger{}),
		Limits:   ratelimit.NewSet(),
	})
}

func activeAccount(t *testing.T, email, password string) *models.Account {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	return &models.Account{
		ID:            "u1",
		Name:          "Pat",
		Email:         email,
		PasswordHash:  hash,
		Role:          models.RoleEditor,
		Active:        true,
		EmailVerified: true,
		Approved:      true,
	}
}

func TestHandleLogin_SetsSessionCookie(t *testing.T) {
	s := newAuthTestServer(t, activeAccount(t, "pat@example.org", "Password1"))

	body := `{"email":"pat@example.org","password":"Password1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatalf("session cookie not set")
	}
	if !cookie.HttpOnly {
		t.Fatalf("session cookie must be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("session cookie must be SameSite=Lax")
	}
	if cookie.Secure {
		t.Fatalf("Secure must be off outside production")
	}
	if cookie.Path != "/" {
		t.Fatalf("session cookie path must be /, got %q", cookie.Path)
	}

	claims, err := auth.ParseSessionToken(cookie.Value, []byte(testSecret))
	if err != nil {
		t.Fatalf("cookie token does not parse: %v", err)
	}
	if claims.UserID != "u1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	var account accountResponse
	if err := json.NewDecoder(rec.Body).Decode(&account); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if account.Email != "pat@example.org" {
		t.Fatalf("unexpected body: %+v", account)
	}
}

func TestHandleLogin_SecureCookieInProduction(t *testing.T) {
	s := newAuthTestServer(t, activeAccount(t, "pat@example.org", "Password1"))
	s.cfg.Environment = "production"

	body := `{"email":"pat@example.org","password":"Password1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleLogin(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && !c.Secure {
			t.Fatalf("Secure must be set in production")
		}
	}
}

func TestHandleLogin_WrongPasswordAndUnknownEmailMatch(t *testing.T) {
	s := newAuthTestServer(t, activeAccount(t, "pat@example.org", "Password1"))

	do := func(body string) (int, errorResponse) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		rec := httptest.NewRecorder()
		s.handleLogin(rec, req)
		var resp errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		return rec.Code, resp
	}

	wrongCode, wrongResp := do(`{"email":"pat@example.org","password":"Wrong1234"}`)
	ghostCode, ghostResp := do(`{"email":"ghost@example.org","password":"Wrong1234"}`)

	if wrongCode != http.StatusUnauthorized || ghostCode != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongCode, ghostCode)
	}
	if wrongResp.Error.Code != ghostResp.Error.Code || wrongResp.Error.Message != ghostResp.Error.Message {
		t.Fatalf("responses must be indistinguishable: %+v vs %+v", wrongResp, ghostResp)
	}
}

func TestHandleLogin_PendingApproval(t *testing.T) {
	account := activeAccount(t, "pat@example.org", "Password1")
	account.Approved = false
	s := newAuthTestServer(t, account)

	body := `{"email":"pat@example.org","password":"Password1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleLogin(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.Error.Code != "approval_pending" {
		t.Fatalf("expected approval_pending, got %q", resp.Error.Code)
	}
}

func TestHandleRegister_PasswordPolicy(t *testing.T) {
	s := newAuthTestServer(t)

	for _, password := range []string{"short1A", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere"} {
		body, _ := json.Marshal(map[string]string{
			"name":     "Pat",
			"email":    "pat@example.org",
			"password": password,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(string(body)))
		rec := httptest.NewRecorder()
		s.handleRegister(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("password %q: expected 400, got %d", password, rec.Code)
		}
		var resp errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if _, ok := resp.Error.Fields["Password"]; !ok {
			t.Fatalf("password %q: expected a Password field error, got %+v", password, resp.Error)
		}
	}
}

func TestHandleRegister_DuplicateEmailIndistinguishable(t *testing.T) {
	s := newAuthTestServer(t, activeAccount(t, "pat@example.org", "Password1"))

	do := func(email string) (int, string) {
		body, _ := json.Marshal(map[string]string{
			"name":     "Pat",
			"email":    email,
			"password": "Password1",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(string(body)))
		rec := httptest.NewRecorder()
		s.handleRegister(rec, req)
		return rec.Code, rec.Body.String()
	}

	freshCode, freshBody := do("new@example.org")
	dupCode, dupBody := do("pat@example.org")

	if freshCode != dupCode || freshBody != dupBody {
		t.Fatalf("registration responses must not reveal account existence: %d %q vs %d %q",
			freshCode, freshBody, dupCode, dupBody)
	}
}

func TestHandleLogout_ClearsCookie(t *testing.T) {
	s := newAuthTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	s.handleLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("logout must clear the session cookie")
	}
}
