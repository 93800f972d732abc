package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lakelandsports/cms/internal/logging"
	"github.com/lakelandsports/cms/internal/ratelimit"
	"github.com/lakelandsports/cms/internal/server/captcha"
	"github.com/lakelandsports/cms/internal/server/config"
	"github.com/lakelandsports/cms/internal/server/mailer"
	"github.com/lakelandsports/cms/internal/server/models"
	"github.com/lakelandsports/cms/internal/server/services"
	"github.com/lakelandsports/cms/internal/server/storage"
)

// Server bundles everything the handlers need. It is constructed once at
// startup and shared across requests.
type Server struct {
	cfg    *config.Config
	logger logging.Logger
	db     *sql.DB

	accounts *services.AccountService
	posts    *services.PostService
	settings *services.SettingsService
	media    *storage.MediaStore

	captcha     *captcha.Verifier
	mail        mailer.Mailer
	oauth       *mailer.OAuthConnector
	credentials mailer.CredentialSource

	limits *ratelimit.Set
}

// Deps is the wiring contract between the application container and the
// HTTP edge.
type Deps struct {
	Config   *config.Config
	Logger   logging.Logger
	DB       *sql.DB
	Accounts *services.AccountService
	Posts    *services.PostService
	Settings *services.SettingsService
	Media    *storage.MediaStore
	Captcha  *captcha.Verifier
	Mail     mailer.Mailer
	OAuth    *mailer.OAuthConnector
	Limits   *ratelimit.Set
}

func NewServer(d Deps) *Server {
	return &Server{
		cfg:         d.Config,
		logger:      d.Logger.With("module", "http"),
		db:          d.DB,
		accounts:    d.Accounts,
		posts:       d.Posts,
		settings:    d.Settings,
		media:       d.Media,
		captcha:     d.Captcha,
		mail:        d.Mail,
		oauth:       d.OAuth,
		credentials: d.Settings,
		limits:      d.Limits,
	}
}

// Router assembles the route tree. Limiter classes attach per group: the
// login budget is tight, dashboard JSON generous, public pages near-open.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.recoverer)
	r.Use(s.requestLogger)
	r.Use(s.guard)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit(s.limits.Login))
			r.Post("/login", s.handleLogin)
			r.Post("/register", s.handleRegister)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit(s.limits.API))
			r.Get("/verify-email", s.handleVerifyEmail)
			r.Post("/logout", s.handleLogout)
			r.Get("/me", s.handleMe)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit(s.limits.Contact))
		r.Post("/api/contact", s.handleContact)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit(s.limits.Page))
		r.Get("/api/posts", s.handleListPosts)
		r.Get("/api/posts/{slug}", s.handleGetPost)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(s.rateLimit(s.limits.API))

		// Any authenticated dashboard user.
		r.Get("/posts", s.handleAdminListPosts)
		r.Post("/posts", s.handleCreatePost)
		r.Put("/posts/{id}", s.handleUpdatePost)
		r.Post("/uploads", s.handleUploadPresign)

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(models.Role.CanApprove))
			r.Get("/accounts", s.handleListAccounts)
			r.Post("/accounts/{id}/approve", s.handleApproveAccount)
			r.Delete("/accounts/{id}/approve", s.handleRejectAccount)
			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handlePutSettings)
			r.Delete("/posts/{id}", s.handleDeletePost)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(func(role models.Role) bool { return role == models.RoleSuperAdmin }))
			r.Get("/mail/oauth/connect", s.handleMailConnect)
			r.Get("/mail/oauth/callback", s.handleMailCallback)
			r.Get("/mail/status", s.handleMailStatus)
			r.Delete("/mail/oauth", s.handleMailDisconnect)
		})
	})

	return r
}
