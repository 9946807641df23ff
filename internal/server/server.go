package server

import (
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"slices"
	"strings"
	"time"

	"foodconnect/internal/session"
	"foodconnect/internal/workflow"
	"foodconnect/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/csrf"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
)

//go:embed templates
var uiFS embed.FS
var decoder = form.NewDecoder()

const csrfFieldName = "csrf_token"

type Service struct {
	logger    *logrus.Logger
	config    *types.Config
	templates *template.Template

	cookie   *securecookie.SecureCookie
	sessions *session.Manager
	csrf     func(http.Handler) http.Handler

	accounts  *workflow.AccountService
	donations *workflow.DonationService
	profiles  *workflow.ProfileService

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	sessions *session.Manager,
	accounts *workflow.AccountService,
	donations *workflow.DonationService,
	profiles *workflow.ProfileService,
) (*Service, error) {
	mux := flow.New()

	hashKey, err := decodeKey("COOKIE_HASH_KEY", config.CookieHashKey, 32, 64)
	if err != nil {
		return nil, err
	}
	blockKey, err := decodeKey("COOKIE_BLOCK_KEY", config.CookieBlockKey, 16, 24, 32)
	if err != nil {
		return nil, err
	}
	csrfKey, err := decodeKey("CSRF_AUTH_KEY", config.CSRFAuthKey, 32)
	if err != nil {
		return nil, err
	}

	s := &Service{
		logger:   logger,
		config:   config,
		cookie:   securecookie.New(hashKey, blockKey),
		sessions: sessions,

		accounts:  accounts,
		donations: donations,
		profiles:  profiles,

		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}
	s.cookie.MaxAge(int(sessions.TTL().Seconds()))

	s.csrf = csrf.Protect(
		csrfKey,
		csrf.Secure(!config.IsDevelopment()),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(csrfFieldName),
		csrf.ErrorHandler(http.HandlerFunc(s.handleCSRFFailure)),
	)

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	s.buildRouter(mux)

	return s, nil
}

func decodeKey(name, value string, sizes ...int) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%s is not valid base64: %w", name, err)
	}
	if !slices.Contains(sizes, len(key)) {
		return nil, fmt.Errorf("%s must decode to one of %v bytes, got %d", name, sizes, len(key))
	}
	return key, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)
	r.Use(s.MarkPlaintext)
	r.Use(s.LimitBody)
	r.Use(s.csrf)
	r.Use(s.LoadSession)

	r.HandleFunc("/health", s.handleHealth, http.MethodGet)

	r.HandleFunc("/", s.handleGetLogin, http.MethodGet)
	r.HandleFunc("/login", s.handleGetLogin, http.MethodGet)
	r.HandleFunc("/login", s.handlePostLogin, http.MethodPost)
	r.HandleFunc("/signup", s.handleGetSignup, http.MethodGet)
	r.HandleFunc("/signup", s.handlePostSignup, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireRole(""))

		r.HandleFunc("/logout", s.handlePostLogout, http.MethodPost)

		r.HandleFunc("/volunteer/pickup", s.handleGetPickup, http.MethodGet)
		r.HandleFunc("/volunteer/pickup", s.handlePostPickup, http.MethodPost)
		r.HandleFunc("/volunteer/activities", s.handleGetActivities, http.MethodGet)
		r.HandleFunc("/volunteer/profile", s.handleGetProfile, http.MethodGet)
		r.HandleFunc("/volunteer/profile/name", s.handlePostProfileName, http.MethodPost)
		r.HandleFunc("/volunteer/profile/password", s.handlePostProfilePassword, http.MethodPost)

		// Listed for any signed in user, matching the volunteer directory's
		// original reach.
		r.HandleFunc("/admin/volunteers", s.handleGetAdminVolunteers, http.MethodGet)
	})

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireRole(types.RoleAdmin))

		r.HandleFunc("/admin/donations", s.handleGetAdminDonations, http.MethodGet)
		r.HandleFunc("/admin/donations/:id", s.handleGetAdminDonation, http.MethodGet)
		r.HandleFunc("/admin/donations/:id/approve", s.handlePostApproveDonation, http.MethodPost)
		r.HandleFunc("/admin/donations/:id/reject", s.handlePostRejectDonation, http.MethodPost)
	})

	r.NotFound = http.HandlerFunc(s.handleNotFound)
}

func loadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"derefInt": func(i *int) int {
			if i == nil {
				return 0
			}
			return *i
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"safeURL": func(s *string) template.URL {
			if s == nil {
				return ""
			}
			if strings.HasPrefix(*s, "data:image/") || strings.HasPrefix(*s, "https://") || strings.HasPrefix(*s, "http://") {
				return template.URL(*s)
			}
			return ""
		},
	}

	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(uiFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(uiFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (s *Service) gate(ctx context.Context) *session.Gate {
	return session.FromContext(ctx)
}

func (s *Service) currentUser(ctx context.Context) *types.SessionUser {
	g := s.gate(ctx)
	if g == nil {
		return nil
	}
	return g.CurrentUser()
}
