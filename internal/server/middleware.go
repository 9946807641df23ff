package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"foodconnect/internal/session"
	"foodconnect/pkg/types"

	"github.com/gorilla/csrf"
	"github.com/sirupsen/logrus"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// MarkPlaintext tells the CSRF layer that development traffic arrives over
// plain HTTP, so it skips the TLS-only referer checks.
func (s *Service) MarkPlaintext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.IsDevelopment() {
			r = csrf.PlaintextHTTPRequest(r)
		}
		next.ServeHTTP(w, r)
	})
}

// LimitBody caps request bodies at the photo limit plus room for the other
// form fields.
func (s *Service) LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxPhotoBytes+(1<<20))
		}
		next.ServeHTTP(w, r)
	})
}

// LoadSession resolves the session cookie into a Gate for the rest of the
// request. A cookie that no longer resolves is cleared.
func (s *Service) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, hadCookie := s.sessionToken(r)

		gate := session.NewGate(s.sessions)
		if err := gate.Init(ctx, token); err != nil {
			s.logger.WithError(err).Error("failed to resolve session")
			s.internalServerError(w)
			return
		}

		if hadCookie && gate.CurrentUser() == nil {
			s.clearSessionCookie(w)
		}

		if user := gate.CurrentUser(); user != nil {
			s.logger.WithFields(logrus.Fields{
				"volunteer_id": user.ID,
				"role":         user.Role,
			}).Debug("authenticated user")
		}

		next.ServeHTTP(w, r.WithContext(session.WithGate(ctx, gate)))
	})
}

// RequireRole admits requests whose session user has role, or any signed in
// user when role is empty. Everyone else goes to the login page; a role
// mismatch is treated the same as no session.
func (s *Service) RequireRole(role types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gate := s.gate(r.Context())
			if gate == nil {
				s.redirectToLogin(w, r)
				return
			}

			err := gate.Allow(role)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, types.ErrUnauthenticated):
				s.logger.WithField("path", r.URL.Path).Debug("no session, redirecting to login")
				if r.Method == http.MethodGet {
					s.setRedirectCookie(w, r.URL.RequestURI(), time.Minute*5)
				}
				s.redirectToLogin(w, r)
			default:
				s.logger.WithFields(logrus.Fields{
					"path":         r.URL.Path,
					"volunteer_id": gate.CurrentUser().ID,
					"required":     role,
				}).Info("role not permitted, redirecting to login")
				s.redirectToLogin(w, r)
			}
		})
	}
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path != "/" && strings.HasSuffix(path, "/") {
			newURL := *r.URL
			newURL.Path = strings.TrimSuffix(path, "/")

			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}
