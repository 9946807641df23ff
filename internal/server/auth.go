package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"foodconnect/pkg/types"
)

const redirectCookieName = "login_redirect"

// homeFor is where a user lands after signing in.
func homeFor(user *types.SessionUser) string {
	if user.IsAdmin() {
		return "/admin/volunteers"
	}
	return "/volunteer/pickup"
}

func (s *Service) handleGetLogin(w http.ResponseWriter, r *http.Request) {
	if user := s.currentUser(r.Context()); user != nil {
		s.logger.WithField("volunteer_id", user.ID).Debug("user is already logged in, redirecting home")
		http.Redirect(w, r, homeFor(user), http.StatusSeeOther)
		return
	}

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "Login"},
		Email:        strings.TrimSpace(r.URL.Query().Get("email")),
	}

	if err := s.renderTemplate(w, r, "page.login", data); err != nil {
		s.logger.WithError(err).Error("failed to render login page")
		s.internalServerError(w)
	}
}

func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, "/login", "invalid form payload")
		return
	}

	var input types.LoginForm
	if err := decoder.Decode(&input, r.PostForm); err != nil {
		s.redirectWithError(w, r, "/login", "invalid form payload")
		return
	}

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "Login"},
		Email:        strings.TrimSpace(input.Email),
	}

	volunteer, err := s.accounts.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		if !errors.Is(err, types.ErrInvalidCredential) {
			s.logger.WithError(err).Error("failed to authenticate volunteer")
			data.Error = "An error occurred during login. Please try again."
		} else {
			data.Error = "Invalid email or password. Please try again."
		}

		if err := s.renderTemplateStatus(w, r, http.StatusUnauthorized, "page.login", data); err != nil {
			s.logger.WithError(err).Error("failed to render login page with error")
		}
		return
	}

	token, sess, err := s.sessions.Issue(ctx, volunteer)
	if err != nil {
		s.logger.WithError(err).Error("failed to issue session")
		s.internalServerError(w)
		return
	}

	if err := s.setSessionCookie(w, token); err != nil {
		s.logger.WithError(err).Error("failed to encode session cookie")
		s.internalServerError(w)
		return
	}

	s.logger.WithField("volunteer_id", volunteer.ID).Info("volunteer logged in")

	// Check to see if this login attempt was the result of an unauthed redirect
	if redirectCookie, err := r.Cookie(redirectCookieName); err == nil {
		s.clearRedirectCookie(w)
		if path := redirectCookie.Value; isLocalPath(path) {
			http.Redirect(w, r, path, http.StatusSeeOther)
			return
		}
	}

	http.Redirect(w, r, homeFor(sess.User), http.StatusSeeOther)
}

func (s *Service) handlePostLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if gate := s.gate(ctx); gate != nil {
		if err := gate.Clear(ctx); err != nil {
			s.logger.WithError(err).Error("failed to revoke session")
		}
	}

	s.clearSessionCookie(w)
	s.redirectWithNotice(w, r, "/login", "You have been logged out")
}

// sessionToken returns the decoded session token and whether a session
// cookie was sent at all.
func (s *Service) sessionToken(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(s.config.CookieName)
	if err != nil {
		return "", false
	}

	var token string
	if err := s.cookie.Decode(s.config.CookieName, cookie.Value, &token); err != nil {
		s.logger.WithError(err).Debug("failed to decode session cookie")
		return "", true
	}

	return token, true
}

func (s *Service) setSessionCookie(w http.ResponseWriter, token string) error {
	encoded, err := s.cookie.Encode(s.config.CookieName, token)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    encoded,
		HttpOnly: true,
		Secure:   !s.config.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.sessions.TTL().Seconds()),
		Path:     "/",
	})

	return nil
}

func (s *Service) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   !s.config.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Path:     "/",
	})
}

func (s *Service) setRedirectCookie(w http.ResponseWriter, path string, age time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     redirectCookieName,
		Value:    path,
		HttpOnly: true,
		Secure:   !s.config.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(age.Seconds()),
	})
}

func (s *Service) clearRedirectCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     redirectCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   !s.config.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func isLocalPath(path string) bool {
	return strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//") && !strings.HasPrefix(path, "/\\")
}
