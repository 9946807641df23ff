package server

import (
	"errors"
	"net/http"

	"foodconnect/pkg/types"
)

func (s *Service) handleGetSignup(w http.ResponseWriter, r *http.Request) {
	if user := s.currentUser(r.Context()); user != nil {
		http.Redirect(w, r, homeFor(user), http.StatusSeeOther)
		return
	}

	data := &types.SignupPageData{
		BasePageData: types.BasePageData{Title: "Sign Up"},
	}

	if err := s.renderTemplate(w, r, "page.signup", data); err != nil {
		s.logger.WithError(err).Error("failed to render signup page")
		s.internalServerError(w)
	}
}

func (s *Service) handlePostSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, "/signup", "invalid form payload")
		return
	}

	var input types.RegisterForm
	if err := decoder.Decode(&input, r.PostForm); err != nil {
		s.redirectWithError(w, r, "/signup", "invalid form payload")
		return
	}

	data := &types.SignupPageData{
		BasePageData: types.BasePageData{Title: "Sign Up"},
		Form:         input,
	}
	data.Form.Password, data.Form.ConfirmPassword = "", ""

	volunteer, err := s.accounts.Register(ctx, input)
	if err != nil {
		var verr *types.ValidationError
		switch {
		case errors.As(err, &verr):
			s.logger.WithField("field_errors", verr.Fields).Info("validation errors during signup")
			data.FieldErrors = verr.Fields
			data.Error = "Please fix the highlighted fields."
			if _, ok := verr.Fields["confirmPassword"]; ok && len(verr.Fields) == 1 {
				data.Error = "Passwords don't match"
			}
		case errors.Is(err, types.ErrEmailTaken):
			data.FieldErrors = map[string]string{"email": "An account with this email already exists."}
			data.Error = "This email is already registered. Please use a different email or login instead."
		default:
			s.logger.WithError(err).Error("failed to register volunteer")
			data.Error = "An error occurred during signup. Please try again."
		}

		if err := s.renderTemplateStatus(w, r, http.StatusUnprocessableEntity, "page.signup", data); err != nil {
			s.logger.WithError(err).Error("failed to render signup page with errors")
		}
		return
	}

	token, _, err := s.sessions.Issue(ctx, volunteer)
	if err != nil {
		s.logger.WithError(err).Error("failed to issue session after signup")
		s.redirectWithNotice(w, r, "/login", "Account created, please log in")
		return
	}

	if err := s.setSessionCookie(w, token); err != nil {
		s.logger.WithError(err).Error("failed to encode session cookie")
		s.internalServerError(w)
		return
	}

	s.redirectWithNotice(w, r, "/volunteer/pickup", "Account created successfully")
}
