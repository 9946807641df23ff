package server

import (
	"errors"
	"net/http"

	"foodconnect/pkg/types"
)

const profilePath = "/volunteer/profile"

func (s *Service) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.currentUser(ctx)

	volunteer, err := s.profiles.Profile(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, types.ErrVolunteerNotFound) {
			s.logger.WithError(err).WithField("volunteer_id", user.ID).Error("failed to fetch volunteer for profile")
			s.internalServerError(w)
			return
		}

		// The session outlived the volunteer record; show what the session knows.
		volunteer = &types.Volunteer{
			ID:          user.ID,
			FullName:    user.FullName,
			Email:       user.Email,
			Role:        user.Role,
			MemberSince: user.MemberSince,
		}
	}

	data := &types.ProfilePageData{
		BasePageData: types.BasePageData{Title: "Profile"},
		Volunteer:    volunteer,
	}

	if err := s.renderTemplate(w, r, "page.profile", data); err != nil {
		s.logger.WithError(err).Error("failed to render profile page")
		s.internalServerError(w)
	}
}

func (s *Service) handlePostProfileName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, profilePath, "invalid form payload")
		return
	}

	var input types.UpdateNameForm
	if err := decoder.Decode(&input, r.PostForm); err != nil {
		s.redirectWithError(w, r, profilePath, "invalid form payload")
		return
	}

	err := s.profiles.UpdateName(ctx, s.gate(ctx).Session(), input.FullName)
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			s.redirectWithError(w, r, profilePath, verr.Message())
			return
		}

		s.logger.WithError(err).Error("failed to update volunteer name")
		s.redirectWithError(w, r, profilePath, "Failed to update username")
		return
	}

	s.redirectWithNotice(w, r, profilePath, "Username updated successfully")
}

func (s *Service) handlePostProfilePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, profilePath, "invalid form payload")
		return
	}

	var input types.UpdatePasswordForm
	if err := decoder.Decode(&input, r.PostForm); err != nil {
		s.redirectWithError(w, r, profilePath, "invalid form payload")
		return
	}

	if input.CurrentPassword == "" || input.NewPassword == "" || input.ConfirmPassword == "" {
		s.redirectWithError(w, r, profilePath, "Please fill in all password fields")
		return
	}
	if input.NewPassword != input.ConfirmPassword {
		s.redirectWithError(w, r, profilePath, "New passwords don't match")
		return
	}

	err := s.profiles.UpdatePassword(ctx, s.currentUser(ctx).ID, input.CurrentPassword, input.NewPassword)
	if err != nil {
		var verr *types.ValidationError
		switch {
		case errors.Is(err, types.ErrInvalidCredential):
			s.redirectWithError(w, r, profilePath, "Current password is incorrect")
		case errors.As(err, &verr):
			s.redirectWithError(w, r, profilePath, verr.Message())
		default:
			s.logger.WithError(err).Error("failed to update volunteer password")
			s.redirectWithError(w, r, profilePath, "Failed to update password")
		}
		return
	}

	s.redirectWithNotice(w, r, profilePath, "Password updated successfully")
}
