package server

import (
	"net/http"

	"foodconnect/pkg/types"
)

func (s *Service) handleGetActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.currentUser(ctx)

	donations, err := s.donations.Activities(ctx, user.ID)
	if err != nil {
		s.logger.WithError(err).WithField("volunteer_id", user.ID).Error("failed to load activities")
		s.internalServerError(w)
		return
	}

	data := &types.ActivitiesPageData{
		BasePageData: types.BasePageData{Title: "Activities"},
		Donations:    donations,
	}

	if err := s.renderTemplate(w, r, "page.activities", data); err != nil {
		s.logger.WithError(err).Error("failed to render activities page")
		s.internalServerError(w)
	}
}
