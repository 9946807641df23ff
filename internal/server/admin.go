package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"foodconnect/internal/workflow"
	"foodconnect/pkg/types"

	"github.com/sirupsen/logrus"
)

const (
	adminDonationsPath = "/admin/donations"
	defaultCredits     = 3
)

func (s *Service) handleGetAdminVolunteers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	volunteers, err := s.profiles.Volunteers(ctx, query)
	if err != nil {
		s.logger.WithError(err).Error("failed to load volunteers")
		s.internalServerError(w)
		return
	}

	data := &types.AdminVolunteersPageData{
		BasePageData: types.BasePageData{Title: "Volunteers"},
		Query:        query,
		Volunteers:   volunteers,
	}

	if err := s.renderTemplate(w, r, "page.admin.volunteers", data); err != nil {
		s.logger.WithError(err).Error("failed to render volunteers page")
		s.internalServerError(w)
	}
}

func (s *Service) handleGetAdminDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := s.donations.Donations(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to load donations")
		s.internalServerError(w)
		return
	}

	data := &types.AdminDonationsPageData{
		BasePageData: types.BasePageData{Title: "Donations"},
		Donations:    donations,
	}

	if err := s.renderTemplate(w, r, "page.admin.donations", data); err != nil {
		s.logger.WithError(err).Error("failed to render donations page")
		s.internalServerError(w)
	}
}

func (s *Service) handleGetAdminDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID := r.PathValue("id")

	donation, err := s.donations.Donation(ctx, donationID)
	if err != nil {
		if errors.Is(err, types.ErrDonationNotFound) {
			s.redirectWithError(w, r, adminDonationsPath, "Donation not found")
			return
		}

		s.logger.WithError(err).WithField("donation_id", donationID).Error("failed to load donation")
		s.redirectWithError(w, r, adminDonationsPath, "Failed to load donation data")
		return
	}

	data := &types.AdminDonationDetailPageData{
		BasePageData:   types.BasePageData{Title: "Donation Details"},
		Donation:       donation,
		DefaultCredits: defaultCredits,
		MinCredits:     types.MinApprovalCredits,
		MaxCredits:     types.MaxApprovalCredits,
	}

	if err := s.renderTemplate(w, r, "page.admin.donation", data); err != nil {
		s.logger.WithError(err).Error("failed to render donation detail page")
		s.internalServerError(w)
	}
}

func (s *Service) handlePostApproveDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID := r.PathValue("id")
	detailPath := donationPath(donationID)

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, detailPath, "invalid form payload")
		return
	}

	var input types.AssignCreditsForm
	if err := decoder.Decode(&input, r.PostForm); err != nil {
		s.redirectWithError(w, r, detailPath, fmt.Sprintf("Credits must be a number between %d and %d.", types.MinApprovalCredits, types.MaxApprovalCredits))
		return
	}

	donation, err := s.donations.Approve(ctx, donationID, input.Credits)
	if err != nil {
		s.handleReviewError(w, r, err, donationID, "Failed to assign credits")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"donation_id": donation.ID,
		"reviewer_id": s.currentUser(ctx).ID,
	}).Debug("donation approved by admin")

	s.redirectWithNotice(w, r, adminDonationsPath, fmt.Sprintf("%d credits have been assigned to %s", input.Credits, donation.VolunteerName))
}

func (s *Service) handlePostRejectDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID := r.PathValue("id")

	if _, err := s.donations.Reject(ctx, donationID); err != nil {
		s.handleReviewError(w, r, err, donationID, "Failed to reject donation")
		return
	}

	s.redirectWithNotice(w, r, adminDonationsPath, "The donation has been rejected successfully")
}

func (s *Service) handleReviewError(w http.ResponseWriter, r *http.Request, err error, donationID, fallback string) {
	if !workflow.IsReviewError(err) {
		s.logger.WithError(err).WithField("donation_id", donationID).Error("failed to review donation")
		s.redirectWithError(w, r, adminDonationsPath, fallback)
		return
	}

	var verr *types.ValidationError
	switch {
	case errors.As(err, &verr):
		s.redirectWithError(w, r, donationPath(donationID), verr.Message())
	case errors.Is(err, types.ErrDonationNotPending):
		s.redirectWithError(w, r, donationPath(donationID), "This donation has already been reviewed")
	default:
		s.redirectWithError(w, r, adminDonationsPath, "Donation not found")
	}
}

func donationPath(donationID string) string {
	return adminDonationsPath + "/" + url.PathEscape(donationID)
}
