package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"foodconnect/internal/kv"
	"foodconnect/internal/storage"
	"foodconnect/internal/store"
	"foodconnect/internal/utils"
	"foodconnect/pkg/types"

	"github.com/sirupsen/logrus"
)

// DonationService covers the donation lifecycle: volunteers submit pickups,
// admins approve them with credits or reject them.
type DonationService struct {
	store      kv.Store
	donations  *store.DonationRepository
	volunteers *store.VolunteerRepository
	photos     storage.PhotoStore
	logger     logrus.FieldLogger
	now        func() time.Time
}

func NewDonationService(
	kvStore kv.Store,
	donations *store.DonationRepository,
	volunteers *store.VolunteerRepository,
	photos storage.PhotoStore,
	logger logrus.FieldLogger,
) *DonationService {
	if photos == nil {
		photos = storage.InlinePhotoStore{}
	}

	return &DonationService{
		store:      kvStore,
		donations:  donations,
		volunteers: volunteers,
		photos:     photos,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func validatePickup(form types.PickupForm) *types.ValidationError {
	errs := map[string]string{}

	if strings.TrimSpace(form.MessName) == "" {
		errs["messName"] = "Mess name is required."
	}

	foodType := types.FoodType(strings.TrimSpace(form.FoodType))
	if foodType != "" && !foodType.Valid() {
		errs["foodType"] = "Food type must be veg or non-veg."
	}

	category := types.FoodCategory(strings.TrimSpace(form.Category))
	if category == "" {
		errs["category"] = "Category is required."
	} else if !category.Valid() {
		errs["category"] = "Choose one of the listed categories."
	}

	useBefore := strings.TrimSpace(form.UseBefore)
	if useBefore == "" {
		errs["useBefore"] = "Use before date is required."
	} else if _, err := time.Parse(types.UseBeforeLayout, useBefore); err != nil {
		errs["useBefore"] = "Use before must be a date (YYYY-MM-DD)."
	}

	if len(errs) > 0 {
		return &types.ValidationError{Fields: errs}
	}

	return nil
}

// Submit records a new pending donation for user.
func (s *DonationService) Submit(ctx context.Context, user *types.SessionUser, form types.PickupForm, photo *types.Photo) (*types.Donation, error) {
	if user == nil {
		return nil, types.ErrUnauthenticated
	}

	if verr := validatePickup(form); verr != nil {
		return nil, verr
	}

	foodType := types.FoodType(strings.TrimSpace(form.FoodType))
	if foodType == "" {
		foodType = types.FoodTypeVeg
	}

	donation := &types.Donation{
		VolunteerID:    user.ID,
		VolunteerName:  user.FullName,
		MessName:       strings.TrimSpace(form.MessName),
		FoodType:       foodType,
		Category:       types.FoodCategory(strings.TrimSpace(form.Category)),
		UseBefore:      strings.TrimSpace(form.UseBefore),
		AdditionalInfo: utils.TrimmedStringPtr(form.AdditionalInfo),
		Date:           s.now(),
		Status:         types.DonationStatusPending,
	}

	if photo != nil && len(photo.Data) > 0 {
		if !strings.HasPrefix(storage.DetectContentType(photo), "image/") {
			return nil, types.NewValidationError("photo", "Photo must be an image.")
		}

		url, err := s.photos.StorePhoto(ctx, user.ID, photo)
		if err != nil {
			return nil, fmt.Errorf("failed to store donation photo: %w", err)
		}
		donation.PhotoURL = &url
	}

	if err := s.donations.Create(ctx, donation); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"donation_id":  donation.ID,
		"volunteer_id": donation.VolunteerID,
	}).Info("donation submitted")

	return donation, nil
}

// Approve marks a pending donation approved with credits and credits the
// submitting volunteer in the same transaction. A donation whose volunteer no
// longer exists is still approved.
func (s *DonationService) Approve(ctx context.Context, donationID string, credits int) (*types.Donation, error) {
	if credits < types.MinApprovalCredits || credits > types.MaxApprovalCredits {
		return nil, types.NewValidationError("credits", fmt.Sprintf("Credits must be between %d and %d.", types.MinApprovalCredits, types.MaxApprovalCredits))
	}

	var approved *types.Donation
	err := s.store.Update(ctx, func(ctx context.Context, tx kv.Bucket) error {
		donations := s.donations.WithTx(tx)

		donation, err := donations.Donation(ctx, donationID)
		if err != nil {
			return err
		}

		if donation.Status != types.DonationStatusPending {
			return types.ErrDonationNotPending
		}

		donation.Status = types.DonationStatusApproved
		donation.Credits = utils.IntPtr(credits)
		if err := donations.Save(ctx, donation); err != nil {
			return err
		}

		found, err := s.volunteers.WithTx(tx).AwardCredits(ctx, donation.VolunteerID, credits)
		if err != nil {
			return err
		}

		if !found {
			s.logger.WithFields(logrus.Fields{
				"donation_id":  donation.ID,
				"volunteer_id": donation.VolunteerID,
			}).Debug("approved donation has no matching volunteer, skipping credit award")
		}

		approved = donation
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"donation_id":  approved.ID,
		"volunteer_id": approved.VolunteerID,
		"credits":      credits,
	}).Info("donation approved")

	return approved, nil
}

// Reject marks a pending donation rejected. Credits are never set.
func (s *DonationService) Reject(ctx context.Context, donationID string) (*types.Donation, error) {
	var rejected *types.Donation
	err := s.store.Update(ctx, func(ctx context.Context, tx kv.Bucket) error {
		donations := s.donations.WithTx(tx)

		donation, err := donations.Donation(ctx, donationID)
		if err != nil {
			return err
		}

		if donation.Status != types.DonationStatusPending {
			return types.ErrDonationNotPending
		}

		donation.Status = types.DonationStatusRejected
		if err := donations.Save(ctx, donation); err != nil {
			return err
		}

		rejected = donation
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithField("donation_id", rejected.ID).Info("donation rejected")

	return rejected, nil
}

// Activities lists a volunteer's donations, newest first.
func (s *DonationService) Activities(ctx context.Context, volunteerID string) ([]*types.Donation, error) {
	return s.donations.DonationsByVolunteer(ctx, volunteerID)
}

// Donations lists every donation in storage order.
func (s *DonationService) Donations(ctx context.Context) ([]*types.Donation, error) {
	return s.donations.Donations(ctx)
}

func (s *DonationService) Donation(ctx context.Context, donationID string) (*types.Donation, error) {
	return s.donations.Donation(ctx, donationID)
}

// IsReviewError reports whether err is an expected outcome of a review action
// that should be shown to the admin rather than treated as a failure.
func IsReviewError(err error) bool {
	var verr *types.ValidationError
	return errors.Is(err, types.ErrDonationNotFound) ||
		errors.Is(err, types.ErrDonationNotPending) ||
		errors.As(err, &verr)
}
