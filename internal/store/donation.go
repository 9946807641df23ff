package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"foodconnect/internal/kv"
	"foodconnect/internal/utils"
	"foodconnect/pkg/types"

	"github.com/sirupsen/logrus"
)

type DonationRepository struct {
	scope scope
}

func NewDonationRepository(store kv.Store, logger logrus.FieldLogger) *DonationRepository {
	return &DonationRepository{scope: newScope(store, logger)}
}

func (r *DonationRepository) WithTx(tx kv.Bucket) *DonationRepository {
	return &DonationRepository{scope: r.scope.withTx(tx)}
}

func (r *DonationRepository) read(ctx context.Context, b kv.Bucket) ([]*types.Donation, error) {
	return ReadCollection[types.Donation](ctx, b, DonationsCollection, r.scope.logger)
}

func (r *DonationRepository) readForUpdate(ctx context.Context, b kv.Bucket) ([]*types.Donation, error) {
	return ReadCollectionForUpdate[types.Donation](ctx, b, DonationsCollection, r.scope.logger)
}

// Donations returns the whole collection in insertion order.
func (r *DonationRepository) Donations(ctx context.Context) ([]*types.Donation, error) {
	return r.read(ctx, r.scope.bucket())
}

// DonationsByVolunteer returns the volunteer's donations, newest first.
func (r *DonationRepository) DonationsByVolunteer(ctx context.Context, volunteerID string) ([]*types.Donation, error) {
	donations, err := r.Donations(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*types.Donation, 0)
	for _, d := range donations {
		if d.VolunteerID == volunteerID {
			out = append(out, d)
		}
	}

	slices.SortStableFunc(out, func(a, b *types.Donation) int {
		return cmp.Compare(b.Date.UnixNano(), a.Date.UnixNano())
	})

	return out, nil
}

func (r *DonationRepository) Donation(ctx context.Context, donationID string) (*types.Donation, error) {
	donations, err := r.Donations(ctx)
	if err != nil {
		return nil, err
	}

	for _, d := range donations {
		if d.ID == donationID {
			return d, nil
		}
	}

	return nil, types.ErrDonationNotFound
}

// Create appends donation. Missing ids are derived from the creation time.
func (r *DonationRepository) Create(ctx context.Context, donation *types.Donation) error {
	return r.scope.update(ctx, func(ctx context.Context, b kv.Bucket) error {
		donations, err := r.readForUpdate(ctx, b)
		if err != nil {
			return err
		}

		if donation.Date.IsZero() {
			donation.Date = time.Now().UTC()
		}
		if donation.ID == "" {
			donation.ID = donationID(donation.Date, donations)
		}

		donations = append(donations, donation)
		return utils.ErrorWrapOrNil(WriteCollection(ctx, b, DonationsCollection, donations), "failed to create donation")
	})
}

// Save replaces the stored record that has the same id.
func (r *DonationRepository) Save(ctx context.Context, donation *types.Donation) error {
	return r.scope.update(ctx, func(ctx context.Context, b kv.Bucket) error {
		donations, err := r.readForUpdate(ctx, b)
		if err != nil {
			return err
		}

		found := false
		for i, d := range donations {
			if d.ID == donation.ID {
				donations[i] = donation
				found = true
			}
		}

		if !found {
			return types.ErrDonationNotFound
		}

		return utils.ErrorWrapOrNil(WriteCollection(ctx, b, DonationsCollection, donations), "failed to save donation")
	})
}

func donationID(created time.Time, existing []*types.Donation) string {
	id := fmt.Sprintf("donation-%d", created.UnixMilli())
	for _, d := range existing {
		if d.ID == id {
			return fmt.Sprintf("%s-%s", id, utils.NanoIDSize(utils.SuffixSize))
		}
	}
	return id
}
