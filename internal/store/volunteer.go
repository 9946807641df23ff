package store

import (
	"context"
	"strings"
	"time"

	"foodconnect/internal/kv"
	"foodconnect/internal/utils"
	"foodconnect/pkg/types"

	"github.com/sirupsen/logrus"
)

type VolunteerRepository struct {
	scope scope
}

func NewVolunteerRepository(store kv.Store, logger logrus.FieldLogger) *VolunteerRepository {
	return &VolunteerRepository{scope: newScope(store, logger)}
}

// WithTx returns a copy of the repository that reads and writes through tx.
func (r *VolunteerRepository) WithTx(tx kv.Bucket) *VolunteerRepository {
	return &VolunteerRepository{scope: r.scope.withTx(tx)}
}

func (r *VolunteerRepository) read(ctx context.Context, b kv.Bucket) ([]*types.Volunteer, error) {
	return ReadCollection[types.Volunteer](ctx, b, VolunteersCollection, r.scope.logger)
}

func (r *VolunteerRepository) readForUpdate(ctx context.Context, b kv.Bucket) ([]*types.Volunteer, error) {
	return ReadCollectionForUpdate[types.Volunteer](ctx, b, VolunteersCollection, r.scope.logger)
}

// Volunteers returns every volunteer in storage order.
func (r *VolunteerRepository) Volunteers(ctx context.Context) ([]*types.Volunteer, error) {
	return r.read(ctx, r.scope.bucket())
}

func (r *VolunteerRepository) Volunteer(ctx context.Context, volunteerID string) (*types.Volunteer, error) {
	volunteers, err := r.Volunteers(ctx)
	if err != nil {
		return nil, err
	}

	for _, v := range volunteers {
		if v.ID == volunteerID {
			return v, nil
		}
	}

	return nil, types.ErrVolunteerNotFound
}

func (r *VolunteerRepository) VolunteerByEmail(ctx context.Context, email string) (*types.Volunteer, error) {
	volunteers, err := r.Volunteers(ctx)
	if err != nil {
		return nil, err
	}

	if v := findByEmail(volunteers, email); v != nil {
		return v, nil
	}

	return nil, types.ErrVolunteerNotFound
}

// Create appends volunteer, assigning an id and member-since time when
// missing. Emails are unique, compared case-insensitively.
func (r *VolunteerRepository) Create(ctx context.Context, volunteer *types.Volunteer) error {
	return r.scope.update(ctx, func(ctx context.Context, b kv.Bucket) error {
		volunteers, err := r.readForUpdate(ctx, b)
		if err != nil {
			return err
		}

		if findByEmail(volunteers, volunteer.Email) != nil {
			return types.ErrEmailTaken
		}

		if volunteer.ID == "" {
			volunteer.ID = utils.NanoID()
		}
		if volunteer.MemberSince.IsZero() {
			volunteer.MemberSince = time.Now().UTC()
		}
		if volunteer.Role == "" {
			volunteer.Role = types.RoleVolunteer
		}

		volunteers = append(volunteers, volunteer)
		return utils.ErrorWrapOrNil(WriteCollection(ctx, b, VolunteersCollection, volunteers), "failed to create volunteer")
	})
}

// Save replaces the stored record that has the same id.
func (r *VolunteerRepository) Save(ctx context.Context, volunteer *types.Volunteer) error {
	return r.scope.update(ctx, func(ctx context.Context, b kv.Bucket) error {
		volunteers, err := r.readForUpdate(ctx, b)
		if err != nil {
			return err
		}

		found := false
		for i, v := range volunteers {
			if v.ID == volunteer.ID {
				volunteers[i] = volunteer
				found = true
			}
		}

		if !found {
			return types.ErrVolunteerNotFound
		}

		return utils.ErrorWrapOrNil(WriteCollection(ctx, b, VolunteersCollection, volunteers), "failed to save volunteer")
	})
}

// AwardCredits adds credits to the volunteer's total and counts one more
// completed donation. It reports false, without writing, when no volunteer has
// that id.
func (r *VolunteerRepository) AwardCredits(ctx context.Context, volunteerID string, credits int) (bool, error) {
	var found bool
	err := r.scope.update(ctx, func(ctx context.Context, b kv.Bucket) error {
		volunteers, err := r.readForUpdate(ctx, b)
		if err != nil {
			return err
		}

		for _, v := range volunteers {
			if v.ID == volunteerID {
				v.TotalCredits += credits
				v.DonationsCompleted++
				found = true
			}
		}

		if !found {
			return nil
		}

		return utils.ErrorWrapOrNil(WriteCollection(ctx, b, VolunteersCollection, volunteers), "failed to award credits")
	})

	return found, err
}

func findByEmail(volunteers []*types.Volunteer, email string) *types.Volunteer {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}

	for _, v := range volunteers {
		if strings.EqualFold(strings.TrimSpace(v.Email), email) {
			return v
		}
	}

	return nil
}
