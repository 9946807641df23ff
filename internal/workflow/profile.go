package workflow

import (
	"context"
	"errors"
	"strings"

	"foodconnect/internal/kv"
	"foodconnect/internal/store"
	"foodconnect/pkg/types"

	"github.com/sirupsen/logrus"
)

type ProfileService struct {
	store      kv.Store
	volunteers *store.VolunteerRepository
	sessions   *store.SessionRepository
	logger     logrus.FieldLogger
}

func NewProfileService(
	kvStore kv.Store,
	volunteers *store.VolunteerRepository,
	sessions *store.SessionRepository,
	logger logrus.FieldLogger,
) *ProfileService {
	return &ProfileService{
		store:      kvStore,
		volunteers: volunteers,
		sessions:   sessions,
		logger:     logger,
	}
}

func (s *ProfileService) Profile(ctx context.Context, volunteerID string) (*types.Volunteer, error) {
	return s.volunteers.Volunteer(ctx, volunteerID)
}

// Volunteers lists volunteers in storage order, keeping only those whose name
// contains query (case-insensitive) when query is not blank.
func (s *ProfileService) Volunteers(ctx context.Context, query string) ([]*types.Volunteer, error) {
	volunteers, err := s.volunteers.Volunteers(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return volunteers, nil
	}

	out := make([]*types.Volunteer, 0, len(volunteers))
	for _, v := range volunteers {
		if strings.Contains(strings.ToLower(v.FullName), query) {
			out = append(out, v)
		}
	}

	return out, nil
}

// UpdateName renames the signed in volunteer and the session record in one
// transaction.
func (s *ProfileService) UpdateName(ctx context.Context, sess *types.Session, newName string) error {
	if sess == nil || sess.User == nil {
		return types.ErrUnauthenticated
	}

	newName = strings.TrimSpace(newName)
	if newName == "" {
		return types.NewValidationError("fullName", "Please enter a valid username")
	}

	err := s.store.Update(ctx, func(ctx context.Context, tx kv.Bucket) error {
		volunteers := s.volunteers.WithTx(tx)

		volunteer, err := volunteers.Volunteer(ctx, sess.User.ID)
		if err != nil {
			return err
		}

		volunteer.FullName = newName
		if err := volunteers.Save(ctx, volunteer); err != nil {
			return err
		}

		if sess.ID == "" {
			return nil
		}

		user := *sess.User
		user.FullName = newName
		return s.sessions.WithTx(tx).Save(ctx, sess.ID, &user)
	})
	if err != nil {
		return err
	}

	sess.User.FullName = newName
	s.logger.WithField("volunteer_id", sess.User.ID).Info("volunteer name updated")

	return nil
}

// UpdatePassword replaces the volunteer's password after checking the current
// one. A wrong current password returns types.ErrInvalidCredential and writes
// nothing.
func (s *ProfileService) UpdatePassword(ctx context.Context, volunteerID, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return types.NewValidationError("currentPassword", "Please fill in all password fields")
	}
	if verr := validatePassword("newPassword", newPassword); verr != nil {
		return verr
	}

	err := s.store.Update(ctx, func(ctx context.Context, tx kv.Bucket) error {
		volunteers := s.volunteers.WithTx(tx)

		volunteer, err := volunteers.Volunteer(ctx, volunteerID)
		if err != nil {
			if errors.Is(err, types.ErrVolunteerNotFound) {
				return types.ErrInvalidCredential
			}
			return err
		}

		if err := CheckPassword(volunteer.Password, currentPassword); err != nil {
			return err
		}

		hash, err := HashPassword(newPassword)
		if err != nil {
			return err
		}

		volunteer.Password = hash
		return volunteers.Save(ctx, volunteer)
	})
	if err != nil {
		return err
	}

	s.logger.WithField("volunteer_id", volunteerID).Info("volunteer password updated")
	return nil
}
