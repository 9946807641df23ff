package workflow

import (
	"context"
	"errors"
	"net/mail"
	"strconv"
	"strings"

	"foodconnect/internal/store"
	"foodconnect/pkg/types"

	"github.com/sirupsen/logrus"
)

// AccountService handles volunteer signup and login.
type AccountService struct {
	volunteers *store.VolunteerRepository
	logger     logrus.FieldLogger
}

func NewAccountService(volunteers *store.VolunteerRepository, logger logrus.FieldLogger) *AccountService {
	return &AccountService{volunteers: volunteers, logger: logger}
}

func validateRegisterInput(form types.RegisterForm) *types.ValidationError {
	errs := map[string]string{}

	if strings.TrimSpace(form.FullName) == "" {
		errs["fullName"] = "Full name is required."
	}

	email := strings.TrimSpace(form.Email)
	if email == "" {
		errs["email"] = "Email is required."
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "Enter a valid email address."
	}

	if strings.TrimSpace(form.EnrollmentNumber) == "" {
		errs["enrollmentNumber"] = "Enrollment number is required."
	}

	year, err := strconv.Atoi(strings.TrimSpace(form.Year))
	if err != nil || year < 1 || year > 3 {
		errs["year"] = "Academic year must be 1, 2 or 3."
	}

	if verr := validatePassword("password", form.Password); verr != nil {
		for k, v := range verr.Fields {
			errs[k] = v
		}
	}

	if form.Password != form.ConfirmPassword {
		errs["confirmPassword"] = "Please make sure your passwords match."
	}

	if len(errs) > 0 {
		return &types.ValidationError{Fields: errs}
	}

	return nil
}

// Register creates a volunteer account. Emails already on file return
// types.ErrEmailTaken.
func (s *AccountService) Register(ctx context.Context, form types.RegisterForm) (*types.Volunteer, error) {
	if verr := validateRegisterInput(form); verr != nil {
		return nil, verr
	}

	hash, err := HashPassword(form.Password)
	if err != nil {
		return nil, err
	}

	volunteer := &types.Volunteer{
		FullName:         strings.TrimSpace(form.FullName),
		Email:            strings.TrimSpace(form.Email),
		Password:         hash,
		EnrollmentNumber: strings.TrimSpace(form.EnrollmentNumber),
		Year:             strings.TrimSpace(form.Year),
		Role:             types.RoleVolunteer,
	}

	if err := s.volunteers.Create(ctx, volunteer); err != nil {
		return nil, err
	}

	s.logger.WithField("volunteer_id", volunteer.ID).Info("volunteer registered")
	return volunteer, nil
}

// Authenticate returns the volunteer for email when password matches. Unknown
// emails and wrong passwords both return types.ErrInvalidCredential.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*types.Volunteer, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, types.ErrInvalidCredential
	}

	volunteer, err := s.volunteers.VolunteerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrVolunteerNotFound) {
			return nil, types.ErrInvalidCredential
		}
		return nil, err
	}

	if err := CheckPassword(volunteer.Password, password); err != nil {
		return nil, err
	}

	return volunteer, nil
}
