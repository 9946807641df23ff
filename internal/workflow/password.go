package workflow

import (
	"golang.org/x/crypto/bcrypt"

	"foodconnect/pkg/types"
)

// bcrypt ignores everything past 72 bytes, so longer passwords are refused
// instead of silently truncated.
const maxPasswordBytes = 72

var passwordCost = bcrypt.DefaultCost

func validatePassword(field, password string) *types.ValidationError {
	if password == "" {
		return types.NewValidationError(field, "Password is required.")
	}
	if len(password) > maxPasswordBytes {
		return types.NewValidationError(field, "Password must be at most 72 bytes.")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword returns types.ErrInvalidCredential when password does not
// match hash.
func CheckPassword(hash, password string) error {
	if hash == "" {
		return types.ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return types.ErrInvalidCredential
	}
	return nil
}
