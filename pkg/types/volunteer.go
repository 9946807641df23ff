package types

import "time"

type Role string

const (
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

// Volunteer is a record of the volunteers collection. Password holds a
// bcrypt hash, never the plaintext.
type Volunteer struct {
	ID                 string    `json:"id"`
	FullName           string    `json:"fullName"`
	Email              string    `json:"email"`
	Password           string    `json:"password"`
	EnrollmentNumber   string    `json:"enrollmentNumber,omitempty"`
	Year               string    `json:"year,omitempty"`
	Role               Role      `json:"role"`
	TotalCredits       int       `json:"totalCredits"`
	DonationsCompleted int       `json:"donationsCompleted"`
	MemberSince        time.Time `json:"memberSince"`
}

func (v *Volunteer) IsAdmin() bool {
	return v.Role == RoleAdmin
}

// SessionUser mirrors the displayable fields of the signed in volunteer.
type SessionUser struct {
	ID          string    `json:"id"`
	FullName    string    `json:"fullName"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	MemberSince time.Time `json:"memberSince"`
}

func NewSessionUser(v *Volunteer) *SessionUser {
	role := v.Role
	if role == "" {
		role = RoleVolunteer
	}

	return &SessionUser{
		ID:          v.ID,
		FullName:    v.FullName,
		Email:       v.Email,
		Role:        role,
		MemberSince: v.MemberSince,
	}
}

func (u *SessionUser) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type Session struct {
	ID        string       `json:"id"`
	User      *SessionUser `json:"user"`
	ExpiresAt time.Time    `json:"expiresAt"`
}
