package types

// PickupForm carries the volunteer supplied fields of a new donation.
type PickupForm struct {
	MessName       string `form:"messName"`
	FoodType       string `form:"foodType"`
	Category       string `form:"category"`
	UseBefore      string `form:"useBefore"`
	AdditionalInfo string `form:"additionalInfo"`
}

type RegisterForm struct {
	FullName         string `form:"fullName"`
	Email            string `form:"email"`
	EnrollmentNumber string `form:"enrollmentNumber"`
	Year             string `form:"year"`
	Password         string `form:"password"`
	ConfirmPassword  string `form:"confirmPassword"`
}

type LoginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

type UpdateNameForm struct {
	FullName string `form:"fullName"`
}

type UpdatePasswordForm struct {
	CurrentPassword string `form:"currentPassword"`
	NewPassword     string `form:"newPassword"`
	ConfirmPassword string `form:"confirmPassword"`
}

type AssignCreditsForm struct {
	Credits int `form:"credits"`
}
