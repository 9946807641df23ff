package types

import (
	"time"
)

type DonationStatus string

const (
	DonationStatusPending  DonationStatus = "pending"
	DonationStatusApproved DonationStatus = "approved"
	DonationStatusRejected DonationStatus = "rejected"
)

func (s DonationStatus) IsTerminal() bool {
	return s == DonationStatusApproved || s == DonationStatusRejected
}

type FoodType string

const (
	FoodTypeVeg    FoodType = "veg"
	FoodTypeNonVeg FoodType = "non-veg"
)

func (f FoodType) Valid() bool {
	return f == FoodTypeVeg || f == FoodTypeNonVeg
}

type FoodCategory string

const (
	FoodCategoryChapati      FoodCategory = "Chapati"
	FoodCategoryDryVegetable FoodCategory = "Dry Vegetable"
	FoodCategoryWetVegetable FoodCategory = "Wet Vegetable"
	FoodCategoryRice         FoodCategory = "Rice"
	FoodCategorySnacks       FoodCategory = "Snacks"
)

var FoodCategories = []FoodCategory{
	FoodCategoryChapati,
	FoodCategoryDryVegetable,
	FoodCategoryWetVegetable,
	FoodCategoryRice,
	FoodCategorySnacks,
}

func (c FoodCategory) Valid() bool {
	for _, known := range FoodCategories {
		if c == known {
			return true
		}
	}
	return false
}

const (
	MinApprovalCredits = 1
	MaxApprovalCredits = 10

	UseBeforeLayout = "2006-01-02"
)

type Donation struct {
	ID             string         `json:"id"`
	VolunteerID    string         `json:"volunteerId"`
	VolunteerName  string         `json:"volunteerName"`
	MessName       string         `json:"messName"`
	FoodType       FoodType       `json:"foodType"`
	Category       FoodCategory   `json:"category"`
	UseBefore      string         `json:"useBefore"`
	AdditionalInfo *string        `json:"additionalInfo"`
	PhotoURL       *string        `json:"photoUrl"`
	Date           time.Time      `json:"date"`
	Status         DonationStatus `json:"status"`
	Credits        *int           `json:"credits,omitempty"`
}

// Photo is an uploaded image attached to a donation.
type Photo struct {
	Data        []byte
	ContentType string
}
