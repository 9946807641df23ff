package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"foodconnect/internal/store"
	"foodconnect/internal/workflow"
	"foodconnect/pkg/types"
)

var fakeMessNames = []string{
	"North Campus Mess",
	"South Block Canteen",
	"Girls Hostel Mess",
	"Boys Hostel Mess",
	"Staff Dining Hall",
}

var fakeNotes = []string{
	"Packed in steel containers, please return them.",
	"Collected right after dinner service.",
	"Enough for roughly twenty people.",
	"Kept refrigerated until pickup.",
	"",
}

type weightedDonationStatus struct {
	Status types.DonationStatus
	Weight int
}

var weightedStatuses = []weightedDonationStatus{
	{Status: types.DonationStatusPending, Weight: 45},
	{Status: types.DonationStatusApproved, Weight: 40},
	{Status: types.DonationStatusRejected, Weight: 15},
}

// SeedFakeDonations submits count donations from the demo volunteers and
// reviews a share of them through the normal workflow, so volunteer credit
// totals stay consistent with the approved donations.
func SeedFakeDonations(ctx context.Context, volunteers *store.VolunteerRepository, donations *workflow.DonationService, count int) error {
	if count <= 0 {
		fmt.Println("Skipping fake donations seed because count <= 0")
		return nil
	}

	var seedUsers []*types.SessionUser
	for _, id := range seedFakeVolunteerIDs() {
		v, err := volunteers.Volunteer(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load fake volunteer %s; seed fake volunteers first: %w", id, err)
		}
		seedUsers = append(seedUsers, types.NewSessionUser(v))
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	created, approved, rejected := 0, 0, 0
	for i := 0; i < count; i++ {
		user := seedUsers[rng.Intn(len(seedUsers))]

		foodType := types.FoodTypeVeg
		if rng.Intn(100) < 30 {
			foodType = types.FoodTypeNonVeg
		}

		form := types.PickupForm{
			MessName:       fakeMessNames[rng.Intn(len(fakeMessNames))],
			FoodType:       string(foodType),
			Category:       string(types.FoodCategories[rng.Intn(len(types.FoodCategories))]),
			UseBefore:      time.Now().AddDate(0, 0, rng.Intn(3)+1).Format(types.UseBeforeLayout),
			AdditionalInfo: fakeNotes[rng.Intn(len(fakeNotes))],
		}

		donation, err := donations.Submit(ctx, user, form, nil)
		if err != nil {
			return fmt.Errorf("failed to submit fake donation %d: %w", i+1, err)
		}
		created++

		switch pickWeightedStatus(rng) {
		case types.DonationStatusApproved:
			credits := rng.Intn(types.MaxApprovalCredits-types.MinApprovalCredits+1) + types.MinApprovalCredits
			if _, err := donations.Approve(ctx, donation.ID, credits); err != nil {
				return fmt.Errorf("failed to approve fake donation %s: %w", donation.ID, err)
			}
			approved++
		case types.DonationStatusRejected:
			if _, err := donations.Reject(ctx, donation.ID); err != nil {
				return fmt.Errorf("failed to reject fake donation %s: %w", donation.ID, err)
			}
			rejected++
		}
	}

	fmt.Printf("Fake donations seeded: %d created, %d approved, %d rejected\n", created, approved, rejected)
	return nil
}

func pickWeightedStatus(rng *rand.Rand) types.DonationStatus {
	total := 0
	for _, item := range weightedStatuses {
		total += item.Weight
	}

	if total == 0 {
		return types.DonationStatusPending
	}

	roll := rng.Intn(total)
	running := 0
	for _, item := range weightedStatuses {
		running += item.Weight
		if roll < running {
			return item.Status
		}
	}

	return types.DonationStatusPending
}
