package seed

import (
	"context"
	"math/rand"
	"testing"

	"foodconnect/internal/kv"
	"foodconnect/internal/store"
	"foodconnect/internal/workflow"
	"foodconnect/pkg/types"

	"github.com/sirupsen/logrus/hooks/test"
)

func TestSeedAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	repo := store.NewVolunteerRepository(kv.NewMemory(), logger)

	if err := SeedAdmin(ctx, repo, "admin@foodconnect.com", "Admin", "first-password"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if err := SeedAdmin(ctx, repo, "admin@foodconnect.com", "Admin Two", "second-password"); err != nil {
		t.Fatalf("reseed admin: %v", err)
	}

	all, _ := repo.Volunteers(ctx)
	if len(all) != 1 {
		t.Fatalf("expected one admin record, got %d", len(all))
	}

	admin := all[0]
	if admin.Role != types.RoleAdmin || admin.FullName != "Admin Two" {
		t.Fatalf("unexpected admin %#v", admin)
	}
	if err := workflow.CheckPassword(admin.Password, "second-password"); err != nil {
		t.Fatal("admin password not refreshed")
	}
}

func TestSeedAdminSkipsWithoutPassword(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	repo := store.NewVolunteerRepository(kv.NewMemory(), logger)

	if err := SeedAdmin(ctx, repo, "admin@foodconnect.com", "Admin", ""); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	all, _ := repo.Volunteers(ctx)
	if len(all) != 0 {
		t.Fatalf("expected no records, got %d", len(all))
	}
}

func TestSeedFakeDonationsKeepsCreditsConsistent(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	mem := kv.NewMemory()

	volunteers := store.NewVolunteerRepository(mem, logger)
	donations := store.NewDonationRepository(mem, logger)
	svc := workflow.NewDonationService(mem, donations, volunteers, nil, logger)

	if err := SeedFakeVolunteers(ctx, volunteers, "demo-password"); err != nil {
		t.Fatalf("seed volunteers: %v", err)
	}
	if err := SeedFakeDonations(ctx, volunteers, svc, 25); err != nil {
		t.Fatalf("seed donations: %v", err)
	}

	all, err := svc.Donations(ctx)
	if err != nil {
		t.Fatalf("donations: %v", err)
	}
	if len(all) != 25 {
		t.Fatalf("expected 25 donations, got %d", len(all))
	}

	credits := map[string]int{}
	completed := map[string]int{}
	for _, d := range all {
		if d.Status == types.DonationStatusApproved {
			credits[d.VolunteerID] += *d.Credits
			completed[d.VolunteerID]++
		} else if d.Credits != nil {
			t.Fatalf("%s donation %s carries credits", d.Status, d.ID)
		}
	}

	for _, id := range seedFakeVolunteerIDs() {
		v, err := volunteers.Volunteer(ctx, id)
		if err != nil {
			t.Fatalf("volunteer %s: %v", id, err)
		}
		if v.TotalCredits != credits[id] || v.DonationsCompleted != completed[id] {
			t.Fatalf("volunteer %s: counters %d/%d, approved donations add up to %d/%d",
				id, v.TotalCredits, v.DonationsCompleted, credits[id], completed[id])
		}
	}
}

func TestPickWeightedStatusCoversAllStatuses(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	seen := map[types.DonationStatus]bool{}
	for i := 0; i < 500; i++ {
		seen[pickWeightedStatus(rng)] = true
	}

	for _, item := range weightedStatuses {
		if !seen[item.Status] {
			t.Fatalf("status %s never picked", item.Status)
		}
	}
}
