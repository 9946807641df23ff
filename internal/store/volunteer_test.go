package store_test

import (
	"context"
	"errors"
	"testing"

	"foodconnect/internal/kv"
	"foodconnect/internal/store"
	"foodconnect/pkg/types"
)

func newVolunteerRepo(t *testing.T, seed ...*types.Volunteer) (*store.VolunteerRepository, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	if len(seed) > 0 {
		if err := store.WriteCollection(context.Background(), mem, store.VolunteersCollection, seed); err != nil {
			t.Fatalf("seed volunteers: %v", err)
		}
	}
	return store.NewVolunteerRepository(mem, nil), mem
}

func TestVolunteersEmptyStore(t *testing.T) {
	repo, _ := newVolunteerRepo(t)

	volunteers, err := repo.Volunteers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(volunteers) != 0 {
		t.Fatalf("expected no volunteers, got %d", len(volunteers))
	}
}

func TestVolunteerCreate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newVolunteerRepo(t)

	v := &types.Volunteer{FullName: "Asha", Email: "asha@example.com"}
	if err := repo.Create(ctx, v); err != nil {
		t.Fatalf("create: %v", err)
	}

	if v.ID == "" {
		t.Fatal("expected an id to be assigned")
	}
	if v.MemberSince.IsZero() {
		t.Fatal("expected member since to be set")
	}
	if v.Role != types.RoleVolunteer {
		t.Fatalf("expected volunteer role, got %q", v.Role)
	}

	got, err := repo.VolunteerByEmail(ctx, "  ASHA@example.com ")
	if err != nil {
		t.Fatalf("lookup by email: %v", err)
	}
	if got.ID != v.ID {
		t.Fatalf("expected %s, got %s", v.ID, got.ID)
	}
}

func TestVolunteerCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo, _ := newVolunteerRepo(t, &types.Volunteer{ID: "v1", Email: "asha@example.com"})

	err := repo.Create(ctx, &types.Volunteer{FullName: "Other", Email: "Asha@Example.com"})
	if !errors.Is(err, types.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	volunteers, _ := repo.Volunteers(ctx)
	if len(volunteers) != 1 {
		t.Fatalf("duplicate signup must not write, got %d volunteers", len(volunteers))
	}
}

func TestVolunteerLookupNotFound(t *testing.T) {
	ctx := context.Background()
	repo, _ := newVolunteerRepo(t, &types.Volunteer{ID: "v1", Email: "a@example.com"})

	if _, err := repo.Volunteer(ctx, "v2"); !errors.Is(err, types.ErrVolunteerNotFound) {
		t.Fatalf("expected ErrVolunteerNotFound, got %v", err)
	}
	if _, err := repo.VolunteerByEmail(ctx, ""); !errors.Is(err, types.ErrVolunteerNotFound) {
		t.Fatalf("expected ErrVolunteerNotFound for blank email, got %v", err)
	}
}

func TestVolunteerSave(t *testing.T) {
	ctx := context.Background()
	repo, _ := newVolunteerRepo(t,
		&types.Volunteer{ID: "v1", FullName: "Asha"},
		&types.Volunteer{ID: "v2", FullName: "Ravi"},
	)

	if err := repo.Save(ctx, &types.Volunteer{ID: "v2", FullName: "Ravi K"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	volunteers, _ := repo.Volunteers(ctx)
	if volunteers[0].FullName != "Asha" || volunteers[1].FullName != "Ravi K" {
		t.Fatalf("unexpected volunteers after save: %s, %s", volunteers[0].FullName, volunteers[1].FullName)
	}

	if err := repo.Save(ctx, &types.Volunteer{ID: "v9"}); !errors.Is(err, types.ErrVolunteerNotFound) {
		t.Fatalf("expected ErrVolunteerNotFound, got %v", err)
	}
}

func TestAwardCredits(t *testing.T) {
	ctx := context.Background()
	repo, mem := newVolunteerRepo(t,
		&types.Volunteer{ID: "v1", TotalCredits: 2, DonationsCompleted: 1},
		&types.Volunteer{ID: "v2"},
	)

	found, err := repo.AwardCredits(ctx, "v1", 5)
	if err != nil || !found {
		t.Fatalf("expected award to succeed, found=%v err=%v", found, err)
	}

	v1, _ := repo.Volunteer(ctx, "v1")
	if v1.TotalCredits != 7 || v1.DonationsCompleted != 2 {
		t.Fatalf("unexpected counters: %d credits, %d donations", v1.TotalCredits, v1.DonationsCompleted)
	}

	before, _ := mem.Get(ctx, store.VolunteersCollection)
	found, err = repo.AwardCredits(ctx, "missing", 5)
	if err != nil || found {
		t.Fatalf("expected silent no-op, found=%v err=%v", found, err)
	}
	after, _ := mem.Get(ctx, store.VolunteersCollection)
	if string(before) != string(after) {
		t.Fatal("award for an unknown volunteer changed the collection")
	}
}
