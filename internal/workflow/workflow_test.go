package workflow

import (
	"context"
	"testing"

	"foodconnect/internal/kv"
	"foodconnect/internal/store"
	"foodconnect/pkg/types"

	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	passwordCost = bcrypt.MinCost
}

type fixture struct {
	kv         *kv.Memory
	volunteers *store.VolunteerRepository
	donations  *store.DonationRepository
	sessions   *store.SessionRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := kv.NewMemory()
	logger, _ := test.NewNullLogger()

	return &fixture{
		kv:         mem,
		volunteers: store.NewVolunteerRepository(mem, logger),
		donations:  store.NewDonationRepository(mem, logger),
		sessions:   store.NewSessionRepository(mem, logger),
	}
}

func (f *fixture) seedVolunteers(t *testing.T, volunteers ...*types.Volunteer) {
	t.Helper()
	if err := store.WriteCollection(context.Background(), f.kv, store.VolunteersCollection, volunteers); err != nil {
		t.Fatalf("seed volunteers: %v", err)
	}
}

func (f *fixture) seedDonations(t *testing.T, donations ...*types.Donation) {
	t.Helper()
	if err := store.WriteCollection(context.Background(), f.kv, store.DonationsCollection, donations); err != nil {
		t.Fatalf("seed donations: %v", err)
	}
}

func (f *fixture) raw(t *testing.T, key string) string {
	t.Helper()
	b, err := f.kv.Get(context.Background(), key)
	if err != nil {
		return ""
	}
	return string(b)
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}
