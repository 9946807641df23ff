package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodconnect/internal/store"
	"foodconnect/internal/workflow"
	"foodconnect/pkg/types"
)

// AdminID is fixed so reseeding updates the same record.
const AdminID = "admin"

type fakeVolunteerSeed struct {
	ID               string
	Email            string
	FullName         string
	EnrollmentNumber string
	Year             string
}

var fakeVolunteers = []fakeVolunteerSeed{
	{ID: "k3v9q2m8x1c7w4z6t0b5n", Email: "ananya.rao+seed1@example.com", FullName: "Ananya Rao", EnrollmentNumber: "EN2023001", Year: "1"},
	{ID: "p7d2s5h9j4l1f8g3a6r0y", Email: "rohan.mehta+seed2@example.com", FullName: "Rohan Mehta", EnrollmentNumber: "EN2022014", Year: "2"},
	{ID: "u1e6o3i8w5q2r9t4y7p0z", Email: "meera.iyer+seed3@example.com", FullName: "Meera Iyer", EnrollmentNumber: "EN2021027", Year: "3"},
	{ID: "c5x0v7b2n9m4a1s8d3f6g", Email: "arjun.nair+seed4@example.com", FullName: "Arjun Nair", EnrollmentNumber: "EN2023042", Year: "1"},
	{ID: "h8j3k6l1z4x9c2v7b0n5m", Email: "kavya.shah+seed5@example.com", FullName: "Kavya Shah", EnrollmentNumber: "EN2022055", Year: "2"},
}

func seedFakeVolunteerIDs() []string {
	ids := make([]string, 0, len(fakeVolunteers))
	for _, v := range fakeVolunteers {
		ids = append(ids, v.ID)
	}
	return ids
}

// SeedAdmin creates or refreshes the administrator account. The password is
// reset on every run so the configured value always works.
func SeedAdmin(ctx context.Context, repo *store.VolunteerRepository, email, name, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		fmt.Println("Skipping admin seed because ADMIN_EMAIL or ADMIN_PASSWORD is empty")
		return nil
	}

	hash, err := workflow.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	existing, err := repo.Volunteer(ctx, AdminID)
	if err != nil {
		if !errors.Is(err, types.ErrVolunteerNotFound) {
			return fmt.Errorf("failed to fetch admin: %w", err)
		}

		admin := &types.Volunteer{
			ID:       AdminID,
			FullName: name,
			Email:    email,
			Password: hash,
			Role:     types.RoleAdmin,
		}
		if err := repo.Create(ctx, admin); err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}

		fmt.Printf("Admin seeded: created %s\n", email)
		return nil
	}

	existing.FullName = name
	existing.Email = email
	existing.Password = hash
	existing.Role = types.RoleAdmin

	if err := repo.Save(ctx, existing); err != nil {
		return fmt.Errorf("failed to update admin: %w", err)
	}

	fmt.Printf("Admin seeded: updated %s\n", email)
	return nil
}

// SeedFakeVolunteers upserts the demo volunteers, all sharing password.
// Credits and completed counts already earned are kept.
func SeedFakeVolunteers(ctx context.Context, repo *store.VolunteerRepository, password string) error {
	hash, err := workflow.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash fake volunteer password: %w", err)
	}

	seeded := 0
	for _, fake := range fakeVolunteers {
		existing, err := repo.Volunteer(ctx, fake.ID)
		if err != nil {
			if !errors.Is(err, types.ErrVolunteerNotFound) {
				return fmt.Errorf("failed to fetch fake volunteer %s: %w", fake.ID, err)
			}

			volunteer := &types.Volunteer{
				ID:               fake.ID,
				FullName:         fake.FullName,
				Email:            fake.Email,
				Password:         hash,
				EnrollmentNumber: fake.EnrollmentNumber,
				Year:             fake.Year,
				Role:             types.RoleVolunteer,
			}

			if err := repo.Create(ctx, volunteer); err != nil {
				return fmt.Errorf("failed to create fake volunteer %s: %w", fake.ID, err)
			}
			seeded++
			continue
		}

		existing.FullName = fake.FullName
		existing.Email = fake.Email
		existing.Password = hash
		existing.EnrollmentNumber = fake.EnrollmentNumber
		existing.Year = fake.Year

		if err := repo.Save(ctx, existing); err != nil {
			return fmt.Errorf("failed to update fake volunteer %s: %w", fake.ID, err)
		}
		seeded++
	}

	fmt.Printf("Fake volunteers seeded: %d upserted\n", seeded)
	return nil
}
