package seed

import (
	"context"
	"fmt"

	"obraflow/internal/store"
	"obraflow/pkg/types"
)

// SeedProfiles inserts the demo role documents. Existing profiles
// are left untouched, so rerunning the seed is safe.
//
// The UIDs are fixed so seeded requests can reference them without a
// lookup. In a real deployment profiles are provisioned on first
// sign-in instead.
func SeedProfiles(ctx context.Context, repo *store.ProfileRepository) error {
	profiles := []*types.Profile{
		{
			UID:  "seed-field-user-1",
			Name: "Marcos Silva",
			Role: types.RoleField,
		},
		{
			UID:  "seed-field-user-2",
			Name: "Ana Torres",
			Role: types.RoleField,
		},
		{
			UID:  "seed-office-user-1",
			Name: "Lucia Mendes",
			Role: types.RoleOffice,
		},
	}

	for _, profile := range profiles {
		if err := repo.CreateProfile(ctx, profile); err != nil {
			return fmt.Errorf("failed to seed profile %s: %w", profile.UID, err)
		}
	}

	return nil
}

// seedFieldUsers returns the seeded field profiles that fake requests
// are attributed to.
func seedFieldUsers() []types.Profile {
	return []types.Profile{
		{UID: "seed-field-user-1", Name: "Marcos Silva"},
		{UID: "seed-field-user-2", Name: "Ana Torres"},
	}
}
