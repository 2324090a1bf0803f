package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"obraflow/internal/store"
	"obraflow/pkg/types"

	"github.com/jackc/pgx/v5/pgxpool"
)

var fakeProjects = []struct {
	ID   string
	Name string
}{
	{ID: "PRJ-001", Name: "Torre Norte"},
	{ID: "PRJ-002", Name: "Residencial Jardim"},
	{ID: "PRJ-003", Name: "Ponte Leste"},
	{ID: "PRJ-004", Name: "Galpao Industrial"},
}

var fakeRequestTitles = []string{
	"Cement bags running low",
	"Scaffolding bolts missing",
	"Crack in the east retaining wall",
	"Concrete mixer not starting",
	"Rebar delivery short by two bundles",
	"Water pooling near the foundation",
	"Safety harness clips worn out",
	"Formwork panels warped",
	"Electrical conduit damaged on floor 3",
	"Crane inspection due this week",
}

var fakeRequestDescriptions = []string{
	"Spotted during the morning walkthrough, needs attention before the next pour.",
	"Crew is blocked until this is resolved.",
	"Photo attached from the site this morning.",
	"Flagged by the foreman, please review and respond.",
	"Recurring issue, third time this month.",
	"",
}

// SeedFakeRequests fills the requests table with demo data so the
// office view has something to triage. Seeded rows are tagged with a
// "[seed] " title prefix so reset can find them.
func SeedFakeRequests(
	ctx context.Context,
	pool *pgxpool.Pool,
	requestRepo *store.RequestRepository,
	count int,
	reset bool,
) error {
	if count <= 0 {
		fmt.Println("Skipping fake requests seed because count <= 0")
		return nil
	}

	if reset {
		result, err := pool.Exec(ctx, `DELETE FROM obraflow.requests WHERE title LIKE '[seed] %'`)
		if err != nil {
			return fmt.Errorf("failed to reset seeded fake requests: %w", err)
		}
		fmt.Printf("Reset seeded fake requests: %d deleted\n", result.RowsAffected())
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	fieldUsers := seedFieldUsers()
	requestTypes := types.RequestTypes()

	for i := 0; i < count; i++ {
		project := fakeProjects[rng.Intn(len(fakeProjects))]
		user := fieldUsers[rng.Intn(len(fieldUsers))]

		request := &types.Request{
			ProjectID:     project.ID,
			ObraName:      project.Name,
			Type:          requestTypes[rng.Intn(len(requestTypes))],
			Title:         fmt.Sprintf("[seed] %s", fakeRequestTitles[rng.Intn(len(fakeRequestTitles))]),
			Description:   fakeRequestDescriptions[rng.Intn(len(fakeRequestDescriptions))],
			CreatedByUID:  user.UID,
			CreatedByName: user.Name,
		}

		if err := requestRepo.CreateRequest(ctx, request); err != nil {
			return fmt.Errorf("failed to create fake request %d: %w", i+1, err)
		}

		// roughly a third of the seeded requests are already triaged
		if rng.Intn(100) < 35 {
			downloadedAt := time.Now().Add(-time.Duration(rng.Intn(72)) * time.Hour)
			if err := requestRepo.MarkDownloaded(ctx, request.ID, downloadedAt); err != nil {
				return fmt.Errorf("failed to mark fake request %d downloaded: %w", i+1, err)
			}
		}
	}

	fmt.Printf("Seeded %d fake requests\n", count)

	return nil
}
