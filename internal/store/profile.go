package store

import (
	"context"
	"fmt"
	"time"

	"obraflow/internal/utils"
	"obraflow/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileTableName = "obraflow.profiles"

var profileColumns = utils.StructTagValues(types.Profile{})

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) Profile(ctx context.Context, uid string) (*types.Profile, error) {

	query, args, err := psql().Select(profileColumns...).From(profileTableName).
		Where(sq.Eq{"uid": uid}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate profile query: %w", err)
	}

	var profile = new(types.Profile)
	err = pgxscan.Get(ctx, r.pool, profile, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}

	if err != nil {
		return nil, types.ErrProfileNotFound
	}

	return profile, nil
}

func (r *ProfileRepository) CreateProfile(ctx context.Context, profile *types.Profile) error {

	profile.CreatedAt = time.Now()

	profileMap := utils.StructToMap(profile)

	query, args, err := psql().Insert(profileTableName).SetMap(profileMap).
		Suffix("ON CONFLICT (uid) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert profile query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create profile")

}
