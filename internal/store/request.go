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

const requestTableName = "obraflow.requests"

var requestColumns = utils.StructTagValues(types.Request{})

type RequestRepository struct {
	pool *pgxpool.Pool
}

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

func (r *RequestRepository) Request(ctx context.Context, requestID string) (*types.Request, error) {

	query, args, err := psql().Select(requestColumns...).From(requestTableName).
		Where(sq.Eq{"id": requestID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request query: %w", err)
	}

	var request = new(types.Request)
	err = pgxscan.Get(ctx, r.pool, request, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}

	if err != nil {
		return nil, types.ErrRequestNotFound
	}

	return request, nil
}

// RequestsByUser returns the requests submitted by a single principal,
// newest first.
func (r *RequestRepository) RequestsByUser(ctx context.Context, uid string) ([]*types.Request, error) {

	query, args, err := psql().Select(requestColumns...).From(requestTableName).
		Where(sq.Eq{"created_by_uid": uid}).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate requests by user query: %w", err)
	}

	var requests = make([]*types.Request, 0)
	err = pgxscan.Select(ctx, r.pool, &requests, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requests by user: %w", err)
	}

	return requests, nil
}

// Requests returns every request matching the filters, newest first.
// A zero-value filter set returns everything.
func (r *RequestRepository) Requests(ctx context.Context, filters types.RequestFilters) ([]*types.Request, error) {

	builder := psql().Select(requestColumns...).From(requestTableName)

	where := filterClause(filters)
	if len(where) > 0 {
		builder = builder.Where(where)
	}

	query, args, err := builder.OrderBy("created_at desc").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate requests query: %w", err)
	}

	var requests = make([]*types.Request, 0)
	err = pgxscan.Select(ctx, r.pool, &requests, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requests: %w", err)
	}

	return requests, nil
}

// filterClause maps the set fields of filters onto equality predicates.
// Unset fields are unconstrained.
func filterClause(filters types.RequestFilters) sq.Eq {
	where := sq.Eq{}
	if filters.ProjectID != "" {
		where["project_id"] = filters.ProjectID
	}
	if filters.Status != "" {
		where["status"] = filters.Status
	}
	if filters.Type != "" {
		where["type"] = filters.Type
	}
	return where
}

func (r *RequestRepository) DistinctProjects(ctx context.Context) ([]string, error) {

	query, args, err := psql().Select("project_id").Distinct().From(requestTableName).
		OrderBy("project_id asc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate distinct projects query: %w", err)
	}

	var projects = make([]string, 0)
	err = pgxscan.Select(ctx, r.pool, &projects, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch distinct projects: %w", err)
	}

	return projects, nil
}

func (r *RequestRepository) CreateRequest(ctx context.Context, request *types.Request) error {

	request.ID = utils.NanoID()
	request.CreatedAt = time.Now()
	request.Status = types.RequestStatusPending
	request.DownloadedByOffice = false

	requestMap := utils.StructToMap(request)

	query, args, err := psql().Insert(requestTableName).SetMap(requestMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert request query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create request")

}

// MarkDownloaded applies the one-way pending -> downloaded transition.
// Re-applying rewrites the same terminal state.
func (r *RequestRepository) MarkDownloaded(ctx context.Context, requestID string, at time.Time) error {

	query, args, err := psql().Update(requestTableName).
		SetMap(map[string]any{
			"status":               types.RequestStatusDownloaded,
			"downloaded_by_office": true,
			"downloaded_at":        at,
		}).
		Where(sq.Eq{"id": requestID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate mark downloaded query for request %s: %w", requestID, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)

	return utils.ErrorWrapOrNil(err, "failed to mark request downloaded")

}

func (r *RequestRepository) DeleteRequest(ctx context.Context, requestID string) error {

	query, args, err := psql().Delete(requestTableName).Where(sq.Eq{"id": requestID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete request query for request %s: %w", requestID, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)

	return utils.ErrorWrapOrNil(err, "failed to delete request")

}
