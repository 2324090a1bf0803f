package store

import (
	"testing"

	"obraflow/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterClause(t *testing.T) {
	tests := []struct {
		name    string
		filters types.RequestFilters
		want    sq.Eq
	}{
		{
			name:    "empty filters constrain nothing",
			filters: types.RequestFilters{},
			want:    sq.Eq{},
		},
		{
			name:    "project only",
			filters: types.RequestFilters{ProjectID: "P1"},
			want:    sq.Eq{"project_id": "P1"},
		},
		{
			name:    "all three compose",
			filters: types.RequestFilters{ProjectID: "P1", Status: "pending", Type: "repair"},
			want:    sq.Eq{"project_id": "P1", "status": "pending", "type": "repair"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filterClause(tt.filters))
		})
	}
}

func TestFilteredQuerySQL(t *testing.T) {
	builder := psql().Select(requestColumns...).From(requestTableName).
		Where(filterClause(types.RequestFilters{Status: "downloaded"})).
		OrderBy("created_at desc")

	query, args, err := builder.ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "status = $1")
	assert.Contains(t, query, "ORDER BY created_at desc")
	assert.Equal(t, []any{"downloaded"}, args)
}

func TestRequestColumnsCoverSchema(t *testing.T) {
	assert.Contains(t, requestColumns, "id")
	assert.Contains(t, requestColumns, "project_id")
	assert.Contains(t, requestColumns, "image_storage_path")
	assert.Contains(t, requestColumns, "downloaded_by_office")
}
