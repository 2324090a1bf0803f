package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"obraflow/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	rows    []*types.Request
	nextSeq int

	failInsert bool
}

func (m *memStore) CreateRequest(_ context.Context, request *types.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInsert {
		return errors.New("insert failed")
	}

	m.nextSeq++
	request.ID = fmt.Sprintf("req-%03d", m.nextSeq)
	request.CreatedAt = time.Unix(int64(m.nextSeq), 0)
	request.Status = types.RequestStatusPending
	request.DownloadedByOffice = false

	clone := *request
	m.rows = append(m.rows, &clone)
	return nil
}

func (m *memStore) Request(_ context.Context, requestID string) (*types.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rows {
		if r.ID == requestID {
			clone := *r
			return &clone, nil
		}
	}
	return nil, types.ErrRequestNotFound
}

func (m *memStore) snapshot(match func(*types.Request) bool) []*types.Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*types.Request, 0)
	for _, r := range m.rows {
		if match(r) {
			clone := *r
			out = append(out, &clone)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *memStore) RequestsByUser(_ context.Context, uid string) ([]*types.Request, error) {
	return m.snapshot(func(r *types.Request) bool { return r.CreatedByUID == uid }), nil
}

func (m *memStore) Requests(_ context.Context, filters types.RequestFilters) ([]*types.Request, error) {
	return m.snapshot(func(r *types.Request) bool {
		if filters.ProjectID != "" && r.ProjectID != filters.ProjectID {
			return false
		}
		if filters.Status != "" && string(r.Status) != filters.Status {
			return false
		}
		if filters.Type != "" && string(r.Type) != filters.Type {
			return false
		}
		return true
	}), nil
}

func (m *memStore) DistinctProjects(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := map[string]bool{}
	for _, r := range m.rows {
		seen[r.ProjectID] = true
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) MarkDownloaded(_ context.Context, requestID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rows {
		if r.ID == requestID {
			r.Status = types.RequestStatusDownloaded
			r.DownloadedByOffice = true
			r.DownloadedAt = &at
			return nil
		}
	}
	return types.ErrRequestNotFound
}

func (m *memStore) DeleteRequest(_ context.Context, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.rows {
		if r.ID == requestID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return types.ErrRequestNotFound
}

type memObjects struct {
	mu       sync.Mutex
	uploaded map[string]string
	deleted  []string

	failUpload bool
	failDelete bool
}

func newMemObjects() *memObjects {
	return &memObjects{uploaded: map[string]string{}}
}

func (m *memObjects) Upload(_ context.Context, key string, _ []byte, contentType string, onProgress func(float64)) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failUpload {
		return "", errors.New("network interrupted")
	}

	if onProgress != nil {
		onProgress(0.5)
		onProgress(1)
	}

	m.uploaded[key] = contentType
	return "https://objects.test/" + key, nil
}

func (m *memObjects) DeleteObject(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failDelete {
		return errors.New("storage unavailable")
	}

	m.deleted = append(m.deleted, key)
	delete(m.uploaded, key)
	return nil
}

func (m *memObjects) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.test/presigned/" + key, nil
}

func newTestGateway(t *testing.T) (*Gateway, *memStore, *memObjects) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := &memStore{}
	objects := newMemObjects()
	return New(logger, store, objects), store, objects
}

func draft(project, title string) Draft {
	return Draft{
		ProjectID:     project,
		ObraName:      "Site A",
		Type:          types.RequestTypeRepair,
		Title:         title,
		Description:   "Roof leak",
		CreatedByUID:  "uid-1",
		CreatedByName: "Ana",
	}
}

func TestCreateWithoutImage(t *testing.T) {
	g, store, _ := newTestGateway(t)

	id, err := g.Create(context.Background(), draft("P1", "Leak"), nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := store.Request(context.Background(), id)
	require.NoError(t, err)

	assert.Nil(t, got.ImageURL)
	assert.Nil(t, got.ImageStoragePath)
	assert.Equal(t, types.RequestStatusPending, got.Status)
	assert.False(t, got.DownloadedByOffice)
}

func TestCreateWithImage(t *testing.T) {
	g, store, objects := newTestGateway(t)

	var progress []float64
	img := &Image{Data: []byte("jpegdata"), ContentType: "image/jpeg", Ext: "jpg"}

	id, err := g.Create(context.Background(), draft("P1", "Leak"), img, func(f float64) {
		progress = append(progress, f)
	})
	require.NoError(t, err)

	got, err := store.Request(context.Background(), id)
	require.NoError(t, err)

	require.NotNil(t, got.ImageURL)
	require.NotNil(t, got.ImageStoragePath)
	assert.Contains(t, *got.ImageStoragePath, "projects/P1/images/request_")
	assert.Equal(t, "https://objects.test/"+*got.ImageStoragePath, *got.ImageURL)
	assert.Contains(t, objects.uploaded, *got.ImageStoragePath)
	assert.Equal(t, []float64{0.5, 1}, progress)
}

func TestUploadFailureLeavesNoDocument(t *testing.T) {
	g, store, objects := newTestGateway(t)
	objects.failUpload = true

	_, err := g.Create(context.Background(), draft("P1", "Leak"), &Image{Data: []byte("x"), ContentType: "image/png", Ext: "png"}, nil)
	require.Error(t, err)

	all, err := store.Requests(context.Background(), types.RequestFilters{})
	require.NoError(t, err)
	assert.Empty(t, all, "no orphan document may survive an upload failure")
}

func TestInsertFailureCleansUpImage(t *testing.T) {
	g, store, objects := newTestGateway(t)
	store.failInsert = true

	_, err := g.Create(context.Background(), draft("P1", "Leak"), &Image{Data: []byte("x"), ContentType: "image/jpeg", Ext: "jpg"}, nil)
	require.Error(t, err)

	assert.Empty(t, objects.uploaded, "uploaded object must be removed when the insert fails")
}

func TestMarkDownloadedIsIdempotentInEffect(t *testing.T) {
	g, store, _ := newTestGateway(t)

	id, err := g.Create(context.Background(), draft("P1", "Leak"), nil, nil)
	require.NoError(t, err)

	require.NoError(t, g.MarkDownloaded(context.Background(), id))
	first, err := store.Request(context.Background(), id)
	require.NoError(t, err)

	require.NoError(t, g.MarkDownloaded(context.Background(), id))
	second, err := store.Request(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, types.RequestStatusDownloaded, second.Status)
	assert.True(t, second.DownloadedByOffice)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.DownloadedByOffice, second.DownloadedByOffice)
	require.NotNil(t, second.DownloadedAt)
}

func TestDeleteRemovesImageThenDocument(t *testing.T) {
	g, _, objects := newTestGateway(t)

	img := &Image{Data: []byte("x"), ContentType: "image/jpeg", Ext: "jpg"}
	id, err := g.Create(context.Background(), draft("P1", "Leak"), img, nil)
	require.NoError(t, err)

	sub := g.SubscribeAll()
	defer sub.Close()

	snap, err := sub.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 1)
	path := *snap[0].ImageStoragePath

	require.NoError(t, g.Delete(context.Background(), id, path))

	assert.Contains(t, objects.deleted, path)

	snap, err = sub.Snapshot(context.Background())
	require.NoError(t, err)
	for _, r := range snap {
		assert.NotEqual(t, id, r.ID, "deleted request must never appear in a snapshot again")
	}
}

func TestDeleteSurvivesImageDeleteFailure(t *testing.T) {
	g, store, objects := newTestGateway(t)

	id, err := g.Create(context.Background(), draft("P1", "Leak"), nil, nil)
	require.NoError(t, err)

	objects.failDelete = true
	require.NoError(t, g.Delete(context.Background(), id, "projects/P1/images/request_1.jpg"))

	_, err = store.Request(context.Background(), id)
	assert.ErrorIs(t, err, types.ErrRequestNotFound)
}

func TestFilteredSnapshotIsOrderedSubsetOfAll(t *testing.T) {
	g, _, _ := newTestGateway(t)
	ctx := context.Background()

	for i, project := range []string{"P1", "P2", "P1", "P3", "P1"} {
		_, err := g.Create(ctx, draft(project, fmt.Sprintf("r%d", i)), nil, nil)
		require.NoError(t, err)
	}

	all := g.SubscribeAll()
	filtered := g.SubscribeFiltered(types.RequestFilters{ProjectID: "P1"})
	defer all.Close()
	defer filtered.Close()

	allSnap, err := all.Snapshot(ctx)
	require.NoError(t, err)
	filteredSnap, err := filtered.Snapshot(ctx)
	require.NoError(t, err)

	var want []string
	for _, r := range allSnap {
		if r.ProjectID == "P1" {
			want = append(want, r.ID)
		}
	}
	var got []string
	for _, r := range filteredSnap {
		assert.Equal(t, "P1", r.ProjectID)
		got = append(got, r.ID)
	}
	assert.Equal(t, want, got, "filtered results keep the relative order of the full listing")
}

func TestEmptyFiltersBehaveLikeSubscribeAll(t *testing.T) {
	g, _, _ := newTestGateway(t)
	ctx := context.Background()

	_, err := g.Create(ctx, draft("P1", "a"), nil, nil)
	require.NoError(t, err)
	_, err = g.Create(ctx, draft("P2", "b"), nil, nil)
	require.NoError(t, err)

	all, err := g.SubscribeAll().Snapshot(ctx)
	require.NoError(t, err)
	unfiltered, err := g.SubscribeFiltered(types.RequestFilters{}).Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, all, unfiltered)
}

func TestSubscribeOwnSeesOnlyOwnRequests(t *testing.T) {
	g, _, _ := newTestGateway(t)
	ctx := context.Background()

	mine := draft("P1", "mine")
	theirs := draft("P1", "theirs")
	theirs.CreatedByUID = "uid-2"

	_, err := g.Create(ctx, mine, nil, nil)
	require.NoError(t, err)
	_, err = g.Create(ctx, theirs, nil, nil)
	require.NoError(t, err)

	sub := g.SubscribeOwn("uid-1")
	defer sub.Close()

	snap, err := sub.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, "mine", snap[0].Title)
}

func TestMutationsTickOpenSubscriptions(t *testing.T) {
	g, _, _ := newTestGateway(t)
	ctx := context.Background()

	sub := g.SubscribeAll()
	defer sub.Close()

	id, err := g.Create(ctx, draft("P1", "Leak"), nil, nil)
	require.NoError(t, err)

	select {
	case <-sub.Changes():
	case <-time.After(time.Second):
		t.Fatal("expected a change tick after create")
	}

	require.NoError(t, g.MarkDownloaded(ctx, id))
	select {
	case <-sub.Changes():
	case <-time.After(time.Second):
		t.Fatal("expected a change tick after mark downloaded")
	}
}

func TestClosedSubscriptionGetsNoTicks(t *testing.T) {
	g, _, _ := newTestGateway(t)

	sub := g.SubscribeAll()
	sub.Close()

	_, err := g.Create(context.Background(), draft("P1", "Leak"), nil, nil)
	require.NoError(t, err)

	select {
	case <-sub.Changes():
		t.Fatal("closed subscription must not receive ticks")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDistinctProjectsSorted(t *testing.T) {
	g, _, _ := newTestGateway(t)
	ctx := context.Background()

	for _, p := range []string{"zeta", "alpha", "zeta", "mid"} {
		_, err := g.Create(ctx, draft(p, "t"), nil, nil)
		require.NoError(t, err)
	}

	projects, err := g.DistinctProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, projects)
}

func TestObjectKeyShape(t *testing.T) {
	key := ObjectKey("P1", ".PNG")
	assert.Regexp(t, `^projects/P1/images/request_\d+\.PNG$`, key)

	key = ObjectKey("P2", "")
	assert.Regexp(t, `^projects/P2/images/request_\d+\.jpg$`, key)
}
