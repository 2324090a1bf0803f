package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"obraflow/internal/gateway"
	"obraflow/internal/utils"
	"obraflow/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	rows       map[string]*types.Request
	downloaded []string
	deleted    []string
}

func newStubStore(rows ...*types.Request) *stubStore {
	s := &stubStore{rows: map[string]*types.Request{}}
	for _, r := range rows {
		s.rows[r.ID] = r
	}
	return s
}

func (s *stubStore) Request(_ context.Context, requestID string) (*types.Request, error) {
	r, ok := s.rows[requestID]
	if !ok {
		return nil, types.ErrRequestNotFound
	}
	return r, nil
}

func (s *stubStore) RequestsByUser(_ context.Context, _ string) ([]*types.Request, error) {
	return nil, nil
}

func (s *stubStore) Requests(_ context.Context, _ types.RequestFilters) ([]*types.Request, error) {
	return nil, nil
}

func (s *stubStore) DistinctProjects(_ context.Context) ([]string, error) {
	return nil, nil
}

func (s *stubStore) CreateRequest(_ context.Context, _ *types.Request) error {
	return nil
}

func (s *stubStore) MarkDownloaded(_ context.Context, requestID string, _ time.Time) error {
	s.downloaded = append(s.downloaded, requestID)
	return nil
}

func (s *stubStore) DeleteRequest(_ context.Context, requestID string) error {
	s.deleted = append(s.deleted, requestID)
	delete(s.rows, requestID)
	return nil
}

type stubObjects struct {
	deleted []string
}

func (o *stubObjects) Upload(_ context.Context, _ string, _ []byte, _ string, _ func(float64)) (string, error) {
	return "", nil
}

func (o *stubObjects) DeleteObject(_ context.Context, key string) error {
	o.deleted = append(o.deleted, key)
	return nil
}

func (o *stubObjects) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return fmt.Sprintf("https://signed.example.com/%s", key), nil
}

// officeMux routes the triage handlers the same way buildRouter does,
// so the tests exercise path parameter extraction through the router.
func officeMux(store *stubStore, objects *stubObjects) *flow.Mux {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := &Service{
		logger:  logger,
		gateway: gateway.New(logger, store, objects),
	}

	mux := flow.New()
	mux.HandleFunc("/office/requests/:id/downloaded", s.handleMarkDownloaded, http.MethodPost)
	mux.HandleFunc("/office/requests/:id/delete", s.handleDeleteRequest, http.MethodPost)
	mux.HandleFunc("/office/requests/:id/download", s.handleDownloadImage, http.MethodGet)
	return mux
}

func postForm(mux *flow.Mux, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestMarkDownloadedRouteResolvesRequestID(t *testing.T) {
	store := newStubStore(&types.Request{ID: "req-123"})
	mux := officeMux(store, &stubObjects{})

	rec := postForm(mux, "/office/requests/req-123/downloaded", url.Values{})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []string{"req-123"}, store.downloaded)
	assert.Contains(t, rec.Header().Get("Location"), "/office?")
	assert.Contains(t, rec.Header().Get("Location"), "notice=")
}

func TestDeleteRouteRemovesImageAndRow(t *testing.T) {
	path := "projects/PRJ-001/images/request_1.jpg"
	store := newStubStore(&types.Request{ID: "req-456"})
	objects := &stubObjects{}
	mux := officeMux(store, objects)

	rec := postForm(mux, "/office/requests/req-456/delete", url.Values{
		"image_storage_path": []string{path},
	})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []string{path}, objects.deleted)
	assert.Equal(t, []string{"req-456"}, store.deleted)
	assert.NotContains(t, store.rows, "req-456")
}

func TestDeleteRouteKeepsActiveFilters(t *testing.T) {
	store := newStubStore(&types.Request{ID: "req-789"})
	mux := officeMux(store, &stubObjects{})

	rec := postForm(mux, "/office/requests/req-789/delete", url.Values{
		"project": []string{"PRJ-002"},
		"status":  []string{"pending"},
	})

	require.Equal(t, http.StatusSeeOther, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/office", loc.Path)
	assert.Equal(t, "PRJ-002", loc.Query().Get("project"))
	assert.Equal(t, "pending", loc.Query().Get("status"))
}

func TestDownloadRouteRedirectsToSignedURL(t *testing.T) {
	path := "projects/PRJ-001/images/request_2.jpg"
	store := newStubStore(&types.Request{
		ID:               "req-321",
		ImageURL:         utils.StringPtr("https://bucket.example.com/" + path),
		ImageStoragePath: utils.StringPtr(path),
	})
	mux := officeMux(store, &stubObjects{})

	req := httptest.NewRequest(http.MethodGet, "/office/requests/req-321/download", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://signed.example.com/"+path, rec.Header().Get("Location"))
}

func TestDownloadRouteUnknownRequestIs404(t *testing.T) {
	mux := officeMux(newStubStore(), &stubObjects{})

	req := httptest.NewRequest(http.MethodGet, "/office/requests/missing/download", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
