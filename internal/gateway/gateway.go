// Package gateway is the single entry point for the request lifecycle:
// creation (with optional image upload), live listings, and the office
// triage mutations. Every mutation is announced on the change hub so
// open subscriptions re-snapshot.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"obraflow/internal/feed"
	"obraflow/internal/utils"
	"obraflow/pkg/types"

	"github.com/sirupsen/logrus"
)

const downloadURLTTL = 15 * time.Minute

type RequestStore interface {
	Request(ctx context.Context, requestID string) (*types.Request, error)
	RequestsByUser(ctx context.Context, uid string) ([]*types.Request, error)
	Requests(ctx context.Context, filters types.RequestFilters) ([]*types.Request, error)
	DistinctProjects(ctx context.Context) ([]string, error)
	CreateRequest(ctx context.Context, request *types.Request) error
	MarkDownloaded(ctx context.Context, requestID string, at time.Time) error
	DeleteRequest(ctx context.Context, requestID string) error
}

type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string, onProgress func(float64)) (string, error)
	DeleteObject(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

type Gateway struct {
	logger  *logrus.Logger
	store   RequestStore
	objects ObjectStore
	hub     *feed.Hub
}

func New(logger *logrus.Logger, store RequestStore, objects ObjectStore) *Gateway {
	return &Gateway{
		logger:  logger,
		store:   store,
		objects: objects,
		hub:     feed.NewHub(),
	}
}

// Draft is a request as entered by the field user, before the gateway
// assigns id, timestamps, and status.
type Draft struct {
	ProjectID     string
	ObraName      string
	Type          types.RequestType
	Title         string
	Description   string
	CreatedByUID  string
	CreatedByName string
}

// Image is an already-validated, already-recompressed attachment.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// Create uploads the image (when present) and then persists the
// request. An upload failure aborts the whole operation so no document
// ever points at a missing object.
func (g *Gateway) Create(ctx context.Context, draft Draft, img *Image, onProgress func(float64)) (string, error) {

	request := &types.Request{
		ProjectID:     draft.ProjectID,
		ObraName:      draft.ObraName,
		Type:          draft.Type,
		Title:         draft.Title,
		Description:   draft.Description,
		CreatedByUID:  draft.CreatedByUID,
		CreatedByName: draft.CreatedByName,
	}

	var storagePath string
	if img != nil {
		storagePath = ObjectKey(draft.ProjectID, img.Ext)

		url, err := g.objects.Upload(ctx, storagePath, img.Data, img.ContentType, onProgress)
		if err != nil {
			return "", fmt.Errorf("upload image: %w", err)
		}

		request.ImageURL = utils.StringPtr(url)
		request.ImageStoragePath = utils.StringPtr(storagePath)
	}

	if err := g.store.CreateRequest(ctx, request); err != nil {
		if storagePath != "" {
			if cleanupErr := g.objects.DeleteObject(ctx, storagePath); cleanupErr != nil {
				g.logger.WithError(cleanupErr).WithField("path", storagePath).
					Warn("failed to clean up image after insert failure")
			}
		}
		return "", err
	}

	g.hub.Publish()

	return request.ID, nil
}

// Subscription is a live standing query. Snapshot re-runs the query;
// Changes ticks after every gateway mutation until Close.
type Subscription struct {
	sub  *feed.Subscription
	load func(context.Context) ([]*types.Request, error)
}

func (s *Subscription) Changes() <-chan struct{} {
	return s.sub.Changes()
}

func (s *Subscription) Snapshot(ctx context.Context) ([]*types.Request, error) {
	return s.load(ctx)
}

func (s *Subscription) Close() {
	s.sub.Close()
}

// SubscribeOwn follows a single principal's requests, newest first.
func (g *Gateway) SubscribeOwn(uid string) *Subscription {
	return &Subscription{
		sub: g.hub.Subscribe(),
		load: func(ctx context.Context) ([]*types.Request, error) {
			return g.store.RequestsByUser(ctx, uid)
		},
	}
}

// SubscribeAll follows every request.
func (g *Gateway) SubscribeAll() *Subscription {
	return g.SubscribeFiltered(types.RequestFilters{})
}

// SubscribeFiltered follows the requests matching every set filter
// field. An empty filter set behaves exactly like SubscribeAll.
func (g *Gateway) SubscribeFiltered(filters types.RequestFilters) *Subscription {
	return &Subscription{
		sub: g.hub.Subscribe(),
		load: func(ctx context.Context) ([]*types.Request, error) {
			return g.store.Requests(ctx, filters)
		},
	}
}

func (g *Gateway) Request(ctx context.Context, requestID string) (*types.Request, error) {
	return g.store.Request(ctx, requestID)
}

// List is the one-shot form of SubscribeFiltered, for initial page renders.
func (g *Gateway) List(ctx context.Context, filters types.RequestFilters) ([]*types.Request, error) {
	return g.store.Requests(ctx, filters)
}

// ListOwn is the one-shot form of SubscribeOwn.
func (g *Gateway) ListOwn(ctx context.Context, uid string) ([]*types.Request, error) {
	return g.store.RequestsByUser(ctx, uid)
}

func (g *Gateway) DistinctProjects(ctx context.Context) ([]string, error) {
	return g.store.DistinctProjects(ctx)
}

func (g *Gateway) MarkDownloaded(ctx context.Context, requestID string) error {

	if err := g.store.MarkDownloaded(ctx, requestID, time.Now()); err != nil {
		return err
	}

	g.hub.Publish()

	return nil
}

// Delete removes the backing image first, then the document. Image
// deletion is best effort: a stranded object is cosmetic, an
// undeletable document is not, so storage failures are logged and the
// row is deleted regardless.
func (g *Gateway) Delete(ctx context.Context, requestID, imageStoragePath string) error {

	if imageStoragePath != "" {
		if err := g.objects.DeleteObject(ctx, imageStoragePath); err != nil {
			g.logger.WithError(err).WithFields(logrus.Fields{
				"request_id": requestID,
				"path":       imageStoragePath,
			}).Warn("failed to delete request image, deleting document anyway")
		}
	}

	if err := g.store.DeleteRequest(ctx, requestID); err != nil {
		return err
	}

	g.hub.Publish()

	return nil
}

// DownloadURL returns a short-lived link for the office download action.
func (g *Gateway) DownloadURL(ctx context.Context, imageStoragePath string) (string, error) {
	return g.objects.PresignGet(ctx, imageStoragePath, downloadURLTTL)
}

// ObjectKey derives the storage path for a request image.
func ObjectKey(projectID, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("projects/%s/images/request_%d.%s", projectID, time.Now().UnixMilli(), ext)
}
