package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"obraflow/internal/gateway"
)

// streamSnapshots pushes the subscription's current snapshot over SSE,
// once immediately and again after every change tick, until the client
// disconnects. The subscription is closed before the handler returns,
// so a replaced or abandoned view can never receive another update.
func (s *Service) streamSnapshots(w http.ResponseWriter, r *http.Request, sub *gateway.Subscription) {
	defer sub.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.logger.Error("response writer does not support streaming")
		s.internalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if err := s.writeSnapshot(r.Context(), w, flusher, sub); err != nil {
		s.logger.WithError(err).Info("snapshot stream ended")
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub.Changes():
			if err := s.writeSnapshot(r.Context(), w, flusher, sub); err != nil {
				s.logger.WithError(err).Info("snapshot stream ended")
				return
			}
		}
	}
}

func (s *Service) writeSnapshot(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sub *gateway.Subscription) error {

	requests, err := sub.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	payload, err := json.Marshal(requests)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()

	return nil
}
