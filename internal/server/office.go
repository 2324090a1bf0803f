package server

import (
	"errors"
	"net/http"
	"net/url"

	"obraflow/pkg/types"

	"github.com/sirupsen/logrus"
)

func filtersFromQuery(q url.Values) types.RequestFilters {
	return types.RequestFilters{
		ProjectID: q.Get("project"),
		Status:    q.Get("status"),
		Type:      q.Get("type"),
	}
}

func (s *Service) handleOfficeView(w http.ResponseWriter, r *http.Request) {

	filters := filtersFromQuery(r.URL.Query())

	projects, err := s.gateway.DistinctProjects(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to load project list")
		s.internalServerError(w)
		return
	}

	requests, err := s.gateway.List(r.Context(), filters)
	if err != nil {
		s.logger.WithError(err).Error("failed to load requests")
		s.internalServerError(w)
		return
	}

	data := &types.OfficePageData{
		BasePageData: types.BasePageData{
			Title:  "All Requests",
			Notice: r.URL.Query().Get("notice"),
			Error:  r.URL.Query().Get("error"),
		},
		Projects: projects,
		Statuses: []types.RequestStatus{types.RequestStatusPending, types.RequestStatusDownloaded},
		Types:    types.RequestTypes(),
		Filters:  filters,
		Requests: requests,
	}

	if err := s.renderTemplate(w, r, "page.office", data); err != nil {
		s.logger.WithError(err).Error("failed to render office page")
		s.internalServerError(w)
		return
	}
}

// handleOfficeEvents streams the filtered listing live. A filter
// change on the page opens a fresh connection; the old handler's
// deferred Close runs before the browser reconnects, so stale filters
// never leak into the new view.
func (s *Service) handleOfficeEvents(w http.ResponseWriter, r *http.Request) {
	filters := filtersFromQuery(r.URL.Query())
	s.streamSnapshots(w, r, s.gateway.SubscribeFiltered(filters))
}

func (s *Service) handleMarkDownloaded(w http.ResponseWriter, r *http.Request) {

	requestID := r.PathValue("id")

	if err := s.gateway.MarkDownloaded(r.Context(), requestID); err != nil {
		s.logger.WithError(err).WithField("request_id", requestID).Error("failed to mark request downloaded")
		s.redirectOffice(w, r, "", "Could not mark the request as downloaded.")
		return
	}

	s.redirectOffice(w, r, "Marked as downloaded.", "")
}

func (s *Service) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {

	requestID := r.PathValue("id")
	imageStoragePath := r.FormValue("image_storage_path")

	if err := s.gateway.Delete(r.Context(), requestID, imageStoragePath); err != nil {
		s.logger.WithError(err).WithField("request_id", requestID).Error("failed to delete request")
		s.redirectOffice(w, r, "", "Could not delete the request.")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"image_path": imageStoragePath,
	}).Info("request deleted")

	s.redirectOffice(w, r, "Request deleted.", "")
}

// handleDownloadImage hands the browser a short-lived URL for the
// request's image. Marking the request downloaded stays a separate,
// explicit action, as it is in the office workflow.
func (s *Service) handleDownloadImage(w http.ResponseWriter, r *http.Request) {

	requestID := r.PathValue("id")

	request, err := s.gateway.Request(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, types.ErrRequestNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.WithError(err).WithField("request_id", requestID).Error("failed to load request")
		s.internalServerError(w)
		return
	}

	if !request.HasImage() {
		s.redirectOffice(w, r, "", "This request has no image.")
		return
	}

	downloadURL, err := s.gateway.DownloadURL(r.Context(), *request.ImageStoragePath)
	if err != nil {
		s.logger.WithError(err).WithField("request_id", requestID).Error("failed to presign image download")
		s.redirectOffice(w, r, "", "Could not prepare the download.")
		return
	}

	http.Redirect(w, r, downloadURL, http.StatusSeeOther)
}

// redirectOffice sends the browser back to the office view, keeping
// the active filters and attaching a transient notice.
func (s *Service) redirectOffice(w http.ResponseWriter, r *http.Request, notice, errMsg string) {

	v := url.Values{}
	for _, key := range []string{"project", "status", "type"} {
		if val := r.FormValue(key); val != "" {
			v.Set(key, val)
		}
	}
	if notice != "" {
		v.Set("notice", notice)
	}
	if errMsg != "" {
		v.Set("error", errMsg)
	}

	target := "/office"
	if encoded := v.Encode(); encoded != "" {
		target += "?" + encoded
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}
