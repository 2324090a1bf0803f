package server

import (
	"io"
	"net/http"
	"net/url"

	"obraflow/internal/gateway"
	"obraflow/internal/images"
	"obraflow/pkg/types"

	"github.com/sirupsen/logrus"
)

const multipartMaxMemory = 8 << 20

func (s *Service) handleFieldView(w http.ResponseWriter, r *http.Request) {

	principal, err := s.principalFromContext(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain principal")
		s.internalServerError(w)
		return
	}

	requests, err := s.gateway.ListOwn(r.Context(), principal.UID)
	if err != nil {
		s.logger.WithError(err).Error("failed to load own requests")
		s.internalServerError(w)
		return
	}

	data := &types.FieldPageData{
		BasePageData: types.BasePageData{
			Title:  "My Requests",
			Notice: r.URL.Query().Get("notice"),
			Error:  r.URL.Query().Get("error"),
		},
		Types:    types.RequestTypes(),
		Requests: requests,
	}

	if err := s.renderTemplate(w, r, "page.field", data); err != nil {
		s.logger.WithError(err).Error("failed to render field page")
		s.internalServerError(w)
		return
	}
}

// handleFieldEvents streams the principal's own requests live. Each
// open page holds exactly one subscription; it dies with the
// connection.
func (s *Service) handleFieldEvents(w http.ResponseWriter, r *http.Request) {

	principal, err := s.principalFromContext(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain principal")
		s.internalServerError(w)
		return
	}

	s.streamSnapshots(w, r, s.gateway.SubscribeOwn(principal.UID))
}

func (s *Service) handleFieldSubmit(w http.ResponseWriter, r *http.Request) {

	principal, err := s.principalFromContext(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain principal")
		s.internalServerError(w)
		return
	}

	if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
		s.logger.WithError(err).Info("failed to parse submit form")
		s.renderFieldWithError(w, r, &types.RequestFormData{}, nil, "Could not read the submitted form.")
		return
	}

	var formData = new(types.RequestFormData)
	if err := decoder.Decode(formData, r.MultipartForm.Value); err != nil {
		s.logger.WithError(err).Error("failed to decode submit form")
		s.renderFieldWithError(w, r, &types.RequestFormData{}, nil, "Could not read the submitted form.")
		return
	}

	fieldErrors := validateRequestForm(formData)
	if len(fieldErrors) > 0 {
		s.renderFieldWithError(w, r, formData, fieldErrors, "Please complete the required fields.")
		return
	}

	img, errMsg := s.readImageUpload(r)
	if errMsg != "" {
		s.renderFieldWithError(w, r, formData, map[string]string{"image": errMsg}, errMsg)
		return
	}

	requestType := types.RequestType(formData.Type)
	if formData.Type == "" {
		requestType = types.RequestTypeOther
	}

	draft := gateway.Draft{
		ProjectID:     formData.ProjectID,
		ObraName:      formData.ObraName,
		Type:          requestType,
		Title:         formData.Title,
		Description:   formData.Description,
		CreatedByUID:  principal.UID,
		CreatedByName: principal.DisplayName,
	}

	id, err := s.gateway.Create(r.Context(), draft, img, func(fraction float64) {
		s.logger.WithFields(logrus.Fields{
			"uid":      principal.UID,
			"progress": int(fraction * 100),
		}).Debug("image upload progress")
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to create request")
		s.renderFieldWithError(w, r, formData, nil, "Could not submit the request. Please try again.")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": id,
		"uid":        principal.UID,
	}).Info("request submitted")

	http.Redirect(w, r, "/field?notice="+url.QueryEscape("Request submitted."), http.StatusSeeOther)
}

// readImageUpload pulls the optional attachment out of the multipart
// form, validates it, and recompresses it. A missing file is not an
// error. The second return value is a user-facing message.
func (s *Service) readImageUpload(r *http.Request) (*gateway.Image, string) {

	file, header, err := r.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, ""
		}
		s.logger.WithError(err).Info("failed to read image upload")
		return nil, "Could not read the attached image."
	}
	defer file.Close()

	if errMsg := validateImageUpload(header, s.config.ImageMaxSizeBytes); errMsg != "" {
		return nil, errMsg
	}

	data, err := io.ReadAll(io.LimitReader(file, s.config.ImageMaxSizeBytes+1))
	if err != nil {
		s.logger.WithError(err).Error("failed to read image bytes")
		return nil, "Could not read the attached image."
	}
	if int64(len(data)) > s.config.ImageMaxSizeBytes {
		return nil, "Image must be smaller than 3MB."
	}

	compressed, err := images.Shrink(data, images.Options{
		MaxWidth: s.config.ImageMaxWidth,
		Quality:  s.config.ImageQuality,
	})
	if err != nil {
		s.logger.WithError(err).Info("failed to process image")
		return nil, "The attached file is not a valid image."
	}

	// re-encoded output is always JPEG
	return &gateway.Image{Data: compressed, ContentType: "image/jpeg", Ext: "jpg"}, ""
}

func (s *Service) renderFieldWithError(w http.ResponseWriter, r *http.Request, formData *types.RequestFormData, fieldErrors map[string]string, msg string) {

	principal, err := s.principalFromContext(r.Context())
	if err != nil {
		s.internalServerError(w)
		return
	}

	requests, err := s.gateway.ListOwn(r.Context(), principal.UID)
	if err != nil {
		s.logger.WithError(err).Error("failed to load own requests")
		requests = nil
	}

	data := &types.FieldPageData{
		BasePageData: types.BasePageData{Title: "My Requests", Error: msg},
		Form:         *formData,
		FieldErrors:  fieldErrors,
		Types:        types.RequestTypes(),
		Requests:     requests,
	}

	if err := s.renderTemplate(w, r, "page.field", data); err != nil {
		s.logger.WithError(err).Error("failed to render field page with error")
		s.internalServerError(w)
	}
}
