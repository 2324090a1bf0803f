package server

import (
	"mime/multipart"
	"strings"

	"obraflow/pkg/types"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// validateRequestForm checks the field submit form before any backend
// call. Returned map keys are form field names.
func validateRequestForm(form *types.RequestFormData) map[string]string {
	errs := map[string]string{}

	form.ProjectID = strings.TrimSpace(form.ProjectID)
	form.ObraName = strings.TrimSpace(form.ObraName)
	form.Title = strings.TrimSpace(form.Title)
	form.Description = strings.TrimSpace(form.Description)

	if form.ProjectID == "" {
		errs["project_id"] = "Project ID is required."
	}

	if form.ObraName == "" {
		errs["obra_name"] = "Site name is required."
	}

	if form.Title == "" {
		errs["title"] = "Title is required."
	}

	if form.Type != "" && !types.ValidRequestType(form.Type) {
		errs["type"] = "Select a valid request type."
	}

	return errs
}

// validateImageUpload enforces the attachment constraints before any
// backend call: JPEG/PNG only, bounded size. Returns a user-facing
// message, or "" when the upload is acceptable.
func validateImageUpload(header *multipart.FileHeader, maxSizeBytes int64) string {

	if !allowedImageTypes[header.Header.Get("Content-Type")] {
		return "Only JPG and PNG images are allowed."
	}

	if header.Size > maxSizeBytes {
		return "Image must be smaller than 3MB."
	}

	return ""
}
