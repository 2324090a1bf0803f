package types

import (
	"time"
)

type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusDownloaded RequestStatus = "downloaded"
)

type RequestType string

const (
	RequestTypeMaterial   RequestType = "material"
	RequestTypeRepair     RequestType = "repair"
	RequestTypeIncident   RequestType = "incident"
	RequestTypeInspection RequestType = "inspection"
	RequestTypeOther      RequestType = "other"
)

func RequestTypes() []RequestType {
	return []RequestType{
		RequestTypeMaterial,
		RequestTypeRepair,
		RequestTypeIncident,
		RequestTypeInspection,
		RequestTypeOther,
	}
}

func ValidRequestType(t string) bool {
	for _, rt := range RequestTypes() {
		if string(rt) == t {
			return true
		}
	}
	return false
}

type Request struct {
	ID            string      `db:"id" json:"id"`
	ProjectID     string      `db:"project_id" json:"projectId"`
	ObraName      string      `db:"obra_name" json:"obraName"`
	Type          RequestType `db:"type" json:"type"`
	Title         string      `db:"title" json:"title"`
	Description   string      `db:"description" json:"description"`
	CreatedByUID  string      `db:"created_by_uid" json:"createdByUid"`
	CreatedByName string      `db:"created_by_name" json:"createdByName"`

	ImageURL         *string `db:"image_url" json:"imageUrl"`
	ImageStoragePath *string `db:"image_storage_path" json:"imageStoragePath"`

	Status             RequestStatus `db:"status" json:"status"`
	DownloadedByOffice bool          `db:"downloaded_by_office" json:"downloadedByOffice"`
	DownloadedAt       *time.Time    `db:"downloaded_at" json:"downloadedAt"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

func (r *Request) HasImage() bool {
	return r.ImageURL != nil && r.ImageStoragePath != nil
}

// RequestFilters narrows a listing to rows matching every set field.
// Zero-value fields are unconstrained.
type RequestFilters struct {
	ProjectID string
	Status    string
	Type      string
}
