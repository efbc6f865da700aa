// Package model holds the domain types shared by the record stores, the
// ingestion pipeline and the HTTP layer.
package model

import "time"

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type DateType string

const (
	DateExact       DateType = "exact"
	DateApproximate DateType = "approximate"
	DateRange       DateType = "range"
	DateEra         DateType = "era"
)

type PrivacyLevel string

const (
	PrivacyPublic  PrivacyLevel = "public"
	PrivacyFamily  PrivacyLevel = "family"
	PrivacyPrivate PrivacyLevel = "private"
)

// ProcessingStatus is the outcome of one ingestion attempt. Only the
// terminal states are persisted by the synchronous pipeline; pending and
// processing are reserved for deferred flows.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusComplete   ProcessingStatus = "complete"
	StatusError      ProcessingStatus = "error"
)

// Memory is a dated, geolocated family event record.
type Memory struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Narrative      string       `json:"narrative"`
	DateType       DateType     `json:"dateType"`
	StartDate      time.Time    `json:"startDate"`
	EndDate        *time.Time   `json:"endDate,omitempty"`
	Location       GeoPoint     `json:"location"`
	LocationName   string       `json:"locationName"`
	PrivacyLevel   PrivacyLevel `json:"privacyLevel"`
	Tags           []string     `json:"tags"`
	FamilyMembers  []string     `json:"familyMembers"`
	CreatedBy      string       `json:"createdBy"`
	LastModifiedBy string       `json:"lastModifiedBy"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// MediaItem is one ingested binary asset and its derived state.
type MediaItem struct {
	ID               string           `json:"id"`
	MemoryID         string           `json:"memoryId"`
	Filename         string           `json:"filename"`
	MimeType         string           `json:"mimeType"`
	FileSize         int64            `json:"fileSize"`
	StorageKey       string           `json:"storageKey"`
	ThumbnailKey     string           `json:"thumbnailKey,omitempty"`
	Metadata         Metadata         `json:"extractedMetadata"`
	UploadedBy       string           `json:"uploadedBy"`
	CapturedAt       *time.Time       `json:"capturedAt,omitempty"`
	CapturedLocation *GeoPoint        `json:"capturedLocation,omitempty"`
	Status           ProcessingStatus `json:"processingStatus"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// Metadata is the structured metadata extracted from an uploaded asset.
// Every field is optional; non-image assets carry an empty value.
type Metadata struct {
	EXIF       map[string]string `json:"exif,omitempty"`
	GPS        *GPSInfo          `json:"gps,omitempty"`
	Duration   float64           `json:"duration,omitempty"`
	Dimensions *Dimensions       `json:"dimensions,omitempty"`
}

type GPSInfo struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy,omitempty"`
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether no metadata was extracted at all.
func (m Metadata) Empty() bool {
	return len(m.EXIF) == 0 && m.GPS == nil && m.Duration == 0 && m.Dimensions == nil
}
