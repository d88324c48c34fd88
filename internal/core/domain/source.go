package domain

import "time"

// Source is an uploaded compliance-evidence document. The raw file and its
// extracted text live in blob storage; this row only tracks metadata and the
// current version pointer.
type Source struct {
	ID             int64
	CustomerID     string
	AppID          int64
	Name           string
	SourceType     int64
	IsActive       bool
	CurrentVersion int64

	// Version is the resolved current version, nil when the source has none.
	Version *SourceVersion
}

// SourceVersion carries the blob locations for one revision of a source.
// TextBucketKey points at the externally extracted UTF-8 text; it may be set
// before the text actually exists in the blob store.
type SourceVersion struct {
	ID              int64
	SourceID        int64
	FileBucketKey   string
	TextBucketKey   string
	TextVersion     int
	IsTextAvailable bool
	TextUpdatedAt   *time.Time
}

// TextPath returns the blob path to read document text from, preferring the
// extracted-text location over the raw upload.
func (v *SourceVersion) TextPath() string {
	if v.TextBucketKey != "" {
		return v.TextBucketKey
	}
	return v.FileBucketKey
}

// ProcessRequest identifies one pipeline run. It is the queue message payload.
type ProcessRequest struct {
	AppID        int64  `json:"app_id"`
	SourceID     int64  `json:"source_id"`
	CustomerID   string `json:"customer_id"`
	SourceTypeID int64  `json:"source_type_id"`
}

// RunStats summarizes what one pipeline run wrote.
type RunStats struct {
	Chunks   int
	Mappings int
}
