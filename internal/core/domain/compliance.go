package domain

// Control is a single compliance requirement. Read-only to this pipeline.
type Control struct {
	ID         int64
	Name       string
	FamilyName string
	Text       string
	Active     bool
}

// ControlFamily groups a standard's active controls by family name.
type ControlFamily struct {
	Name     string
	Controls []Control
}

// ChunkAnalysis is one structured relevance judgment emitted by a completion
// backend for a (chunk, control) pair.
type ChunkAnalysis struct {
	ControlID      int64  `json:"control_id"`
	FamilyName     string `json:"family_name"`
	RelevanceScore int    `json:"relevance_score"`
	Evidence       string `json:"evidence"`
	IsMentioned    bool   `json:"is_mentioned"`
}

// ReferenceData is the structured judgment stored on a chunk-control mapping.
type ReferenceData struct {
	RelevanceScore int    `json:"relevance_score"`
	Evidence       string `json:"evidence"`
	IsMentioned    bool   `json:"is_mentioned"`
}

// ChunkControlMapping links a chunk to a control for one application. Rows
// only exist for judgments at or above the relevance threshold; this is the
// evidence trail auditors inspect.
type ChunkControlMapping struct {
	ID        int64
	AppID     int64
	ControlID int64
	ChunkID   int64
	Reference ReferenceData
	IsActive  bool
	IsTagged  bool
}

// AppStandard subscribes an application to a compliance standard.
type AppStandard struct {
	ID                    int64
	AppID                 int64
	StandardID            int64
	HavePendingCompliance bool
}
