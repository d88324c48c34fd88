package domain

// ChunkWindow is one overlapping word window produced by the chunker.
// Page and line are positional estimates (~500 words/page, ~20 words/line)
// meant as review hints, not typesetting coordinates.
type ChunkWindow struct {
	Text string
	Page int
	Line int
}

// Chunk is a persisted document window. ID is the storage-assigned row id;
// ChunkID is the logical identity referenced by control mappings and must
// equal ID once persistence completes.
type Chunk struct {
	ID         int64
	ChunkID    int64
	SourceID   int64
	CustomerID string
	AppID      int64
	Text       string
	Embedding  []float32
	Page       int
	Line       int
	Offset     int
	Length     int
	IsActive   bool
}
