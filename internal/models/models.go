package models

// TrackingRecord is the persisted fingerprint of one ingested source file.
type TrackingRecord struct {
	Hash          string  `json:"hash"`
	LastModified  float64 `json:"last_modified"`
	ProcessedDate string  `json:"processed_date"`
	ChunkCount    int     `json:"chunk_count"`
	SourceDir     string  `json:"source_dir,omitempty"`
}

// Document is a source file known to the tracking store.
type Document struct {
	Filename string `json:"filename"`
	TrackingRecord
}

type ChunkMetadata struct {
	Source        string  `json:"source"`
	Hash          string  `json:"hash"`
	LastModified  float64 `json:"last_modified"`
	ProcessedDate string  `json:"processed_date"`
	ChunkIndex    int     `json:"chunk_index"`
	ChunkCount    int     `json:"chunk_count"`
	EmbedModel    string  `json:"embed_model,omitempty"`
}

type SearchResult struct {
	ChunkID     string        `json:"chunk_id"`
	Content     string        `json:"content"`
	Score       float64       `json:"score"`
	RawDistance float64       `json:"raw_distance"`
	Words       int           `json:"words"`
	Metadata    ChunkMetadata `json:"metadata"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message of a conversation supplied by the caller.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
