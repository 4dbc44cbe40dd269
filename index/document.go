package index

import "time"

// Field names of the bleve document mapping.
const (
	FieldPath         = "path"
	FieldFilename     = "filename"
	FieldContent      = "content"
	FieldLastModified = "last_modified"
)

// Document is the unit of indexing. Path is the unique key: indexing the same
// path again replaces the previous entry.
type Document struct {
	Path         string    // Absolute file path
	Filename     string    // Base name, lower-cased when written
	Content      string    // Extracted text; indexed, not stored
	LastModified time.Time // File modification time at index time
}

// StoredDocument is the stored subset of a Document read back from the index.
type StoredDocument struct {
	Path         string
	LastModified time.Time
}

// bleveDocument is the document structure stored in Bleve.
type bleveDocument struct {
	Path         string    `json:"path"`
	Filename     string    `json:"filename"`
	Content      string    `json:"content"`
	LastModified time.Time `json:"last_modified"`
}
