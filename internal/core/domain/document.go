package domain

import (
	"strings"
	"time"
)

// DocumentStatus tracks how far a document has progressed through ingestion.
type DocumentStatus string

// Available document statuses.
const (
	// DocumentStatusPending is a document that has not been processed yet.
	DocumentStatusPending DocumentStatus = "pending"

	// DocumentStatusProcessing is a document currently being chunked or embedded.
	DocumentStatusProcessing DocumentStatus = "processing"

	// DocumentStatusCompleted is a fully processed document. Only these are searchable.
	DocumentStatusCompleted DocumentStatus = "completed"

	// DocumentStatusFailed is a document whose processing failed.
	DocumentStatusFailed DocumentStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusProcessing, DocumentStatusCompleted, DocumentStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s DocumentStatus) String() string {
	return string(s)
}

// Document represents an ingested document.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title.
	Title string

	// URI is the original location (file path, URL, etc).
	URI string

	// Status is the processing status.
	Status DocumentStatus

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// ChunkField names one of the independently embeddable text fields of a chunk.
type ChunkField string

// Embeddable chunk fields. Content is always present.
const (
	FieldContent       ChunkField = "content"
	FieldHeaderContext ChunkField = "header_context"
	FieldNotes         ChunkField = "notes"
	FieldDetails       ChunkField = "details"
)

// AllChunkFields returns every embeddable field in canonical order.
func AllChunkFields() []ChunkField {
	return []ChunkField{FieldContent, FieldHeaderContext, FieldNotes, FieldDetails}
}

// IsValid returns true if the field is recognised.
func (f ChunkField) IsValid() bool {
	switch f {
	case FieldContent, FieldHeaderContext, FieldNotes, FieldDetails:
		return true
	default:
		return false
	}
}

// Order returns the canonical position of the field, used for tie-breaks.
func (f ChunkField) Order() int {
	switch f {
	case FieldContent:
		return 0
	case FieldHeaderContext:
		return 1
	case FieldNotes:
		return 2
	case FieldDetails:
		return 3
	default:
		return 4
	}
}

// String returns the string representation.
func (f ChunkField) String() string {
	return string(f)
}

// ParseChunkField parses a field name, accepting the camelCase spelling too.
func ParseChunkField(s string) (ChunkField, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "content":
		return FieldContent, true
	case "header_context", "headercontext", "header":
		return FieldHeaderContext, true
	case "notes":
		return FieldNotes, true
	case "details":
		return FieldDetails, true
	default:
		return "", false
	}
}

// Chunk is a retrievable unit of source text.
// Content is always present; the other fields are optional.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Position is the ordinal position within the document.
	Position int

	// Content is the chunk text.
	Content string

	// HeaderContext is the heading path the chunk sits under.
	HeaderContext string

	// Notes are user annotations on the chunk.
	Notes string

	// Details is supplementary text attached to the chunk.
	Details string

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any

	// UpdatedAt is when any field was last written.
	UpdatedAt time.Time
}

// FieldText returns the text of the given field.
func (c *Chunk) FieldText(field ChunkField) string {
	switch field {
	case FieldContent:
		return c.Content
	case FieldHeaderContext:
		return c.HeaderContext
	case FieldNotes:
		return c.Notes
	case FieldDetails:
		return c.Details
	default:
		return ""
	}
}

// PresentFields returns the fields with non-blank text, in canonical order.
func (c *Chunk) PresentFields() []ChunkField {
	fields := make([]ChunkField, 0, 4)
	for _, f := range AllChunkFields() {
		if strings.TrimSpace(c.FieldText(f)) != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// ChangedFields returns the fields whose text differs between old and c.
func (c *Chunk) ChangedFields(old *Chunk) []ChunkField {
	if old == nil {
		return AllChunkFields()
	}
	var changed []ChunkField
	for _, f := range AllChunkFields() {
		if c.FieldText(f) != old.FieldText(f) {
			changed = append(changed, f)
		}
	}
	return changed
}
