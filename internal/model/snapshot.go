package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// SnapshotVersion is the format version written by exports.
const SnapshotVersion = "1.0"

// Snapshot is the JSON document produced by export and consumed by import.
type Snapshot struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Config     *SnapshotConfig `json:"config,omitempty"`
	Data       *SnapshotData   `json:"data"`
}

// SnapshotConfig holds the type registry part of a snapshot.
type SnapshotConfig struct {
	Types []TypeConfig `json:"types"`
}

// SnapshotData holds the catalog part of a snapshot.
type SnapshotData struct {
	Items []ExportedItem `json:"items"`
}

// ExportedItem is an item as it appears in a snapshot. Attributes is always
// written, even when empty.
type ExportedItem struct {
	ID           int64             `json:"id"`
	TypeID       int64             `json:"type_id"`
	TypeName     string            `json:"type_name"`
	Title        string            `json:"title"`
	Status       string            `json:"status"`
	BorrowedBy   string            `json:"borrowed_by,omitempty"`
	BorrowedDate string            `json:"borrowed_date,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	CoverImage   string            `json:"cover_image,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Attributes   map[string]string `json:"attributes"`
}

// metadataKeys are the snapshot timestamps. Imports never read them.
var metadataKeys = map[string]bool{
	"exported_at": true,
	"created_at":  true,
	"updated_at":  true,
}

// UnmarshalJSON decodes a snapshot, dropping metadata timestamps that are not
// RFC 3339 strings instead of rejecting the document.
func (s *Snapshot) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	dropBadTimestamps(doc)

	cleaned, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	type plain Snapshot
	return json.Unmarshal(cleaned, (*plain)(s))
}

func dropBadTimestamps(v any) {
	switch v := v.(type) {
	case map[string]any:
		for key, child := range v {
			switch {
			case key == "attributes":
				// user data, keys may collide with metadata names
			case metadataKeys[key]:
				if str, ok := child.(string); !ok || !isTimestamp(str) {
					delete(v, key)
				}
			default:
				dropBadTimestamps(child)
			}
		}
	case []any:
		for _, child := range v {
			dropBadTimestamps(child)
		}
	}
}

func isTimestamp(s string) bool {
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}
