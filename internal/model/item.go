package model

import (
	"strconv"
	"time"
)

// Item is a cataloged media item joined with its type name.
// Attributes is nil when the item has no attribute rows.
type Item struct {
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
	Attributes   map[string]string `json:"attributes,omitempty"`
}

// Item statuses.
const (
	StatusAvailable = "available"
	StatusBorrowed  = "borrowed"
	StatusLost      = "lost"
)

// ValidStatus reports whether s is one of the item statuses.
func ValidStatus(s string) bool {
	return s == StatusAvailable || s == StatusBorrowed || s == StatusLost
}

// ItemInput is the body of an item create or update. A nil Attributes map
// means the request did not carry attributes at all.
type ItemInput struct {
	TypeID       int64              `json:"type_id" validate:"required"`
	Title        string             `json:"title" validate:"required"`
	Status       string             `json:"status" validate:"omitempty,oneof=available borrowed lost"`
	BorrowedBy   string             `json:"borrowed_by"`
	BorrowedDate string             `json:"borrowed_date"`
	Notes        string             `json:"notes"`
	CoverImage   *string            `json:"cover_image"`
	Attributes   map[string]*string `json:"attributes"`
}

// ItemFilter narrows item listings. A nil TypeID or empty Status matches all.
type ItemFilter struct {
	TypeID *int64
	Status string
}

// ParseItemFilter builds a filter from the "type" and "status" query
// parameters. Values that are "all", unparsable or unknown are ignored.
func ParseItemFilter(typeParam, statusParam string) ItemFilter {
	var f ItemFilter
	if typeParam != "" && typeParam != "all" {
		if id, err := strconv.ParseInt(typeParam, 10, 64); err == nil {
			f.TypeID = &id
		}
	}
	if statusParam != "all" && ValidStatus(statusParam) {
		f.Status = statusParam
	}
	return f
}

// NormalizeDate accepts a calendar date or an RFC 3339 timestamp and returns
// it as YYYY-MM-DD. Empty input stays empty.
func NormalizeDate(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.Format(time.DateOnly), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC().Format(time.DateOnly), nil
	}
	return "", Invalid("borrowed_date", "must be a date (YYYY-MM-DD)")
}
