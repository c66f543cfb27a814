package model

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MediaType is a user-defined category of collectible item.
type MediaType struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TypeConfig is a media type together with its ordered field definitions.
type TypeConfig struct {
	MediaType
	Fields []Field `json:"fields"`
}

// Field is one attribute slot on a media type.
type Field struct {
	ID           int64     `json:"id"`
	TypeID       int64     `json:"type_id"`
	Key          string    `json:"field_key"`
	Label        string    `json:"field_label"`
	Type         string    `json:"field_type"`
	Required     bool      `json:"required"`
	Options      string    `json:"options,omitempty"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// Field input kinds.
const (
	FieldText     = "text"
	FieldNumber   = "number"
	FieldDate     = "date"
	FieldSelect   = "select"
	FieldTextarea = "textarea"
	FieldBoolean  = "boolean"
	FieldCheckbox = "checkbox"
	FieldRadio    = "radio"
	FieldImage    = "image"
	FieldRating   = "rating"
	FieldKeyValue = "keyvalue"
)

// FieldInput is the body of an add-field request.
type FieldInput struct {
	Label        string  `json:"field_label" validate:"required"`
	Key          string  `json:"field_key"`
	Type         string  `json:"field_type" validate:"omitempty,oneof=text number date select textarea boolean checkbox radio image rating keyvalue"`
	Required     bool    `json:"required"`
	Options      *string `json:"options"`
	DisplayOrder *int    `json:"display_order"`
}

// FieldPatch is a partial field update. Nil members are left unchanged.
type FieldPatch struct {
	Label        *string `json:"field_label" validate:"omitnil,min=1"`
	Type         *string `json:"field_type" validate:"omitnil,oneof=text number date select textarea boolean checkbox radio image rating keyvalue"`
	Required     *bool   `json:"required"`
	Options      *string `json:"options"`
	DisplayOrder *int    `json:"display_order"`
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// SlugifyFieldKey derives a field key from a label: lowercase, runs of
// anything outside [a-z0-9] collapse to one underscore, no leading or
// trailing underscores.
func SlugifyFieldKey(label string) string {
	s := nonSlugChars.ReplaceAllString(strings.ToLower(label), "_")
	return strings.Trim(s, "_")
}

// UniqueFieldKey returns base, or base_1, base_2, ... whichever is the first
// not in existing. An empty base becomes "field".
func UniqueFieldKey(base string, existing []string) string {
	if base == "" {
		base = "field"
	}
	taken := make(map[string]bool, len(existing))
	for _, k := range existing {
		taken[k] = true
	}

	candidate := base
	for n := 1; taken[candidate]; n++ {
		candidate = base + "_" + strconv.Itoa(n)
	}
	return candidate
}
