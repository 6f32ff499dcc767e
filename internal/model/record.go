package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Record is a saved extraction: the stored image and the JSON extracted from it.
// Data holds extracted_data exactly as the backend returned it.
type Record struct {
	ID        string          `json:"id"`
	ImageURL  string          `json:"image_url"`
	Data      json.RawMessage `json:"extracted_data"`
	CreatedAt time.Time       `json:"created_at"`
}

// Extracted decodes the stored payload for the formatted view.
// A record without data decodes to the zero value.
func (r Record) Extracted() (ExtractedData, error) {
	if !r.HasData() {
		return ExtractedData{}, nil
	}
	var d ExtractedData
	if err := json.Unmarshal(r.Data, &d); err != nil {
		return ExtractedData{}, err
	}
	return d, nil
}

// Stored reports whether extracted_data was saved at all; an absent value and
// JSON null are not stored.
func (r Record) Stored() bool {
	b := bytes.TrimSpace(r.Data)
	return len(b) > 0 && !isNull(b)
}

// HasData reports whether the record carries a non-empty JSON object.
func (r Record) HasData() bool {
	b := bytes.TrimSpace(r.Data)
	if len(b) == 0 || isNull(b) {
		return false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return false
	}
	return len(m) > 0
}

// NewRecord is what gets inserted when a result is saved.
type NewRecord struct {
	ImageURL string          `json:"image_url"`
	Data     json.RawMessage `json:"extracted_data"`
}
