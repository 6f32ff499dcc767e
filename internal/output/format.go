package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mellaniegambe/timecard/internal/model"
)

// Verbosity controls how much of a record is published.
type Verbosity int

const (
	// Minimal publishes the id, image URL and timestamp only.
	Minimal Verbosity = iota
	// Standard adds a short summary of the extracted data.
	Standard
	// Full adds the extracted data as stored.
	Full
)

// ParseVerbosity maps a config string to a Verbosity.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal":
		return Minimal, nil
	case "", "standard":
		return Standard, nil
	case "full":
		return Full, nil
	default:
		return Standard, fmt.Errorf("unknown verbosity %q", s)
	}
}

// Message is the published form of a saved record.
type Message struct {
	ID            string          `json:"id"`
	ImageURL      string          `json:"image_url"`
	CreatedAt     time.Time       `json:"created_at"`
	Employee      string          `json:"employee,omitempty"`
	Days          int             `json:"days,omitempty"`
	TotalHours    string          `json:"total_hours,omitempty"`
	ExtractedData json.RawMessage `json:"extracted_data,omitempty"`
}

// employeeKeys are tried in order to name the card's owner.
var employeeKeys = []string{"name", "employee_name", "employee", "full_name"}

// Format builds the Message for rec at the given verbosity.
func Format(rec model.Record, v Verbosity) Message {
	m := Message{ID: rec.ID, ImageURL: rec.ImageURL, CreatedAt: rec.CreatedAt}
	if v == Minimal {
		return m
	}
	if d, err := rec.Extracted(); err == nil {
		for _, k := range employeeKeys {
			if name, ok := d.EmployeeInformation.Get(k); ok && name != "" {
				m.Employee = name
				break
			}
		}
		m.Days = len(d.AttendanceRecords)
		if !d.TotalHours.IsZero() {
			m.TotalHours = d.TotalHours.String()
		}
	}
	if v == Full && rec.Stored() {
		m.ExtractedData = rec.Data
	}
	return m
}
