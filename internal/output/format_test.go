package output

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mellaniegambe/timecard/internal/model"
)

func baseRecord() model.Record {
	return model.Record{
		ID:        "12",
		ImageURL:  "https://cdn.test/a.png",
		CreatedAt: time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC),
		Data:      json.RawMessage(`{"employee_information":{"name":"Ana Cruz"},"attendance_records":[{"date":"Mon"},{"date":"Tue"}],"total_hours":16}`),
	}
}

func TestFormatMinimal(t *testing.T) {
	m := Format(baseRecord(), Minimal)
	if m.ID != "12" || m.ImageURL == "" {
		t.Fatalf("identity fields should be kept: %+v", m)
	}
	if m.Employee != "" || m.Days != 0 || m.ExtractedData != nil {
		t.Fatalf("Minimal should carry no extracted fields: %+v", m)
	}
}

func TestFormatStandard(t *testing.T) {
	m := Format(baseRecord(), Standard)
	if m.Employee != "Ana Cruz" {
		t.Fatalf("expected employee Ana Cruz, got %q", m.Employee)
	}
	if m.Days != 2 || m.TotalHours != "16" {
		t.Fatalf("unexpected summary: days=%d hours=%q", m.Days, m.TotalHours)
	}
	if m.ExtractedData != nil {
		t.Fatal("Standard should not carry the raw payload")
	}
}

func TestFormatFull(t *testing.T) {
	m := Format(baseRecord(), Full)
	if len(m.ExtractedData) == 0 {
		t.Fatal("Full should carry the raw payload")
	}
}

func TestFormatEmptyRecordOmitsFields(t *testing.T) {
	rec := baseRecord()
	rec.Data = json.RawMessage(`{}`)
	data, err := json.Marshal(Format(rec, Full))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"employee", "days", "total_hours", "extracted_data"} {
		if _, ok := m[key]; ok {
			t.Fatalf("%s should be omitted for an empty record", key)
		}
	}
	for _, key := range []string{"id", "image_url", "created_at"} {
		if _, ok := m[key]; !ok {
			t.Fatalf("expected key %q in JSON", key)
		}
	}
}

func TestParseVerbosity(t *testing.T) {
	tests := []struct {
		in      string
		want    Verbosity
		wantErr bool
	}{
		{"minimal", Minimal, false},
		{"", Standard, false},
		{"STANDARD", Standard, false},
		{"full", Full, false},
		{"loud", Standard, true},
	}
	for _, tt := range tests {
		got, err := ParseVerbosity(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseVerbosity(%q) = %v, %v", tt.in, got, err)
		}
	}
}
