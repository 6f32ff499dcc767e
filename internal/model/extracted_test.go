package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseExtracted_Envelope(t *testing.T) {
	payload := `{"data":{"employee_information":{"name":"Ana Cruz","employee_id":"E-17"},"attendance_records":[{"date":"2024-01-02","morning_in":"08:00","morning_out":"12:00"}],"total_hours":8}}`
	d, err := ParseExtracted([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.EmployeeInformation) != 2 {
		t.Fatalf("expected 2 employee fields, got %d", len(d.EmployeeInformation))
	}
	if v, _ := d.EmployeeInformation.Get("name"); v != "Ana Cruz" {
		t.Fatalf("unexpected name: %q", v)
	}
	if len(d.AttendanceRecords) != 1 || d.AttendanceRecords[0].MorningOut != "12:00" {
		t.Fatalf("unexpected attendance: %+v", d.AttendanceRecords)
	}
	if d.TotalHours.String() != "8" {
		t.Fatalf("expected total hours 8, got %q", d.TotalHours.String())
	}
}

func TestParseExtracted_Bare(t *testing.T) {
	d, err := ParseExtracted([]byte(`{"employee_information":{"name":"Ben"},"total_hours":"40.5"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := d.EmployeeInformation.Get("name"); v != "Ben" {
		t.Fatalf("unexpected name: %q", v)
	}
	if d.TotalHours.String() != "40.5" {
		t.Fatalf("unexpected hours: %q", d.TotalHours.String())
	}
}

func TestParseExtracted_ServiceError(t *testing.T) {
	_, err := ParseExtracted([]byte(`{"error":"image too blurry"}`))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "image too blurry") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEmployeeInfo_KeepsOrder(t *testing.T) {
	in := `{"zeta":"1","alpha":"2","middle":null,"count":3}`
	var info EmployeeInfo
	if err := json.Unmarshal([]byte(in), &info); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantKeys := []string{"zeta", "alpha", "middle", "count"}
	for i, k := range wantKeys {
		if info[i].Key != k {
			t.Fatalf("field %d: got key %q, want %q", i, info[i].Key, k)
		}
	}
	if info[2].Value != "" {
		t.Fatalf("null should become empty string, got %q", info[2].Value)
	}
	if info[3].Value != "3" {
		t.Fatalf("number should be stringified, got %q", info[3].Value)
	}

	out, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != in {
		t.Fatalf("unexpected JSON: %s", out)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantHours string
		wantEmpty bool
	}{
		{"all missing", `{}`, "0", true},
		{"null sections", `{"employee_information":null,"attendance_records":null,"total_hours":null}`, "0", true},
		{"records not an array", `{"attendance_records":"none","total_hours":""}`, "0", true},
		{"zero hours", `{"total_hours":0}`, "0", true},
		{"hours kept", `{"total_hours":37.5}`, "37.5", false},
		{"string zero is truthy", `{"total_hours":"0"}`, "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseExtracted([]byte(tt.payload))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			n := d.Normalize()
			if n.EmployeeInformation == nil {
				t.Fatal("employee information should be non-nil")
			}
			if n.AttendanceRecords == nil {
				t.Fatal("attendance records should be non-nil")
			}
			if n.TotalHours.String() != tt.wantHours {
				t.Fatalf("hours: got %q, want %q", n.TotalHours.String(), tt.wantHours)
			}
			if n.IsEmpty() != tt.wantEmpty {
				t.Fatalf("IsEmpty: got %v, want %v", n.IsEmpty(), tt.wantEmpty)
			}
		})
	}
}

func TestNormalize_MarshalShape(t *testing.T) {
	out, err := json.Marshal(ExtractedData{}.Normalize())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"employee_information":{},"attendance_records":[],"total_hours":0}`
	if string(out) != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestHours_Presence(t *testing.T) {
	var missing ExtractedData
	if err := json.Unmarshal([]byte(`{}`), &missing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing.TotalHours.Present() {
		t.Fatal("missing total_hours should not be present")
	}

	var null ExtractedData
	if err := json.Unmarshal([]byte(`{"total_hours":null}`), &null); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !null.TotalHours.Present() {
		t.Fatal("null total_hours should be present")
	}
	if !null.TotalHours.IsZero() {
		t.Fatal("null total_hours should be zero")
	}
}

func TestAttendanceRow_Lenient(t *testing.T) {
	var row AttendanceRow
	if err := json.Unmarshal([]byte(`{"date":"Mon","morning_in":null,"overtime_out":17,"extra":"x"}`), &row); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vals := row.Values()
	if vals[0] != "Mon" || vals[1] != "" || vals[6] != "17" {
		t.Fatalf("unexpected values: %q", vals)
	}
}

func TestRecord_HasData(t *testing.T) {
	tests := []struct {
		data string
		want bool
	}{
		{``, false},
		{`null`, false},
		{`{}`, false},
		{`{"total_hours":1}`, true},
	}
	for _, tt := range tests {
		r := Record{Data: json.RawMessage(tt.data)}
		if got := r.HasData(); got != tt.want {
			t.Errorf("HasData(%q) = %v, want %v", tt.data, got, tt.want)
		}
	}
}

func TestExtractedData_KeepsUnknownKeys(t *testing.T) {
	payload := `{"employee_information":{"name":"Ana","dept":null},"attendance_records":[{"date":"01","morning_in":"8:00","remarks":"late","hours":8,"overtime_out":null}],"total_hours":8,"supervisor":"Lee"}`
	d, err := ParseExtracted([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row := d.AttendanceRecords[0]
	if row.MorningIn != "8:00" || row.OvertimeOut != "" {
		t.Fatalf("unexpected typed cells: %+v", row.Values())
	}
	if v, _ := d.EmployeeInformation.Get("dept"); v != "" {
		t.Fatalf("null dept should display empty, got %q", v)
	}

	out, err := json.Marshal(d.Normalize())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != payload {
		t.Fatalf("round trip changed the payload:\ngot  %s\nwant %s", out, payload)
	}
}

func TestExtractedData_BuiltRowsUseCells(t *testing.T) {
	d := ExtractedData{
		EmployeeInformation: EmployeeInfo{{Key: "name", Value: "Ben"}},
		AttendanceRecords:   []AttendanceRow{{Date: "Tue", MorningIn: "09:00"}},
	}.Normalize()
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"employee_information":{"name":"Ben"},"attendance_records":[{"date":"Tue","morning_in":"09:00","morning_out":"","afternoon_in":"","afternoon_out":"","overtime_in":"","overtime_out":""}],"total_hours":0}`
	if string(out) != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}
