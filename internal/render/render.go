// Package render turns extracted time-card data into the formatted (UI) and
// raw (JSON) views.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mellaniegambe/timecard/internal/model"
)

// Display text shared by the API and the CLI.
const (
	Placeholder     = "—"
	NoEmployeeInfo  = "No employee information found."
	NoAttendance    = "No attendance records found."
	NoDataExtracted = "No data extracted"
	NoData          = "No data available"
	NoImage         = "No image available"
	NotExtracted    = "Click \"Extract Data\" to analyze this image"
	Extracting      = "Extracting data..."
)

// AttendanceHeaders are the column titles matching model.AttendanceColumns.
var AttendanceHeaders = []string{
	"Date",
	"Morning In",
	"Morning Out",
	"Afternoon In",
	"Afternoon Out",
	"Overtime In",
	"Overtime Out",
}

var titler = cases.Title(language.English)

// Label turns a field key such as "employee_id" into "Employee Id".
func Label(key string) string {
	return titler.String(strings.ReplaceAll(key, "_", " "))
}

func cell(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// UI renders the formatted view: employee fields, total hours and the
// attendance table.
func UI(d model.ExtractedData) string {
	var buf bytes.Buffer

	buf.WriteString("Employee Information\n")
	if len(d.EmployeeInformation) == 0 {
		buf.WriteString("  " + NoEmployeeInfo + "\n")
	} else {
		tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		for _, f := range d.EmployeeInformation {
			fmt.Fprintf(tw, "  %s:\t%s\n", Label(f.Key), cell(f.Value))
		}
		tw.Flush()
	}

	if d.TotalHours.Present() {
		hours := Placeholder
		if !d.TotalHours.IsZero() {
			hours = d.TotalHours.String()
		}
		fmt.Fprintf(&buf, "\nTotal Hours\n  %s\n", hours)
	}

	buf.WriteString("\nAttendance Records\n")
	if len(d.AttendanceRecords) == 0 {
		buf.WriteString("  " + NoAttendance + "\n")
		return buf.String()
	}
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  %s\n", strings.Join(AttendanceHeaders, "\t"))
	for _, row := range d.AttendanceRecords {
		vals := row.Values()
		for i := range vals {
			vals[i] = cell(vals[i])
		}
		fmt.Fprintf(tw, "  %s\n", strings.Join(vals, "\t"))
	}
	tw.Flush()
	return buf.String()
}

// JSON renders the raw view of freshly extracted data, indented two spaces.
func JSON(d model.ExtractedData) (string, error) {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render json: %w", err)
	}
	return string(b), nil
}

// RecordUI renders a saved record's formatted view.
func RecordUI(rec model.Record) (string, error) {
	if !rec.Stored() {
		return NoData, nil
	}
	d, err := rec.Extracted()
	if err != nil {
		return "", fmt.Errorf("render record %s: %w", rec.ID, err)
	}
	return UI(d), nil
}

// RecordJSON renders the stored object itself, re-indented, so no keys are
// lost to re-serialization.
func RecordJSON(rec model.Record) (string, error) {
	if !rec.Stored() {
		return NoData, nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(rec.Data), "", "  "); err != nil {
		return "", fmt.Errorf("render record %s: %w", rec.ID, err)
	}
	return buf.String(), nil
}
