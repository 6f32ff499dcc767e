package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ExtractedData is the structured payload the extraction service returns for one time card.
type ExtractedData struct {
	EmployeeInformation EmployeeInfo    `json:"employee_information"`
	AttendanceRecords   []AttendanceRow `json:"attendance_records"`
	TotalHours          Hours           `json:"total_hours"`

	// extra holds any other top-level keys, in source order.
	extra []rawField
}

// rawField is one key of a JSON object with its undecoded value.
type rawField struct {
	key   string
	value json.RawMessage
}

// Normalize fills in the shape every consumer relies on: an empty employee
// mapping, an empty row list, and zero hours when the value is missing or falsy.
func (d ExtractedData) Normalize() ExtractedData {
	if d.EmployeeInformation == nil {
		d.EmployeeInformation = EmployeeInfo{}
	}
	if d.AttendanceRecords == nil {
		d.AttendanceRecords = []AttendanceRow{}
	}
	if d.TotalHours.IsZero() {
		d.TotalHours = NumberHours(0)
	}
	return d
}

// IsEmpty reports whether nothing useful was extracted.
func (d ExtractedData) IsEmpty() bool {
	return len(d.EmployeeInformation) == 0 && len(d.AttendanceRecords) == 0 && d.TotalHours.IsZero()
}

// MarshalJSON writes the three known sections followed by any other keys the
// service sent.
func (d ExtractedData) MarshalJSON() ([]byte, error) {
	fields := make([]rawField, 0, 3+len(d.extra))
	for _, sec := range []struct {
		key   string
		value any
	}{
		{"employee_information", d.EmployeeInformation},
		{"attendance_records", d.AttendanceRecords},
		{"total_hours", d.TotalHours},
	} {
		b, err := json.Marshal(sec.value)
		if err != nil {
			return nil, err
		}
		fields = append(fields, rawField{key: sec.key, value: b})
	}
	return writeObject(append(fields, d.extra...))
}

// UnmarshalJSON decodes each section on its own so that a malformed section
// (an attendance list that is not an array, say) leaves that section empty
// instead of failing the whole payload.
func (d *ExtractedData) UnmarshalJSON(b []byte) error {
	fields, err := readObject(b)
	if err != nil {
		return fmt.Errorf("extracted data: %w", err)
	}
	*d = ExtractedData{}
	for _, f := range fields {
		switch f.key {
		case "employee_information":
			var info EmployeeInfo
			if err := json.Unmarshal(f.value, &info); err == nil {
				d.EmployeeInformation = info
			}
		case "attendance_records":
			var rows []AttendanceRow
			if err := json.Unmarshal(f.value, &rows); err == nil {
				d.AttendanceRecords = rows
			}
		case "total_hours":
			if err := json.Unmarshal(f.value, &d.TotalHours); err != nil {
				return fmt.Errorf("extracted data total_hours: %w", err)
			}
		default:
			d.extra = append(d.extra, f)
		}
	}
	return nil
}

// Field is one entry of the employee information mapping.
type Field struct {
	Key   string
	Value string

	raw json.RawMessage
}

// EmployeeInfo is a flat field → string mapping that keeps the source key order.
// Decoded values are written back exactly as received.
type EmployeeInfo []Field

// Get returns the value stored under key.
func (e EmployeeInfo) Get(key string) (string, bool) {
	for _, f := range e {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

func (e EmployeeInfo) MarshalJSON() ([]byte, error) {
	fields := make([]rawField, len(e))
	for i, f := range e {
		v := f.raw
		if len(v) == 0 {
			var err error
			if v, err = json.Marshal(f.Value); err != nil {
				return nil, err
			}
		}
		fields[i] = rawField{key: f.Key, value: v}
	}
	return writeObject(fields)
}

func (e *EmployeeInfo) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		*e = nil
		return nil
	}
	raw, err := readObject(b)
	if err != nil {
		return fmt.Errorf("employee_information: %w", err)
	}
	fields := make(EmployeeInfo, 0, len(raw))
	for _, f := range raw {
		val, err := stringify(f.value)
		if err != nil {
			return fmt.Errorf("employee_information.%s: %w", f.key, err)
		}
		fields = append(fields, Field{Key: f.key, Value: val, raw: f.value})
	}
	*e = fields
	return nil
}

// AttendanceColumns lists the attendance row fields in display order.
var AttendanceColumns = []string{
	"date",
	"morning_in",
	"morning_out",
	"afternoon_in",
	"afternoon_out",
	"overtime_in",
	"overtime_out",
}

// AttendanceRow is one day on the time card. The typed cells feed the
// attendance table; a decoded row is written back exactly as received.
type AttendanceRow struct {
	Date         string `json:"date"`
	MorningIn    string `json:"morning_in"`
	MorningOut   string `json:"morning_out"`
	AfternoonIn  string `json:"afternoon_in"`
	AfternoonOut string `json:"afternoon_out"`
	OvertimeIn   string `json:"overtime_in"`
	OvertimeOut  string `json:"overtime_out"`

	raw json.RawMessage
}

// Values returns the row's cells in AttendanceColumns order.
func (r AttendanceRow) Values() []string {
	return []string{r.Date, r.MorningIn, r.MorningOut, r.AfternoonIn, r.AfternoonOut, r.OvertimeIn, r.OvertimeOut}
}

func (r AttendanceRow) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	type cells AttendanceRow
	return json.Marshal(cells(r))
}

func (r *AttendanceRow) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		*r = AttendanceRow{raw: json.RawMessage("null")}
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("attendance row: %w", err)
	}
	cells := make([]string, len(AttendanceColumns))
	for i, col := range AttendanceColumns {
		raw, ok := m[col]
		if !ok {
			continue
		}
		v, err := stringify(raw)
		if err != nil {
			return fmt.Errorf("attendance row %s: %w", col, err)
		}
		cells[i] = v
	}
	*r = AttendanceRow{
		Date:         cells[0],
		MorningIn:    cells[1],
		MorningOut:   cells[2],
		AfternoonIn:  cells[3],
		AfternoonOut: cells[4],
		OvertimeIn:   cells[5],
		OvertimeOut:  cells[6],
		raw:          append(json.RawMessage(nil), b...),
	}
	return nil
}

// Hours is the total_hours value. The service sends either a number or a
// string; a missing key and an explicit null are kept apart.
type Hours struct {
	kind hoursKind
	text string
}

type hoursKind uint8

const (
	hoursMissing hoursKind = iota
	hoursNull
	hoursNumber
	hoursText
)

// NumberHours returns a numeric Hours value.
func NumberHours(f float64) Hours {
	return Hours{kind: hoursNumber, text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// TextHours returns a string Hours value.
func TextHours(s string) Hours {
	return Hours{kind: hoursText, text: s}
}

// Present reports whether total_hours appeared in the source, even as null.
func (h Hours) Present() bool { return h.kind != hoursMissing }

// IsZero reports whether the value is missing, null, numeric zero or an empty string.
func (h Hours) IsZero() bool {
	switch h.kind {
	case hoursNumber:
		f, err := strconv.ParseFloat(h.text, 64)
		return err == nil && f == 0
	case hoursText:
		return h.text == ""
	default:
		return true
	}
}

func (h Hours) String() string { return h.text }

func (h Hours) MarshalJSON() ([]byte, error) {
	switch h.kind {
	case hoursNumber:
		return []byte(h.text), nil
	case hoursText:
		return json.Marshal(h.text)
	default:
		return []byte("null"), nil
	}
}

func (h *Hours) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || isNull(b) {
		*h = Hours{kind: hoursNull}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*h = TextHours(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*h = Hours{kind: hoursNumber, text: n.String()}
	case 'f':
		// false is falsy like null
		*h = Hours{kind: hoursNull}
	default:
		s, err := stringify(b)
		if err != nil {
			return err
		}
		*h = TextHours(s)
	}
	return nil
}

// ParseExtracted decodes a service payload. Both the bare object and the
// {"data": {...}} envelope are accepted.
func ParseExtracted(b []byte) (ExtractedData, error) {
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return ExtractedData{}, fmt.Errorf("decode extraction payload: %w", err)
	}
	if len(env.Error) > 0 && !isNull(env.Error) {
		msg, _ := stringify(env.Error)
		return ExtractedData{}, fmt.Errorf("extraction service: %s", msg)
	}
	if len(env.Data) > 0 && !isNull(env.Data) {
		b = env.Data
	}

	var d ExtractedData
	if err := json.Unmarshal(b, &d); err != nil {
		return ExtractedData{}, fmt.Errorf("decode extracted data: %w", err)
	}
	return d, nil
}

// readObject returns the members of a JSON object in source order.
func readObject(b []byte) ([]rawField, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	var fields []rawField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		fields = append(fields, rawField{key: key, value: raw})
	}
	return fields, nil
}

func writeObject(fields []rawField) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(f.value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func isNull(b []byte) bool {
	return string(bytes.TrimSpace(b)) == "null"
}

// stringify renders a JSON value as display text: strings unquoted, null as
// empty, everything else as compact JSON.
func stringify(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
