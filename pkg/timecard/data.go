package timecard

import (
	"strconv"
	"time"

	"github.com/mellaniegambe/timecard/internal/model"
	"github.com/mellaniegambe/timecard/internal/render"
)

// Field is one employee information entry.
type Field struct {
	Key   string
	Value string
}

// Day is one attendance row.
type Day struct {
	Date         string
	MorningIn    string
	MorningOut   string
	AfternoonIn  string
	AfternoonOut string
	OvertimeIn   string
	OvertimeOut  string
}

// Data is what was read from one time card.
type Data struct {
	Employee   []Field
	Attendance []Day
	// TotalHours is empty when the card had none.
	TotalHours string
}

// Saved is a persisted result.
type Saved struct {
	ID        string
	ImageURL  string
	CreatedAt time.Time
	Data      Data
}

// UI renders d as labelled sections and an attendance table.
func (d Data) UI() string {
	return render.UI(d.model())
}

// JSON renders d as indented JSON.
func (d Data) JSON() (string, error) {
	return render.JSON(d.model())
}

func dataFromModel(m model.ExtractedData) Data {
	d := Data{
		Employee:   make([]Field, len(m.EmployeeInformation)),
		Attendance: make([]Day, len(m.AttendanceRecords)),
	}
	for i, f := range m.EmployeeInformation {
		d.Employee[i] = Field{Key: f.Key, Value: f.Value}
	}
	for i, r := range m.AttendanceRecords {
		d.Attendance[i] = Day{
			Date:         r.Date,
			MorningIn:    r.MorningIn,
			MorningOut:   r.MorningOut,
			AfternoonIn:  r.AfternoonIn,
			AfternoonOut: r.AfternoonOut,
			OvertimeIn:   r.OvertimeIn,
			OvertimeOut:  r.OvertimeOut,
		}
	}
	if !m.TotalHours.IsZero() {
		d.TotalHours = m.TotalHours.String()
	}
	return d
}

func (d Data) model() model.ExtractedData {
	m := model.ExtractedData{
		EmployeeInformation: make(model.EmployeeInfo, len(d.Employee)),
		AttendanceRecords:   make([]model.AttendanceRow, len(d.Attendance)),
	}
	for i, f := range d.Employee {
		m.EmployeeInformation[i] = model.Field{Key: f.Key, Value: f.Value}
	}
	for i, day := range d.Attendance {
		m.AttendanceRecords[i] = model.AttendanceRow{
			Date:         day.Date,
			MorningIn:    day.MorningIn,
			MorningOut:   day.MorningOut,
			AfternoonIn:  day.AfternoonIn,
			AfternoonOut: day.AfternoonOut,
			OvertimeIn:   day.OvertimeIn,
			OvertimeOut:  day.OvertimeOut,
		}
	}
	if d.TotalHours != "" {
		if f, err := strconv.ParseFloat(d.TotalHours, 64); err == nil {
			m.TotalHours = model.NumberHours(f)
		} else {
			m.TotalHours = model.TextHours(d.TotalHours)
		}
	}
	return m.Normalize()
}

func savedFromRecord(rec model.Record) (Saved, error) {
	s := Saved{ID: rec.ID, ImageURL: rec.ImageURL, CreatedAt: rec.CreatedAt}
	if !rec.HasData() {
		return s, nil
	}
	m, err := rec.Extracted()
	if err != nil {
		return Saved{}, err
	}
	s.Data = dataFromModel(m)
	return s, nil
}
