// Package workspace tracks batches of uploaded time cards through preview,
// extraction, review and save.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mellaniegambe/timecard/internal/imaging"
	"github.com/mellaniegambe/timecard/internal/model"
	"github.com/mellaniegambe/timecard/internal/render"
)

var (
	ErrNoFiles         = errors.New("no files selected")
	ErrIndexOutOfRange = errors.New("file index out of range")
	ErrNoResult        = errors.New("file has not been extracted")
	ErrBusy            = errors.New("extraction already running")
)

// Processor extracts and saves single time cards. *pipeline.Pipeline
// satisfies it.
type Processor interface {
	Extract(ctx context.Context, up model.Upload) (model.ExtractedData, error)
	Save(ctx context.Context, up model.Upload, data model.ExtractedData) (model.Record, error)
}

// ViewMode selects how a result is shown.
type ViewMode string

const (
	ViewUI   ViewMode = "ui"
	ViewJSON ViewMode = "json"
)

// ParseViewMode accepts "ui" or "json"; empty means ui.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ViewUI:
		return ViewUI, nil
	case ViewJSON:
		return ViewJSON, nil
	default:
		return ViewUI, fmt.Errorf("unknown view mode %q", s)
	}
}

// Status is a file's place in the extraction lifecycle.
type Status string

const (
	StatusPending Status = "pending"
	StatusLoading Status = "loading"
	StatusDone    Status = "done"
	StatusFailed  Status = "error"
)

// Result is the outcome of extracting (and maybe saving) one file.
type Result struct {
	Data     model.ExtractedData `json:"data"`
	Message  string              `json:"message,omitempty"`
	Error    string              `json:"error,omitempty"`
	RecordID string              `json:"record_id,omitempty"`
	ImageURL string              `json:"image_url,omitempty"`
}

// Saved reports whether the result has been persisted.
func (r Result) Saved() bool { return r.RecordID != "" || r.ImageURL != "" }

type entry struct {
	key     uint64
	upload  model.Upload
	preview imaging.Preview
	status  Status
	result  *Result
	view    ViewMode
}

// Batch is one set of selected files. All methods are safe for concurrent
// use; network calls run without holding the lock.
type Batch struct {
	ID        string
	CreatedAt time.Time

	mu      sync.Mutex
	entries []*entry
	nextKey uint64
	running bool
}

// NewBatch validates every upload as an image and builds its preview.
func NewBatch(id string, uploads []model.Upload) (*Batch, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}
	b := &Batch{ID: id, CreatedAt: time.Now()}
	for _, up := range uploads {
		p, err := imaging.NewPreview(up.Name, up.Body)
		if err != nil {
			return nil, err
		}
		up.ContentType = p.ContentType
		b.nextKey++
		b.entries = append(b.entries, &entry{
			key:     b.nextKey,
			upload:  up,
			preview: p,
			status:  StatusPending,
			view:    ViewUI,
		})
	}
	return b, nil
}

// Len returns the number of files in the batch.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

type job struct {
	key    uint64
	upload model.Upload
}

// Extract runs every file through p one at a time, in order. Each outcome is
// stored against its own file; a failure is recorded as that file's error and
// the remaining files still run. With autoSave each successful result is
// saved right away, and a save failure becomes the file's error while the
// extracted data is kept. Files removed mid-run drop their late results.
func (b *Batch) Extract(ctx context.Context, p Processor, autoSave bool) error {
	b.mu.Lock()
	if len(b.entries) == 0 {
		b.mu.Unlock()
		return ErrNoFiles
	}
	if b.running {
		b.mu.Unlock()
		return ErrBusy
	}
	b.running = true
	jobs := make([]job, len(b.entries))
	for i, e := range b.entries {
		jobs[i] = job{key: e.key, upload: e.upload}
		e.status = StatusLoading
		e.result = nil
	}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	for _, j := range jobs {
		res, status := b.process(ctx, p, j.upload, autoSave)
		b.mu.Lock()
		if e := b.lookup(j.key); e != nil {
			e.result = res
			e.status = status
		}
		b.mu.Unlock()
	}
	return nil
}

func (b *Batch) process(ctx context.Context, p Processor, up model.Upload, autoSave bool) (*Result, Status) {
	data, err := p.Extract(ctx, up)
	if err != nil {
		slog.Warn("extraction failed", "batch", b.ID, "file", up.Name, "error", err)
		return &Result{Data: model.ExtractedData{}.Normalize(), Error: err.Error()}, StatusFailed
	}
	data = data.Normalize()
	res := &Result{Data: data}
	if data.IsEmpty() {
		res.Message = render.NoDataExtracted
	}
	if !autoSave {
		return res, StatusDone
	}
	rec, err := p.Save(ctx, up, data)
	if err != nil {
		slog.Warn("save failed", "batch", b.ID, "file", up.Name, "error", err)
		res.Error = err.Error()
		return res, StatusFailed
	}
	res.RecordID = rec.ID
	res.ImageURL = rec.ImageURL
	return res, StatusDone
}

func (b *Batch) lookup(key uint64) *entry {
	for _, e := range b.entries {
		if e.key == key {
			return e
		}
	}
	return nil
}

// at returns entry i. Caller must hold b.mu.
func (b *Batch) at(i int) (*entry, error) {
	if i < 0 || i >= len(b.entries) {
		return nil, fmt.Errorf("%w: %d (batch has %d files)", ErrIndexOutOfRange, i, len(b.entries))
	}
	return b.entries[i], nil
}

// Remove drops file i with its preview, result and view mode. Later files
// shift down one index and keep their own state.
func (b *Batch) Remove(i int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.at(i); err != nil {
		return err
	}
	b.entries = append(b.entries[:i], b.entries[i+1:]...)
	return nil
}

// SetViewMode switches how file i's result is rendered.
func (b *Batch) SetViewMode(i int, mode ViewMode) error {
	if mode != ViewUI && mode != ViewJSON {
		return fmt.Errorf("unknown view mode %q", mode)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	e, err := b.at(i)
	if err != nil {
		return err
	}
	e.view = mode
	return nil
}

// Save persists file i's image and extracted data.
func (b *Batch) Save(ctx context.Context, i int, p Processor) (model.Record, error) {
	b.mu.Lock()
	e, err := b.at(i)
	if err != nil {
		b.mu.Unlock()
		return model.Record{}, err
	}
	if e.result == nil {
		b.mu.Unlock()
		return model.Record{}, fmt.Errorf("%w: %s", ErrNoResult, e.upload.Name)
	}
	key, up, data := e.key, e.upload, e.result.Data
	b.mu.Unlock()

	rec, err := p.Save(ctx, up, data)
	if err != nil {
		return model.Record{}, err
	}

	b.mu.Lock()
	if e := b.lookup(key); e != nil && e.result != nil {
		e.result.RecordID = rec.ID
		e.result.ImageURL = rec.ImageURL
	}
	b.mu.Unlock()
	return rec, nil
}

// Render returns file i's result in its current view mode.
func (b *Batch) Render(i int) (string, error) {
	b.mu.Lock()
	e, err := b.at(i)
	if err != nil {
		b.mu.Unlock()
		return "", err
	}
	status, view := e.status, e.view
	var res Result
	if e.result != nil {
		res = *e.result
	}
	hasResult := e.result != nil
	b.mu.Unlock()

	switch {
	case status == StatusLoading:
		return render.Extracting, nil
	case !hasResult:
		return render.NotExtracted, nil
	}

	var body string
	if view == ViewJSON {
		body, err = render.JSON(res.Data)
		if err != nil {
			return "", err
		}
	} else {
		body = render.UI(res.Data)
	}

	var notes []string
	if res.Error != "" {
		notes = append(notes, "Error: "+res.Error)
	}
	if res.Message != "" {
		notes = append(notes, res.Message)
	}
	if len(notes) == 0 {
		return body, nil
	}
	return strings.Join(notes, "\n") + "\n\n" + body, nil
}
