package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mellaniegambe/timecard/internal/extractor"
	"github.com/mellaniegambe/timecard/internal/model"
	"github.com/mellaniegambe/timecard/internal/output"
	"github.com/mellaniegambe/timecard/internal/store"
)

var (
	// ErrNoExtractor is returned by Extract when no extraction provider is configured.
	ErrNoExtractor = errors.New("no extraction provider configured")
	// ErrNoStore is returned by Save and the history calls when no backend is configured.
	ErrNoStore = errors.New("no storage backend configured")
)

// DefaultHistoryLimit bounds history listings that do not set a limit.
const DefaultHistoryLimit = 50

// NoLimit asks History for every saved record.
const NoLimit = -1

// Pipeline connects an extractor, a store and an output.
type Pipeline struct {
	extractor extractor.Extractor
	store     *store.Store
	output    output.Output
}

// New creates a Pipeline. Any component may be nil; the calls that need it
// then fail with ErrNoExtractor or ErrNoStore. A nil output skips publishing.
func New(ext extractor.Extractor, st *store.Store, out output.Output) *Pipeline {
	return &Pipeline{
		extractor: ext,
		store:     st,
		output:    out,
	}
}

// Extract sends up to the extraction service and returns the normalized result.
func (p *Pipeline) Extract(ctx context.Context, up model.Upload) (model.ExtractedData, error) {
	if p.extractor == nil {
		return model.ExtractedData{}, ErrNoExtractor
	}
	data, err := p.extractor.Extract(ctx, up)
	if err != nil {
		return model.ExtractedData{}, fmt.Errorf("pipeline extract %s: %w", up.Name, err)
	}
	data = data.Normalize()
	slog.Debug("extracted time card",
		"file", up.Name,
		"employee_fields", len(data.EmployeeInformation),
		"rows", len(data.AttendanceRecords),
		"total_hours", data.TotalHours.String(),
	)
	return data, nil
}

// Save persists the image and the data, then publishes the new record.
// Publishing failures are logged and do not fail the save.
func (p *Pipeline) Save(ctx context.Context, up model.Upload, data model.ExtractedData) (model.Record, error) {
	if p.store == nil {
		return model.Record{}, ErrNoStore
	}
	rec, err := p.store.Save(ctx, up, data.Normalize())
	if err != nil {
		return model.Record{}, fmt.Errorf("pipeline save %s: %w", up.Name, err)
	}
	slog.Info("saved time card", "file", up.Name, "id", rec.ID, "image_url", rec.ImageURL)

	if p.output != nil {
		if err := p.output.Write(ctx, rec); err != nil {
			slog.Warn("output write failed", "id", rec.ID, "error", err)
		}
	}
	return rec, nil
}

// History lists saved records, newest first. A zero limit uses
// DefaultHistoryLimit and a negative limit (NoLimit) lists everything.
func (p *Pipeline) History(ctx context.Context, limit int) ([]model.Record, error) {
	if p.store == nil {
		return nil, ErrNoStore
	}
	switch {
	case limit == 0:
		limit = DefaultHistoryLimit
	case limit < 0:
		limit = 0
	}
	recs, err := p.store.Records.List(ctx, store.Query{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("pipeline history: %w", err)
	}
	return recs, nil
}

// Record fetches one saved record. Unknown ids wrap store.ErrNotFound.
func (p *Pipeline) Record(ctx context.Context, id string) (model.Record, error) {
	if p.store == nil {
		return model.Record{}, ErrNoStore
	}
	rec, err := p.store.Records.Get(ctx, id)
	if err != nil {
		return model.Record{}, fmt.Errorf("pipeline record: %w", err)
	}
	return rec, nil
}

// HasStore reports whether records can be saved and listed.
func (p *Pipeline) HasStore() bool { return p.store != nil }

// Close shuts down the output.
func (p *Pipeline) Close() error {
	if p.output == nil {
		return nil
	}
	return p.output.Close()
}
