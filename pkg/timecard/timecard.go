package timecard

import (
	"context"
	"errors"
	"fmt"

	"github.com/mellaniegambe/timecard/internal/extractor"
	"github.com/mellaniegambe/timecard/internal/imaging"
	"github.com/mellaniegambe/timecard/internal/model"
	"github.com/mellaniegambe/timecard/internal/pipeline"
	"github.com/mellaniegambe/timecard/internal/store"
	"github.com/mellaniegambe/timecard/internal/store/localfs"
	"github.com/mellaniegambe/timecard/internal/store/sqlstore"
	"github.com/mellaniegambe/timecard/internal/store/supabase"

	_ "github.com/mellaniegambe/timecard/internal/extractor/httpapi"
	_ "github.com/mellaniegambe/timecard/internal/extractor/openai"
)

var (
	// ErrNotImage is returned for uploads that are not a supported image.
	ErrNotImage = imaging.ErrNotImage
	// ErrNoExtractor is returned by Extract when no extractor option was given.
	ErrNoExtractor = pipeline.ErrNoExtractor
	// ErrNoStore is returned by the save and history calls when no backend option was given.
	ErrNoStore = pipeline.ErrNoStore
	// ErrNotFound is returned by Get for an unknown id.
	ErrNotFound = store.ErrNotFound
)

// Timecard extracts and saves time card results.
type Timecard struct {
	pipeline *pipeline.Pipeline
	close    func() error
}

// New creates a Timecard. Without an extractor option only the history calls
// work; without a backend option only Extract does.
func New(opts ...Option) (*Timecard, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var ext extractor.Extractor
	if o.provider != "" {
		var err error
		ext, err = extractor.New(extractor.Config{
			Provider: o.provider,
			Endpoint: o.endpoint,
			APIKey:   o.apiKey,
			Model:    o.model,
			Timeout:  o.timeout,
			Extra:    o.extra,
		})
		if err != nil {
			return nil, fmt.Errorf("timecard: %w", err)
		}
	}

	tc := &Timecard{close: func() error { return nil }}
	var st *store.Store
	switch {
	case o.supabaseURL != "" && o.sqlDSN != "":
		return nil, errors.New("timecard: WithSupabase and WithSQL are mutually exclusive")
	case o.supabaseURL != "":
		b, err := supabase.New(supabase.Options{URL: o.supabaseURL, Key: o.supabaseKey, Bucket: o.bucket, Table: o.table})
		if err != nil {
			return nil, fmt.Errorf("timecard: %w", err)
		}
		st = store.New(b, b)
	case o.sqlDSN != "":
		repo, err := sqlstore.Open(sqlstore.Options{Driver: o.sqlDriver, DSN: o.sqlDSN})
		if err != nil {
			return nil, fmt.Errorf("timecard: %w", err)
		}
		images, err := localfs.New(o.imagesDir, o.imagesBaseURL)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("timecard: %w", err)
		}
		st = store.New(images, repo)
		tc.close = repo.Close
	}

	tc.pipeline = pipeline.New(ext, st, nil)
	return tc, nil
}

func upload(name string, image []byte) (model.Upload, error) {
	kind, err := imaging.Sniff(image)
	if err != nil {
		return model.Upload{}, fmt.Errorf("%s: %w", name, err)
	}
	return model.Upload{Name: name, ContentType: kind.MIME, Body: image}, nil
}

// Extract reads one time card image.
func (t *Timecard) Extract(ctx context.Context, name string, image []byte) (Data, error) {
	up, err := upload(name, image)
	if err != nil {
		return Data{}, err
	}
	m, err := t.pipeline.Extract(ctx, up)
	if err != nil {
		return Data{}, err
	}
	return dataFromModel(m), nil
}

// Save stores the image and data. The returned Saved carries the public
// image URL and the backend's id.
func (t *Timecard) Save(ctx context.Context, name string, image []byte, data Data) (Saved, error) {
	up, err := upload(name, image)
	if err != nil {
		return Saved{}, err
	}
	rec, err := t.pipeline.Save(ctx, up, data.model())
	if err != nil {
		return Saved{}, err
	}
	return savedFromRecord(rec)
}

// ExtractAndSave extracts and then saves. The service's payload is stored as
// received. The extracted data is returned even when the save fails.
func (t *Timecard) ExtractAndSave(ctx context.Context, name string, image []byte) (Data, Saved, error) {
	up, err := upload(name, image)
	if err != nil {
		return Data{}, Saved{}, err
	}
	m, err := t.pipeline.Extract(ctx, up)
	if err != nil {
		return Data{}, Saved{}, err
	}
	data := dataFromModel(m)
	rec, err := t.pipeline.Save(ctx, up, m)
	if err != nil {
		return data, Saved{}, err
	}
	saved, err := savedFromRecord(rec)
	return data, saved, err
}

// History lists saved results, newest first. A zero limit uses the default
// of 50 and a negative limit lists every saved result.
func (t *Timecard) History(ctx context.Context, limit int) ([]Saved, error) {
	recs, err := t.pipeline.History(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Saved, 0, len(recs))
	for _, rec := range recs {
		s, err := savedFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// Get returns one saved result.
func (t *Timecard) Get(ctx context.Context, id string) (Saved, error) {
	rec, err := t.pipeline.Record(ctx, id)
	if err != nil {
		return Saved{}, err
	}
	return savedFromRecord(rec)
}

// Close releases the backend connection.
func (t *Timecard) Close() error {
	return errors.Join(t.pipeline.Close(), t.close())
}
