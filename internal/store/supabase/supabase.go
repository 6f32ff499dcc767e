// Package supabase stores time-card images in a Supabase Storage bucket and
// extraction records in a PostgREST table.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mellaniegambe/timecard/internal/connector/httpclient"
	"github.com/mellaniegambe/timecard/internal/connector/supabase"
	"github.com/mellaniegambe/timecard/internal/model"
	"github.com/mellaniegambe/timecard/internal/store"
)

const (
	DefaultBucket = "timecards"
	DefaultTable  = "timecard_results"
)

// Options configures the backend.
type Options struct {
	URL    string
	Key    string
	Bucket string
	Table  string
}

// Backend implements store.ImageStore and store.RecordRepo.
type Backend struct {
	client *supabase.Client
	bucket string
	table  string
}

// New creates a Backend. URL and Key are required.
func New(opts Options, httpOpts ...httpclient.Option) (*Backend, error) {
	if opts.URL == "" || opts.Key == "" {
		return nil, errors.New("supabase store: url and key are required")
	}
	if opts.Bucket == "" {
		opts.Bucket = DefaultBucket
	}
	if opts.Table == "" {
		opts.Table = DefaultTable
	}
	return &Backend{
		client: supabase.New(opts.URL, opts.Key, httpOpts...),
		bucket: opts.Bucket,
		table:  opts.Table,
	}, nil
}

// Put uploads the image without overwriting and returns its public URL.
func (b *Backend) Put(ctx context.Context, name, contentType string, body []byte) (string, error) {
	if err := b.client.Upload(ctx, b.bucket, name, contentType, body, false); err != nil {
		return "", err
	}
	return b.client.PublicURL(b.bucket, name), nil
}

// row mirrors the table's columns. The id column may be a serial or a uuid.
type row struct {
	ID        json.RawMessage `json:"id,omitempty"`
	ImageURL  string          `json:"image_url"`
	Data      json.RawMessage `json:"extracted_data"`
	CreatedAt string          `json:"created_at,omitempty"`
}

func (r row) record() model.Record {
	rec := model.Record{
		ID:       idString(r.ID),
		ImageURL: r.ImageURL,
		Data:     r.Data,
	}
	if r.CreatedAt != "" {
		rec.CreatedAt = parseTime(r.CreatedAt)
	}
	return rec
}

func (b *Backend) Insert(ctx context.Context, rec model.NewRecord) (model.Record, error) {
	var rows []row
	if err := b.client.Insert(ctx, b.table, row{ImageURL: rec.ImageURL, Data: rec.Data}, &rows); err != nil {
		return model.Record{}, err
	}
	if len(rows) == 0 {
		// Some projects disable return=representation through RLS.
		return model.Record{ImageURL: rec.ImageURL, Data: rec.Data}, nil
	}
	return rows[0].record(), nil
}

func (b *Backend) List(ctx context.Context, q store.Query) ([]model.Record, error) {
	var rows []row
	params := supabase.SelectParams{Order: "created_at.desc", Limit: q.Limit}
	if err := b.client.Select(ctx, b.table, params, &rows); err != nil {
		return nil, err
	}
	out := make([]model.Record, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	return out, nil
}

func (b *Backend) Get(ctx context.Context, id string) (model.Record, error) {
	var rows []row
	params := supabase.SelectParams{Limit: 1, Eq: map[string]string{"id": id}}
	if err := b.client.Select(ctx, b.table, params, &rows); err != nil {
		var apiErr *httpclient.APIError
		// PostgREST answers 400 when the id does not parse for the column type.
		if errors.As(err, &apiErr) && apiErr.StatusCode == 400 {
			return model.Record{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return model.Record{}, err
	}
	if len(rows) == 0 {
		return model.Record{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return rows[0].record(), nil
}

func idString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return s
}

// parseTime accepts the timestamptz layouts PostgREST emits.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999-07"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
