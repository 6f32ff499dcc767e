// Package store persists time-card images and extraction records.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mellaniegambe/timecard/internal/imaging"
	"github.com/mellaniegambe/timecard/internal/model"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// ImageStore keeps uploaded images and hands back a public URL.
type ImageStore interface {
	Put(ctx context.Context, name, contentType string, body []byte) (url string, err error)
}

// RecordRepo stores extraction records.
type RecordRepo interface {
	Insert(ctx context.Context, rec model.NewRecord) (model.Record, error)
	List(ctx context.Context, q Query) ([]model.Record, error)
	Get(ctx context.Context, id string) (model.Record, error)
}

// Query narrows a history listing. Records always come back newest first.
type Query struct {
	Limit int // 0 means no limit
}

// Store pairs an image store with a record repo.
type Store struct {
	Images  ImageStore
	Records RecordRepo

	now func() time.Time
}

// New creates a Store.
func New(images ImageStore, records RecordRepo) *Store {
	return &Store{Images: images, Records: records, now: time.Now}
}

// Save uploads the image, then inserts a record pointing at its public URL.
func (s *Store) Save(ctx context.Context, up model.Upload, data model.ExtractedData) (model.Record, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return model.Record{}, fmt.Errorf("store: marshal extracted data: %w", err)
	}

	name := ObjectName(up, s.now())
	ct := up.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	url, err := s.Images.Put(ctx, name, ct, up.Body)
	if err != nil {
		return model.Record{}, fmt.Errorf("store: upload image: %w", err)
	}

	rec, err := s.Records.Insert(ctx, model.NewRecord{ImageURL: url, Data: payload})
	if err != nil {
		return model.Record{}, fmt.Errorf("store: insert record: %w", err)
	}
	return rec, nil
}

// ObjectName builds the unique storage key "{unix millis}-{uuid}.{ext}".
func ObjectName(up model.Upload, now time.Time) string {
	kind, _ := imaging.Sniff(up.Body)
	ext := imaging.Extension(up.Name, kind)
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString() + "." + ext
}
