// Package httpapi posts time-card images to an HTTP extraction endpoint as
// multipart form data.
package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"time"

	"github.com/mellaniegambe/timecard/internal/connector/httpclient"
	"github.com/mellaniegambe/timecard/internal/extractor"
	"github.com/mellaniegambe/timecard/internal/model"
)

const (
	defaultField   = "file"
	defaultTimeout = 2 * time.Minute
)

func init() {
	extractor.Register("http", func(cfg extractor.Config) (extractor.Extractor, error) {
		return New(cfg)
	})
}

// Extractor sends each image to the endpoint and decodes the returned JSON.
type Extractor struct {
	client *httpclient.Client
	field  string
}

// New creates an Extractor. cfg.Endpoint is the full URL of the extraction
// endpoint; cfg.Extra["field"] overrides the multipart field name.
func New(cfg extractor.Config) (*Extractor, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("httpapi: missing endpoint")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	field := cfg.Extra["field"]
	if field == "" {
		field = defaultField
	}
	return &Extractor{
		client: httpclient.New(cfg.Endpoint, cfg.APIKey, httpclient.WithTimeout(timeout)),
		field:  field,
	}, nil
}

func (e *Extractor) Extract(ctx context.Context, up model.Upload) (model.ExtractedData, error) {
	body, contentType, err := e.form(up)
	if err != nil {
		return model.ExtractedData{}, fmt.Errorf("httpapi: %w", err)
	}

	var raw []byte
	if err := e.client.Post(ctx, "", contentType, body, nil, &raw); err != nil {
		return model.ExtractedData{}, fmt.Errorf("httpapi: %w", err)
	}
	d, err := model.ParseExtracted(raw)
	if err != nil {
		return model.ExtractedData{}, fmt.Errorf("httpapi: %w", err)
	}
	return d, nil
}

func (e *Extractor) form(up model.Upload) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, e.field, up.Name))
	ct := up.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(up.Body); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
