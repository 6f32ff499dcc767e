// Package webhook notifies an HTTP endpoint about saved time-card records.
package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mellaniegambe/timecard/internal/connector/httpclient"
	"github.com/mellaniegambe/timecard/internal/model"
	"github.com/mellaniegambe/timecard/internal/output"
)

const (
	defaultBatchSize     = 10
	defaultFlushInterval = 5 * time.Second
	defaultTimeout       = 10 * time.Second
)

// Option configures a webhook Output.
type Option func(*Output)

// WithHeaders adds headers to every notification, e.g. a shared secret.
func WithHeaders(h map[string]string) Option {
	return func(o *Output) { o.headers = h }
}

// WithBatchSize sets how many saved records go into one notification. Default: 10.
func WithBatchSize(n int) Option {
	return func(o *Output) { o.batchSize = n }
}

// WithFlushInterval bounds how long a saved record waits for its batch to fill. Default: 5s.
func WithFlushInterval(d time.Duration) Option {
	return func(o *Output) { o.flushInterval = d }
}

// WithTimeout bounds each delivery attempt. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *Output) { o.timeout = d }
}

// WithVerbosity sets how much of each record is sent. Default: Standard.
func WithVerbosity(v output.Verbosity) Option {
	return func(o *Output) { o.verbosity = v }
}

// WithOnError receives delivery failures of batches sent from the timer.
// Default: a slog warning.
func WithOnError(f func(error)) Option {
	return func(o *Output) { o.errFunc = f }
}

// Output sends saved records to a receiver as a JSON array of messages.
// Receivers should key on the message id: a batch is redelivered when the
// receiver answers 429 or 5xx.
type Output struct {
	client        *httpclient.Client
	headers       map[string]string
	timeout       time.Duration
	batchSize     int
	flushInterval time.Duration
	verbosity     output.Verbosity
	errFunc       func(error)

	mu      sync.Mutex
	pending []output.Message
	timer   *time.Timer
}

// New creates an Output delivering to url.
func New(url string, opts ...Option) *Output {
	o := &Output{
		timeout:       defaultTimeout,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		verbosity:     output.Standard,
		errFunc:       func(err error) { slog.Warn("webhook delivery failed", "error", err) },
	}
	for _, opt := range opts {
		opt(o)
	}
	o.client = httpclient.New(url, "", httpclient.WithTimeout(o.timeout))
	return o
}

// Write queues the record's message. A full batch is delivered at once;
// otherwise the first message of a batch starts the flush timer.
func (o *Output) Write(ctx context.Context, rec model.Record) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.pending = append(o.pending, output.Format(rec, o.verbosity))
	if len(o.pending) >= o.batchSize {
		return o.deliverLocked(ctx)
	}
	if len(o.pending) == 1 {
		o.timer = time.AfterFunc(o.flushInterval, func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if err := o.deliverLocked(context.Background()); err != nil {
				o.errFunc(err)
			}
		})
	}
	return nil
}

// Close delivers whatever is still queued.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.deliverLocked(context.Background())
}

// deliverLocked sends the queued messages. Caller must hold o.mu.
func (o *Output) deliverLocked(ctx context.Context) error {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	if len(o.pending) == 0 {
		return nil
	}
	batch := o.pending
	o.pending = nil

	if err := o.client.DeliverJSON(ctx, "", batch, o.headers); err != nil {
		return fmt.Errorf("webhook: deliver %d record(s): %w", len(batch), err)
	}
	return nil
}
