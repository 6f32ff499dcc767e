// Package output publishes saved time-card records to downstream sinks.
package output

import (
	"context"

	"github.com/mellaniegambe/timecard/internal/model"
)

// Output receives every record after it has been saved.
type Output interface {
	Write(ctx context.Context, rec model.Record) error
	Close() error
}
