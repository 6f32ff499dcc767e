package extractor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mellaniegambe/timecard/internal/model"
)

// Extractor turns one time-card image into structured data.
type Extractor interface {
	Extract(ctx context.Context, up model.Upload) (model.ExtractedData, error)
}

// Config holds provider-specific connection settings.
type Config struct {
	Provider string
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
	Extra    map[string]string
}

// Constructor builds an Extractor from its config.
type Constructor func(cfg Config) (Extractor, error)

var registry = map[string]Constructor{}

// Register adds an extractor constructor under the given provider name.
func Register(name string, ctor Constructor) {
	registry[name] = ctor
}

// Get returns the extractor constructor for the given provider name.
func Get(name string) (Constructor, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown extractor provider: %s", name)
	}
	return ctor, nil
}

// New resolves cfg.Provider and constructs the extractor.
func New(cfg Config) (Extractor, error) {
	ctor, err := Get(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return ctor(cfg)
}

// Providers returns the names of all registered providers, sorted.
func Providers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Func adapts a function to the Extractor interface.
type Func func(ctx context.Context, up model.Upload) (model.ExtractedData, error)

func (f Func) Extract(ctx context.Context, up model.Upload) (model.ExtractedData, error) {
	return f(ctx, up)
}
