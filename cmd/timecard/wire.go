package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mellaniegambe/timecard/internal/config"
	"github.com/mellaniegambe/timecard/internal/extractor"
	"github.com/mellaniegambe/timecard/internal/output"
	"github.com/mellaniegambe/timecard/internal/output/amqp"
	"github.com/mellaniegambe/timecard/internal/output/async"
	"github.com/mellaniegambe/timecard/internal/output/file"
	"github.com/mellaniegambe/timecard/internal/output/multi"
	"github.com/mellaniegambe/timecard/internal/output/stdout"
	"github.com/mellaniegambe/timecard/internal/output/webhook"
	"github.com/mellaniegambe/timecard/internal/pipeline"
	"github.com/mellaniegambe/timecard/internal/store"
	"github.com/mellaniegambe/timecard/internal/store/localfs"
	"github.com/mellaniegambe/timecard/internal/store/sqlstore"
	"github.com/mellaniegambe/timecard/internal/store/supabase"

	// Register extractor implementations.
	_ "github.com/mellaniegambe/timecard/internal/extractor/httpapi"
	_ "github.com/mellaniegambe/timecard/internal/extractor/openai"
)

// app holds the wired components for one command invocation.
type app struct {
	pipeline  *pipeline.Pipeline
	imagesDir string
	closers   []func() error
}

func (a *app) Close() error {
	errs := []error{a.pipeline.Close()}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// build validates and wires the parts a command uses. Outputs are always
// built; the extractor and the store only when selected.
func build(cfg config.Config, parts config.Part) (*app, error) {
	if err := cfg.Check(parts); err != nil {
		return nil, err
	}
	a := &app{}

	var ext extractor.Extractor
	if parts&config.PartExtractor != 0 {
		var err error
		if ext, err = buildExtractor(cfg.Extractor); err != nil {
			return nil, err
		}
	}

	kind := cfg.Backend.Kind
	if parts&config.PartBackend == 0 {
		kind = "none"
	}
	var st *store.Store
	switch kind {
	case "supabase":
		b, err := supabase.New(supabase.Options{
			URL:    cfg.Backend.Supabase.URL,
			Key:    cfg.Backend.Supabase.Key,
			Bucket: cfg.Backend.Supabase.Bucket,
			Table:  cfg.Backend.Supabase.Table,
		})
		if err != nil {
			return nil, err
		}
		st = store.New(b, b)
	case "sql":
		repo, err := sqlstore.Open(sqlstore.Options{
			Driver:          cfg.Backend.SQL.Driver,
			DSN:             cfg.Backend.SQL.DSN,
			LogLevel:        cfg.Backend.SQL.LogLevel,
			MaxOpenConns:    cfg.Backend.SQL.MaxOpenConns,
			MaxIdleConns:    cfg.Backend.SQL.MaxIdleConns,
			ConnMaxLifetime: cfg.Backend.SQL.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, repo.Close)
		images, err := localfs.New(cfg.Backend.Images.Dir, cfg.Backend.Images.BaseURL)
		if err != nil {
			repo.Close()
			return nil, err
		}
		a.imagesDir = images.Dir()
		st = store.New(images, repo)
	}

	out, err := buildOutput(cfg.Output)
	if err != nil {
		for _, c := range a.closers {
			c()
		}
		return nil, err
	}

	slog.Debug("components wired",
		"extractor", cfg.Extractor.Provider,
		"backend", cfg.Backend.Kind,
		"output", out != nil,
	)
	a.pipeline = pipeline.New(ext, st, out)
	return a, nil
}

func buildExtractor(cfg config.ExtractorConfig) (extractor.Extractor, error) {
	if cfg.Provider == "" || cfg.Provider == "none" {
		return nil, nil
	}
	ext, err := extractor.New(extractor.Config{
		Provider: cfg.Provider,
		Endpoint: cfg.Endpoint,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		Timeout:  cfg.Timeout,
		Extra:    cfg.Extra(),
	})
	if err != nil {
		return nil, fmt.Errorf("extractor: %w", err)
	}
	return ext, nil
}

// buildOutput returns nil when no sink is configured.
func buildOutput(cfg config.OutputConfig) (output.Output, error) {
	v, err := output.ParseVerbosity(cfg.Verbosity)
	if err != nil {
		return nil, err
	}

	var outs []output.Output
	closeAll := func() {
		for _, o := range outs {
			o.Close()
		}
	}

	if cfg.Stdout {
		outs = append(outs, stdout.New(v, cfg.Pretty))
	}
	if cfg.File != "" {
		var opts []file.Option
		if cfg.FileMaxSize > 0 {
			opts = append(opts, file.WithMaxSize(cfg.FileMaxSize))
		}
		f, err := file.New(cfg.File, v, opts...)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("file output: %w", err)
		}
		outs = append(outs, f)
	}
	if cfg.WebhookURL != "" {
		outs = append(outs, webhook.New(cfg.WebhookURL,
			webhook.WithHeaders(cfg.WebhookHeaders),
			webhook.WithVerbosity(v),
		))
	}
	if cfg.AMQPURL != "" {
		q, err := amqp.Dial(cfg.AMQPURL, cfg.AMQPQueue, v)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("amqp output: %w", err)
		}
		outs = append(outs, q)
	}

	var out output.Output
	switch len(outs) {
	case 0:
		return nil, nil
	case 1:
		out = outs[0]
	default:
		out = multi.New(outs...)
	}
	if cfg.Async {
		var opts []async.Option
		if cfg.BufferSize > 0 {
			opts = append(opts, async.WithBufferSize(cfg.BufferSize))
		}
		out = async.New(out, opts...)
	}
	return out, nil
}
