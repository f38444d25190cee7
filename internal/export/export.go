// Package export delivers parsed records to the destination named by a file
// definition's export definition.
//
// Every sink receives the same envelope, a record.Result, which serialises as
//
//	{"file_name": "...", "records": [{...}, ...]}
//
// Exporters are created once per definition run and closed when the run ends.
package export

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/fileripper/internal/definition"
	"github.com/JonMunkholm/fileripper/internal/record"
)

// Exporter sends one file's records to a destination.
type Exporter interface {
	Export(ctx context.Context, result record.Result) error
	Close() error
}

// Options carries process-wide settings the export definition does not hold.
type Options struct {
	// HTTPClient is used by API exporters. Nil means a client with HTTPTimeout.
	HTTPClient     *http.Client
	HTTPTimeout    time.Duration
	DBTimeout      time.Duration
	PublishTimeout time.Duration
	S3             S3Config
	Logger         *slog.Logger
}

// S3Config locates the object store used for s3:// output paths.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Factory creates the exporter for an export definition.
type Factory func(ctx context.Context, def definition.ExportDefinition) (Exporter, error)

// NewFactory binds opts to New.
func NewFactory(opts Options) Factory {
	return func(ctx context.Context, def definition.ExportDefinition) (Exporter, error) {
		return New(ctx, def, opts)
	}
}

// New returns the exporter for def. Database and queue exporters connect
// here, so a bad connection string fails before any input file is touched.
func New(ctx context.Context, def definition.ExportDefinition, opts Options) (Exporter, error) {
	opts = opts.withDefaults()

	switch def.Type {
	case definition.ExportAPI:
		return newAPI(def, opts), nil
	case definition.ExportDatabase:
		return newDatabase(ctx, def, opts)
	case definition.ExportFile:
		return newFile(ctx, def, opts)
	case definition.ExportQueue:
		q, err := newQueue(def, opts)
		if err != nil {
			return nil, err
		}
		return q, nil
	default:
		return nil, unsupported("export_type %q", def.Type)
	}
}

func (o Options) withDefaults() Options {
	if o.HTTPTimeout <= 0 {
		o.HTTPTimeout = 30 * time.Second
	}
	if o.DBTimeout <= 0 {
		o.DBTimeout = 60 * time.Second
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = 10 * time.Second
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.HTTPTimeout}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
