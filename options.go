package hquery

import (
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hquery/internal/dom"
	"github.com/GriffinCanCode/hquery/internal/parser"
)

// Recorder receives query and document measurements. The Prometheus
// collector in internal/infrastructure/monitoring implements it.
type Recorder interface {
	RecordQuery(status, kind string, duration time.Duration, results int)
	RecordDocument(source string, size int64)
}

type nopRecorder struct{}

func (nopRecorder) RecordQuery(string, string, time.Duration, int) {}
func (nopRecorder) RecordDocument(string, int64)                   {}

type options struct {
	log      *zap.Logger
	recorder Recorder
	maxDepth int
	maxSize  int64
	sanitize bool
}

func defaultOptions() options {
	return options{
		log:      zap.NewNop(),
		recorder: nopRecorder{},
		maxDepth: parser.DefaultMaxDepth,
		maxSize:  dom.DefaultMaxSize,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a Query
type Option func(*options)

// WithLogger sets the logger used for debug tracing
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithRecorder reports measurements to r
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithMaxDepth limits parenthesis nesting in queries
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithMaxSize limits the HTML input size in bytes, after decompression
func WithMaxSize(n int64) Option {
	return func(o *options) { o.maxSize = n }
}

// WithSanitize strips scripts, styles and event handlers before parsing
func WithSanitize() Option {
	return func(o *options) { o.sanitize = true }
}
