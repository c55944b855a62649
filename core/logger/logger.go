package logger

import (
	"io"
	"log/slog"
	"os"
)

type options struct {
	level   slog.Level
	json    bool
	service string
	output  io.Writer
}

// Option configures the factory.
type Option func(*options)

// WithLevel sets the minimum level. Defaults to slog.LevelInfo.
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithJSONFormatter switches output to JSON, the production format.
func WithJSONFormatter() Option {
	return func(o *options) {
		o.json = true
	}
}

// WithService attaches a service name to every record.
func WithService(name string) Option {
	return func(o *options) {
		o.service = name
	}
}

// WithOutput redirects output. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithDevelopment configures human-readable text output at debug level
// with the given service name.
func WithDevelopment(service string) Option {
	return func(o *options) {
		o.level = slog.LevelDebug
		o.json = false
		o.service = service
	}
}

// WithProduction configures JSON output at info level with the given
// service name.
func WithProduction(service string) Option {
	return func(o *options) {
		o.level = slog.LevelInfo
		o.json = true
		o.service = service
	}
}

// New creates a slog.Logger from the options.
func New(opts ...Option) *slog.Logger {
	o := options{
		level:  slog.LevelInfo,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	handlerOpts := &slog.HandlerOptions{Level: o.level}

	var handler slog.Handler
	if o.json {
		handler = slog.NewJSONHandler(o.output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(o.output, handlerOpts)
	}

	log := slog.New(handler)
	if o.service != "" {
		log = log.With(slog.String("service", o.service))
	}
	return log
}
