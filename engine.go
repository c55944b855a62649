package cqrs

import (
	"log/slog"

	"github.com/praxislabs/cqrs/core/authz"
	"github.com/praxislabs/cqrs/core/cache"
	"github.com/praxislabs/cqrs/core/command"
	"github.com/praxislabs/cqrs/core/metrics"
	"github.com/praxislabs/cqrs/core/query"
	"github.com/praxislabs/cqrs/core/validation"
)

// Engine exposes the assembled command and query buses.
type Engine struct {
	Commands *command.Bus
	Queries  *query.Bus
}

type engineOptions struct {
	config          Config
	logger          *slog.Logger
	cache           cache.Cache
	recorder        metrics.Recorder
	authorizer      authz.Authorizer
	schemaValidator validation.SchemaValidator
	commandOpts     []command.Option
	queryOpts       []query.Option
}

// Option configures engine assembly.
type Option func(*engineOptions)

// WithConfig overrides the default engine settings.
func WithConfig(cfg Config) Option {
	return func(o *engineOptions) {
		o.config = cfg
	}
}

// WithLogger sets the logger shared by both buses.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithCache sets the query result cache. Defaults to the in-process
// memory cache when caching is enabled.
func WithCache(c cache.Cache) Option {
	return func(o *engineOptions) {
		o.cache = c
	}
}

// WithRecorder sets the metrics sink shared by both buses.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *engineOptions) {
		o.recorder = r
	}
}

// WithAuthorizer sets the authorization backend consulted for every
// command and query.
func WithAuthorizer(a authz.Authorizer) Option {
	return func(o *engineOptions) {
		o.authorizer = a
	}
}

// WithSchemaValidator sets the structural validator run before command
// self-validation.
func WithSchemaValidator(v validation.SchemaValidator) Option {
	return func(o *engineOptions) {
		o.schemaValidator = v
	}
}

// WithCommandOptions appends extra options to the command bus, such as
// middleware.
func WithCommandOptions(opts ...command.Option) Option {
	return func(o *engineOptions) {
		o.commandOpts = append(o.commandOpts, opts...)
	}
}

// WithQueryOptions appends extra options to the query bus.
func WithQueryOptions(opts ...query.Option) Option {
	return func(o *engineOptions) {
		o.queryOpts = append(o.queryOpts, opts...)
	}
}

// New assembles the engine: shared pipeline stages, both buses, and the
// success-hook wiring that drives cache invalidation. Both registries are
// frozen, so every handler must be registered before New.
func New(commands *command.Registry, queries *query.Registry, opts ...Option) *Engine {
	o := engineOptions{
		config:   DefaultConfig(),
		logger:   slog.Default(),
		recorder: metrics.Noop{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.cache == nil && o.config.CachingEnabled {
		o.cache = cache.NewMemory()
	}

	validator := validation.NewStage(
		validation.WithSchemaValidator(o.schemaValidator),
	)

	authStageOpts := []authz.StageOption{
		authz.WithEnabled(o.config.AuthorizationEnabled),
	}
	if o.authorizer != nil {
		authStageOpts = append(authStageOpts, authz.WithAuthorizer(o.authorizer))
	}
	authorizer := authz.NewStage(authStageOpts...)

	queryOpts := []query.Option{
		query.WithAuthorizer(authorizer),
		query.WithRecorder(o.recorder),
		query.WithLogger(o.logger),
		query.WithCachingEnabled(o.config.CachingEnabled),
		query.WithDefaultTTL(o.config.QueryCacheTTL),
		query.WithTimeout(o.config.QueryTimeout),
	}
	if o.cache != nil {
		queryOpts = append(queryOpts, query.WithCache(o.cache))
	}
	queryBus := query.NewBus(queries, append(queryOpts, o.queryOpts...)...)

	maxRetries := o.config.CommandMaxRetries
	if maxRetries <= 0 {
		maxRetries = command.NoRetries
	}

	commandOpts := []command.Option{
		command.WithValidator(validator),
		command.WithAuthorizer(authorizer),
		command.WithRecorder(o.recorder),
		command.WithLogger(o.logger),
		command.WithDefaults(command.Config{
			Timeout:    o.config.CommandTimeout,
			MaxRetries: maxRetries,
			Backoff:    o.config.CommandBackoff,
		}),
		command.WithSuccessHook(queryBus.CommandCompleted),
	}
	commandBus := command.NewBus(commands, append(commandOpts, o.commandOpts...)...)

	commands.Freeze()
	queries.Freeze()

	return &Engine{
		Commands: commandBus,
		Queries:  queryBus,
	}
}

// Stop drains in-flight success hooks so pending cache invalidations
// complete before shutdown.
func (e *Engine) Stop() {
	e.Commands.Stop()
}
