// Package cqrs assembles the command and query buses into a single
// dispatch engine with shared logging, caching, metrics, and
// authorization.
//
// The engine routes each request to exactly one handler through a fixed
// pipeline. Commands run validate → authorize → execute, with per-command
// retry, backoff, and timeout policy. Queries run authorize →
// cache-lookup → execute → cache-populate, with declarative cache
// invalidation driven by command completions.
//
// # Usage Example
//
//	commands := command.NewRegistry()
//	commands.MustRegister(command.NewHandlerFunc(handleTransfer),
//		command.WithMaxRetries(3),
//	)
//
//	queries := query.NewRegistry()
//	queries.MustRegister(query.NewHandlerFunc(handleGetBalance),
//		query.WithKeyFields("AccountID"),
//		query.WithEvictOn(query.EvictionRule{
//			Command: "TransferFunds",
//			Fields:  map[string]string{"AccountID": "SourceAccount"},
//		}),
//	)
//
//	engine := cqrs.New(commands, queries)
//	defer engine.Stop()
//
//	receipt, err := engine.Commands.Send(ctx, TransferFunds{...}).Await()
//	balance, err := engine.Queries.Query(ctx, GetBalance{AccountID: "A1"}).Await()
//
// New freezes both registries: all handlers must be registered before
// assembly, and dispatch reads take no locks afterwards.
package cqrs
