package command

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// commandNameCache caches reflection results for command name lookups.
var commandNameCache sync.Map

// getCommandName derives the command name from a reflect.Type: the named
// type behind any number of pointers. Results are cached to avoid repeated
// reflection overhead.
func getCommandName(t reflect.Type) string {
	if name, ok := commandNameCache.Load(t); ok {
		return name.(string)
	}

	original := t
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	var name string
	if t.Name() != "" {
		name = t.Name()
	} else {
		name = t.String()
	}

	commandNameCache.Store(original, name)
	return name
}

// getCommandNameFromInstance returns the command name for a command value.
// Resolution uses the most-derived runtime type; there is no fallback to
// embedded or interface types.
func getCommandNameFromInstance(cmd any) string {
	return getCommandName(reflect.TypeOf(cmd))
}

// chainMiddleware applies middleware in order: the first middleware in the
// slice is the outermost (executed first).
func chainMiddleware(handler Handler, middleware []Middleware) Handler {
	// Reverse order required: wrapping innermost first makes it execute last
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	return handler
}

// safeHandle executes a handler with panic recovery, converting a panic
// into an error so one misbehaving handler cannot crash the process.
func safeHandle(handler Handler, ctx context.Context, payload any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("handler %s panicked: %v", handler.Name(), r)
		}
	}()
	return handler.Handle(ctx, payload)
}
