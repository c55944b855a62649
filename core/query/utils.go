package query

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// queryNameCache caches reflection results for query name lookups.
var queryNameCache sync.Map

// getQueryName derives the query name from a reflect.Type: the named type
// behind any number of pointers. Results are cached.
func getQueryName(t reflect.Type) string {
	if name, ok := queryNameCache.Load(t); ok {
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

	queryNameCache.Store(original, name)
	return name
}

// getQueryNameFromInstance returns the query name for a query value.
// Resolution uses the most-derived runtime type.
func getQueryNameFromInstance(q any) string {
	return getQueryName(reflect.TypeOf(q))
}

// chainMiddleware applies middleware in order: the first middleware in the
// slice is the outermost (executed first).
func chainMiddleware(handler Handler, middleware []Middleware) Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	return handler
}

// safeHandle executes a handler with panic recovery.
func safeHandle(handler Handler, ctx context.Context, payload any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("handler %s panicked: %v", handler.Name(), r)
		}
	}()
	return handler.Handle(ctx, payload)
}
