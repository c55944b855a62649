package query

import (
	"fmt"
	"reflect"
	"strings"
)

// cacheKey computes the cache key for a query instance. An explicit
// CacheKeyer key wins; otherwise the key is the query name plus the
// configured key fields (all exported fields when none are configured) in
// a stable order, so equal queries always share a key.
func cacheKey(name string, q any, cfg Config) (string, error) {
	if keyer, ok := q.(CacheKeyer); ok {
		if key := keyer.CacheKey(); key != "" {
			return key, nil
		}
	}

	fields := cfg.KeyFields
	if len(fields) == 0 {
		var err error
		fields, err = structFields(q)
		if err != nil {
			return "", fmt.Errorf("query %s: %w", name, err)
		}
	}

	return composeKey(name, fields, func(field string) (string, bool) {
		return fieldValue(q, field)
	})
}

// evictionKey recomputes a registration's cache key from an evicting
// command's fields, per the rule's field mapping. Requires explicit key
// fields: without them the key shape depends on the query type, which the
// command cannot supply.
func evictionKey(name string, cfg Config, rule EvictionRule, cmd any) (string, error) {
	if len(cfg.KeyFields) == 0 {
		return "", fmt.Errorf("query %s: eviction by command %s requires explicit cache key fields", name, rule.Command)
	}

	return composeKey(name, cfg.KeyFields, func(field string) (string, bool) {
		source := field
		if mapped, ok := rule.Fields[field]; ok {
			source = mapped
		}
		return fieldValue(cmd, source)
	})
}

// composeKey builds "Name:field=value:field=value" with values resolved
// through lookup.
func composeKey(name string, fields []string, lookup func(string) (string, bool)) (string, error) {
	var b strings.Builder
	b.WriteString(name)

	for _, field := range fields {
		value, ok := lookup(field)
		if !ok {
			return "", fmt.Errorf("query %s: cache key field %s not found", name, field)
		}
		b.WriteByte(':')
		b.WriteString(field)
		b.WriteByte('=')
		b.WriteString(value)
	}

	return b.String(), nil
}

// structFields returns the exported field names of a struct value in
// declaration order.
func structFields(v any) ([]string, error) {
	rt := reflect.TypeOf(v)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cache key derivation requires a struct, got %T", v)
	}

	var fields []string
	for i := range rt.NumField() {
		f := rt.Field(i)
		if f.IsExported() {
			fields = append(fields, f.Name)
		}
	}
	return fields, nil
}

// fieldValue reads a struct field as its default string rendering.
func fieldValue(v any, field string) (string, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return "", false
	}

	fv := rv.FieldByName(field)
	if !fv.IsValid() || !fv.CanInterface() {
		return "", false
	}
	return fmt.Sprintf("%v", fv.Interface()), true
}
