package main

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// The persisted document is shared with other clients that may write fields
// this server does not know about. These helpers carry such fields through a
// decode/encode cycle untouched.

var knownFieldsCache sync.Map // reflect.Type -> map[string]bool

// knownFields returns the JSON names of t's exported struct fields.
func knownFields(t reflect.Type) map[string]bool {
	if cached, ok := knownFieldsCache.Load(t); ok {
		return cached.(map[string]bool)
	}
	names := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			if tag == "-" {
				continue
			}
			if n, _, _ := strings.Cut(tag, ","); n != "" {
				name = n
			}
		}
		names[name] = true
	}
	knownFieldsCache.Store(t, names)
	return names
}

// unmarshalWithExtra decodes b into the struct pointed to by v and returns
// every top-level member that v has no field for. Returns nil when there are none.
func unmarshalWithExtra(b []byte, v any) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(b, v); err != nil {
		return nil, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	known := knownFields(reflect.TypeOf(v).Elem())
	var extra map[string]json.RawMessage
	for k, raw := range all {
		if known[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = raw
	}
	return extra, nil
}

// marshalWithExtra encodes v and merges extra back in. Fields of v win on
// name collisions.
func marshalWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, exists := merged[k]; !exists {
			merged[k] = raw
		}
	}
	return json.Marshal(merged)
}
