package changelog

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/airagroup/dobee/entity"
)

// Encode serializes a snapshot for the data column. Map keys are sorted,
// so equal snapshots encode to equal bytes.
func Encode(s entity.Snapshot) ([]byte, error) {
	if s == nil {
		s = entity.Snapshot{}
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(map[string]any(s)); err != nil {
		return nil, fmt.Errorf("dobee/changelog: encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode restores a snapshot written by Encode. Integers come back as
// int64 and relation references as entity.Ref.
func Decode(b []byte) (entity.Snapshot, error) {
	if len(b) == 0 {
		return entity.Snapshot{}, nil
	}
	var m map[string]any
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("dobee/changelog: decode snapshot: %w", err)
	}
	s := make(entity.Snapshot, len(m))
	for k, v := range m {
		s[k] = normalize(v)
	}
	return s, nil
}

func normalize(v any) any {
	switch v := v.(type) {
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = normalize(v[i])
		}
		return out
	case map[string]any:
		if ref, ok := asRef(v); ok {
			return ref
		}
		out := make(map[string]any, len(v))
		for k, x := range v {
			out[k] = normalize(x)
		}
		return out
	default:
		return v
	}
}

func asRef(m map[string]any) (entity.Ref, bool) {
	if len(m) != 2 {
		return entity.Ref{}, false
	}
	name, ok := m["entity"].(string)
	if !ok {
		return entity.Ref{}, false
	}
	id, ok := m["id"]
	if !ok {
		return entity.Ref{}, false
	}
	return entity.Ref{Entity: name, ID: normalize(id)}, true
}
