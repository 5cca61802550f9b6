package entity

import (
	"context"
	"fmt"
)

// Snapshot is the serializable state of an instance: scalar values by
// property name and Ref values by relation handle name.
type Snapshot map[string]any

// Ref identifies related entities without embedding them. ID holds one key
// for to-one relations and a list of keys for collections.
type Ref struct {
	Entity string `msgpack:"entity" json:"entity"`
	ID     any    `msgpack:"id" json:"id"`
}

// Snapshotter is implemented by entities that describe their own versioned
// state. Entities without it are snapshotted from their accessor table and
// relation handles.
type Snapshotter interface {
	Snapshot(ctx context.Context, b *SnapshotBuilder) error
}

// SnapshotBuilder accumulates a snapshot. The first error sticks and is
// returned by Build.
type SnapshotBuilder struct {
	ctx  context.Context
	data Snapshot
	err  error
}

// NewSnapshotBuilder returns an empty builder. Collections are loaded with ctx.
func NewSnapshotBuilder(ctx context.Context) *SnapshotBuilder {
	return &SnapshotBuilder{ctx: ctx, data: Snapshot{}}
}

// Scalar records a scalar value as is.
func (b *SnapshotBuilder) Scalar(name string, v any) *SnapshotBuilder {
	b.data[name] = v
	return b
}

// One records a to-one relation by the key it points to. The related
// entity is never loaded.
func (b *SnapshotBuilder) One(name, target string, o *One) *SnapshotBuilder {
	b.data[name] = Ref{Entity: target, ID: o.Key()}
	return b
}

// Many records a collection by the keys of its members, loading the
// collection when needed. Members themselves are not walked.
func (b *SnapshotBuilder) Many(name, target string, m *Many) *SnapshotBuilder {
	if b.err != nil {
		return b
	}
	ids := []any{}
	if m != nil {
		keys, err := m.Keys(b.ctx)
		if err != nil {
			b.err = fmt.Errorf("dobee/entity: snapshot %s: %w", name, err)
			return b
		}
		ids = keys
	}
	b.data[name] = Ref{Entity: target, ID: ids}
	return b
}

// Build returns the snapshot.
func (b *SnapshotBuilder) Build() (Snapshot, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.data, nil
}
