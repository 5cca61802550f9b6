// Package changelog keeps the append-only version history of loggable
// entities. Every save appends one immutable record holding the action,
// the actor, a monotonically increasing version number per entity instance
// and a snapshot of the instance.
package changelog

import (
	"fmt"
	"time"

	"github.com/airagroup/dobee/dialect/sql"
	"github.com/airagroup/dobee/entity"
	"github.com/airagroup/dobee/schema"
)

// DefaultTable is the table version records are stored in.
const DefaultTable = "log_storage"

// Action is the kind of write a record logs.
type Action string

// Logged actions.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Version is one stored record.
type Version struct {
	ID          int64
	EntityClass string
	EntityID    string
	Number      int64
	Action      Action
	// RawBlame is the stored actor key, Blame a lazy proxy to the actor
	// when it can be resolved.
	RawBlame any
	Blame    *entity.One
	LoggedAt time.Time
	Data     entity.Snapshot
}

// BlameFunc returns the proxy of the actor stored on a record, or nil.
type BlameFunc func(raw any) *entity.One

func scanVersion(row sql.Row, blame BlameFunc) (*Version, error) {
	var (
		v   = &Version{RawBlame: row["blame"]}
		err error
	)
	if v.ID, err = schema.ToInt64(row["id"]); err != nil {
		return nil, fmt.Errorf("dobee/changelog: id: %w", err)
	}
	if v.Number, err = schema.ToInt64(row["version"]); err != nil {
		return nil, fmt.Errorf("dobee/changelog: version: %w", err)
	}
	v.EntityClass, _ = entity.Convert[string](row["entity_class"])
	v.EntityID = schema.KeyString(row["entity_id"])
	action, _ := entity.Convert[string](row["action_type"])
	v.Action = Action(action)
	if v.LoggedAt, err = entity.Convert[time.Time](row["logged_at"]); err != nil {
		return nil, fmt.Errorf("dobee/changelog: logged_at: %w", err)
	}
	if data, ok := row["data"]; ok && data != nil {
		raw, err := entity.Convert[string](data)
		if err != nil {
			return nil, err
		}
		if v.Data, err = Decode([]byte(raw)); err != nil {
			return nil, err
		}
	}
	if blame != nil && v.RawBlame != nil {
		v.Blame = blame(v.RawBlame)
	}
	return v, nil
}
