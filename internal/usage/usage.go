// Package usage records best-effort hit counts for mappings.
package usage

import (
	"context"
)

// Recorder counts one hit against a mapping id. Callers ignore failures.
type Recorder interface {
	Record(ctx context.Context, id string) error
}

// Incrementer is the store capability a flush needs.
type Incrementer interface {
	IncrementUsed(ctx context.Context, id string, delta int64) error
}

// Direct increments the store on every hit.
type Direct struct {
	Store Incrementer
}

func NewDirect(s Incrementer) *Direct {
	return &Direct{Store: s}
}

func (d *Direct) Record(ctx context.Context, id string) error {
	return d.Store.IncrementUsed(ctx, id, 1)
}
