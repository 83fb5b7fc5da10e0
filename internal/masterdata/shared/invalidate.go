package shared

import "context"

// Invalidator is notified after catalog mutations so cached aggregates
// (dashboard counts and breakdowns) are recomputed on the next read.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// NopInvalidator ignores bumps.
type NopInvalidator struct{}

// Bump implements Invalidator.
func (NopInvalidator) Bump(context.Context) error { return nil }
