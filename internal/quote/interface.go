package quote

import (
	"context"

	"github.com/fengyix/stockmon/internal/core"
)

// Source defines the interface for quote backends
type Source interface {
	// Name returns the backend identifier (e.g., "sina", "eastmoney")
	Name() string

	// FetchQuote resolves one 6-digit code to a live quote
	FetchQuote(ctx context.Context, code string) (*core.Quote, error)
}

// BatchSource is implemented by backends that can resolve several codes in
// one upstream call. Entries come back in request order; a failure on one
// code must not invalidate its siblings.
type BatchSource interface {
	Source

	FetchBatch(ctx context.Context, codes []string) []Entry
}

// Entry is the per-code outcome of a fetch: a quote or an error, never both.
type Entry struct {
	Code  string
	Quote *core.Quote
	Err   error
}

// Priority selects which backend the combined fetcher tries first.
type Priority string

const (
	PrioritySina      Priority = "sina"
	PriorityEastmoney Priority = "eastmoney"
)
