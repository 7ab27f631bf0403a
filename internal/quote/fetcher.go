package quote

import (
	"context"
	"fmt"

	"github.com/fengyix/stockmon/internal/core"
	"go.uber.org/zap"
)

// Fetcher resolves codes to live quotes with deterministic fallback:
// the preferred backend first, the other on failure, and a per-code error
// entry when both fail. It never returns a fault for the whole batch.
type Fetcher struct {
	sina      Source
	eastmoney Source
	logger    *zap.Logger
}

// NewFetcher creates a combined fetcher over the two backends.
func NewFetcher(sina, eastmoney Source, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		sina:      sina,
		eastmoney: eastmoney,
		logger:    logger,
	}
}

// ordered returns the backends in preference order for the given priority.
func (f *Fetcher) ordered(priority Priority) []Source {
	if priority == PriorityEastmoney {
		return []Source{f.eastmoney, f.sina}
	}
	return []Source{f.sina, f.eastmoney}
}

// Fetch resolves one code, trying the preferred backend first.
func (f *Fetcher) Fetch(ctx context.Context, code string, priority Priority) (*core.Quote, error) {
	if err := ValidateCode(code); err != nil {
		return nil, err
	}
	return f.fetchFrom(ctx, f.ordered(priority), code)
}

// FetchAll resolves several codes independently. The returned entries match
// the input order; a failed code carries an error entry and never blocks or
// discards its siblings.
func (f *Fetcher) FetchAll(ctx context.Context, codes []string, priority Priority) []Entry {
	entries := make([]Entry, len(codes))
	slot := make(map[string][]int, len(codes))

	pending := make([]string, 0, len(codes))
	for i, code := range codes {
		entries[i].Code = code
		if err := ValidateCode(code); err != nil {
			entries[i].Err = err
			continue
		}
		if len(slot[code]) == 0 {
			pending = append(pending, code)
		}
		slot[code] = append(slot[code], i)
	}
	if len(pending) == 0 {
		return entries
	}

	sources := f.ordered(priority)

	// One upstream call for the whole batch when the preferred backend
	// supports it; anything it misses falls through per code.
	if batch, ok := sources[0].(BatchSource); ok {
		for _, got := range batch.FetchBatch(ctx, pending) {
			idxs, known := slot[got.Code]
			if !known {
				continue
			}
			if got.Err == nil && got.Quote.IsValid() {
				for _, i := range idxs {
					entries[i].Quote = got.Quote
				}
				delete(slot, got.Code)
				continue
			}
			if got.Err != nil {
				for _, i := range idxs {
					entries[i].Err = got.Err
				}
			}
		}
		rest := pending[:0]
		for _, code := range pending {
			if _, still := slot[code]; still {
				rest = append(rest, code)
			}
		}
		pending = rest
		sources = sources[1:]
	}

	for _, code := range pending {
		q, err := f.fetchFrom(ctx, sources, code)
		for _, i := range slot[code] {
			if err != nil {
				entries[i].Err = err
				entries[i].Quote = nil
			} else {
				entries[i].Quote = q
				entries[i].Err = nil
			}
		}
	}

	return entries
}

func (f *Fetcher) fetchFrom(ctx context.Context, sources []Source, code string) (*core.Quote, error) {
	var lastErr error
	for _, s := range sources {
		if s == nil {
			continue
		}
		q, err := s.FetchQuote(ctx, code)
		if err == nil && q.IsValid() {
			return q, nil
		}
		if err == nil {
			err = core.WrapError(core.ErrSourceFailed,
				fmt.Errorf("%s: quote price %v is not usable", s.Name(), q.Price))
		}
		f.logger.Debug("backend failed",
			zap.String("source", s.Name()),
			zap.String("code", code),
			zap.Error(err),
		)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = core.ErrSourceUnavailable
	}
	return nil, lastErr
}
