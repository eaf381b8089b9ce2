// Package accrue folds OpenRouter generation costs into per-session totals,
// counting each generation exactly once across repeated invocations.
package accrue

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/theirongolddev/orline/internal/history"
	"github.com/theirongolddev/orline/internal/openrouter"
	"github.com/theirongolddev/orline/internal/state"
	"github.com/theirongolddev/orline/internal/transcript"
)

// GenerationFetcher resolves a generation id to its billing record.
type GenerationFetcher interface {
	FetchGeneration(ctx context.Context, id string) (openrouter.Generation, error)
}

// CreditFetcher resolves the account credit snapshot.
type CreditFetcher interface {
	FetchCredits(ctx context.Context) (openrouter.Credits, error)
}

// Fetcher is the billing API surface the engine needs.
type Fetcher interface {
	GenerationFetcher
	CreditFetcher
}

// StateStore loads and saves session records.
type StateStore interface {
	Load(sessionID string) state.Record
	Save(sessionID string, rec state.Record) error
}

// Recorder receives every generation folded into a session.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Engine reconciles a transcript against stored session totals.
type Engine struct {
	store    StateStore
	fetcher  Fetcher
	recorder Recorder
	extract  func(path string) []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder appends folded generations to r. Recorder failures are logged
// and never affect the totals.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithExtractor replaces the transcript id extractor.
func WithExtractor(fn func(path string) []string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.extract = fn
		}
	}
}

// New creates an engine over store and fetcher.
func New(store StateStore, fetcher Fetcher, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		fetcher: fetcher,
		extract: transcript.ExtractGenerationIDs,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile loads the session record, folds in every generation from the
// transcript that has not been counted yet, saves the result and returns a
// summary for display. Generations whose fetch fails stay unseen and are
// retried on the next call. Only a failed save is returned as an error.
func (e *Engine) Reconcile(ctx context.Context, sessionID, transcriptPath string) (Summary, error) {
	rec := e.store.Load(sessionID)
	pending := Pending(rec, e.extract(transcriptPath))

	next, failed := e.accumulate(ctx, sessionID, rec, pending)

	if err := e.store.Save(sessionID, next); err != nil {
		return Summary{}, fmt.Errorf("saving session state: %w", err)
	}

	sum := Summary{
		Model:         ShortModelName(next.LastModel),
		Provider:      next.LastProvider,
		TotalCost:     next.TotalCost,
		CacheDiscount: next.TotalCacheDiscount,
		New:           len(pending),
		Failed:        failed,
		Status:        statusFor(len(pending), failed),
		Record:        next,
	}
	sum.Credits, sum.CreditsKnown = e.remainingCredits(ctx)

	log.Debug().
		Str("session", sessionID).
		Int("new", sum.New).
		Int("failed", sum.Failed).
		Float64("total_cost", sum.TotalCost).
		Msg("reconciled")

	return sum, nil
}

// accumulate fetches pending ids one at a time, in order, folding each
// success into a new record value.
func (e *Engine) accumulate(ctx context.Context, sessionID string, rec state.Record, pending []string) (state.Record, int) {
	failed := 0
	for _, id := range pending {
		gen, err := e.fetcher.FetchGeneration(ctx, id)
		if err != nil {
			failed++
			log.Warn().Err(err).Str("session", sessionID).Str("generation", id).Msg("generation fetch failed, will retry")
			continue
		}

		rec = rec.Fold(state.Entry{
			ID:            id,
			Cost:          gen.TotalCost,
			CacheDiscount: gen.CacheDiscount,
			Provider:      gen.ProviderName,
			Model:         gen.Model,
		})
		e.record(ctx, sessionID, id, gen)
	}
	return rec, failed
}

func (e *Engine) record(ctx context.Context, sessionID, id string, gen openrouter.Generation) {
	if e.recorder == nil {
		return
	}
	err := e.recorder.Record(ctx, history.Entry{
		SessionID:     sessionID,
		GenerationID:  id,
		Provider:      gen.ProviderName,
		Model:         gen.Model,
		TotalCost:     gen.TotalCost,
		CacheDiscount: gen.CacheDiscount,
	})
	if err != nil {
		log.Warn().Err(err).Str("generation", id).Msg("history record failed")
	}
}

func (e *Engine) remainingCredits(ctx context.Context) (float64, bool) {
	cr, err := e.fetcher.FetchCredits(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("credit fetch failed")
		return 0, false
	}
	rem := cr.Remaining()
	if math.IsNaN(rem) || math.IsInf(rem, 0) {
		return 0, false
	}
	return rem, true
}

// Pending returns the ids not yet folded into rec, preserving their order.
func Pending(rec state.Record, ids []string) []string {
	seen := rec.Seen()
	var out []string
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func statusFor(newIDs, failed int) Status {
	switch {
	case newIDs == 0:
		return StatusIdle
	case failed == 0:
		return StatusUpdated
	default:
		return StatusRetrying
	}
}
