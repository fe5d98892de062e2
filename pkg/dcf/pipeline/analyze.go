package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stex99/dcf-tool/pkg/dcf/apperrors"
	"github.com/stex99/dcf-tool/pkg/dcf/diag"
	"github.com/stex99/dcf-tool/pkg/dcf/fcf"
	"github.com/stex99/dcf-tool/pkg/dcf/market"
	"github.com/stex99/dcf-tool/pkg/dcf/portfolio"
	"github.com/stex99/dcf-tool/pkg/dcf/source"
	"github.com/stex99/dcf-tool/pkg/dcf/store"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
	"github.com/stex99/dcf-tool/pkg/dcf/valuation"
)

const (
	DefaultWorkers = 4
	DefaultTimeout = 10 * time.Second
)

// Archiver persists finished runs.
type Archiver interface {
	SaveRun(ctx context.Context, run store.Run) error
}

// Analyzer values a batch of holdings. It is safe for concurrent use; every
// call builds its own cache, resolver and diagnostic log.
type Analyzer struct {
	Provider market.Provider
	Labels   fcf.Labels
	Workers  int
	Timeout  time.Duration
	Log      *zap.SugaredLogger
	Archive  Archiver // optional

	NewID func() string
	Now   func() time.Time
}

// Options are the per-run valuation settings.
type Options struct {
	Params    valuation.Params
	Tolerance float64 // fraction, e.g. 0.10
}

// Validate rejects settings under which no run may start.
func (o Options) Validate() error {
	if err := o.Params.Validate(); err != nil {
		return err
	}
	if o.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance cannot be negative, got %v", apperrors.ErrInvalidParameters, o.Tolerance)
	}
	return nil
}

// Result is the outcome of one run.
type Result struct {
	RunID       string
	CreatedAt   time.Time
	Options     Options
	Summary     types.Summary
	Diagnostics []diag.Entry
}

// Analyze fetches data for every holding on a bounded worker pool and
// aggregates the results in input order. Invalid options or holdings reject
// the whole batch before anything is fetched; per-holding failures only make
// that holding's fields unavailable.
func (a *Analyzer) Analyze(ctx context.Context, hs []types.Holding, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := source.Validate(hs); err != nil {
		return nil, err
	}

	runID := a.newID()
	log := a.logger().With("run_id", runID)
	diagLog := diag.NewLog()
	resolver := fcf.New(a.Labels, diag.Tee{diagLog, diag.ZapSink{Log: log}})
	resolver.RunID = runID

	rs := &run{
		analyzer: a,
		log:      log,
		provider: market.NewCacheService(a.Provider, time.Hour, 0),
		resolver: resolver,
		params:   opts.Params,
		fcf:      map[string]*fcfCell{},
	}

	start := a.now()
	log.Infow("analysis started", "holdings", len(hs), "workers", a.workers(),
		"discount_rate", opts.Params.DiscountRate, "growth_rate", opts.Params.GrowthRate,
		"projection_years", opts.Params.ProjectionYears)

	entries := make([]portfolio.Entry, len(hs))
	var g errgroup.Group
	g.SetLimit(a.workers())
	for i, h := range hs {
		g.Go(func() error {
			entries[i] = rs.evaluate(ctx, h)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:       runID,
		CreatedAt:   start,
		Options:     opts,
		Summary:     portfolio.Aggregate(entries, opts.Tolerance),
		Diagnostics: diagLog.Entries(),
	}
	log.Infow("analysis finished", "total_estimated_value", res.Summary.TotalEstimatedValue,
		"elapsed", a.now().Sub(start))

	if a.Archive != nil {
		err := a.Archive.SaveRun(ctx, store.Run{
			ID:        runID,
			CreatedAt: start,
			Params:    opts.Params,
			Tolerance: opts.Tolerance,
			Summary:   res.Summary,
		})
		if err != nil {
			log.Errorw("failed to archive run", "error", err)
		}
	}
	return res, nil
}

func (a *Analyzer) workers() int {
	if a.Workers <= 0 {
		return DefaultWorkers
	}
	return a.Workers
}

func (a *Analyzer) timeout() time.Duration {
	if a.Timeout <= 0 {
		return DefaultTimeout
	}
	return a.Timeout
}

func (a *Analyzer) logger() *zap.SugaredLogger {
	if a.Log == nil {
		return zap.NewNop().Sugar()
	}
	return a.Log
}

func (a *Analyzer) newID() string {
	if a.NewID != nil {
		return a.NewID()
	}
	return uuid.NewString()
}

func (a *Analyzer) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// run is the state of one Analyze call.
type run struct {
	analyzer *Analyzer
	log      *zap.SugaredLogger
	provider market.Provider
	resolver *fcf.Resolver
	params   valuation.Params

	mu  sync.Mutex
	fcf map[string]*fcfCell
}

// fcfCell holds the free cash flow of one identifier, computed once per run.
type fcfCell struct {
	once   sync.Once
	value  *float64
	shares *float64
}

func (r *run) evaluate(ctx context.Context, h types.Holding) portfolio.Entry {
	e := portfolio.Entry{Holding: h}

	cell := r.cell(h.Identifier)
	cell.once.Do(func() {
		fctx, cancel := context.WithTimeout(ctx, r.analyzer.timeout())
		defer cancel()
		f, err := r.provider.Fundamentals(fctx, h.Identifier)
		switch {
		case errors.Is(err, apperrors.ErrDataUnavailable):
			// the source answered with nothing for this symbol
			cell.value = r.resolver.Resolve(h.Identifier, nil, nil).Value
			return
		case err != nil:
			cell.value = r.resolver.Unavailable(h.Identifier, err).Value
			return
		}
		cell.value = r.resolver.Resolve(h.Identifier, f.Statement, f.SummaryFCF).Value
		cell.shares = f.SharesOutstanding
	})

	e.SharesOutstanding = cell.shares
	e.IntrinsicValue = valuation.IntrinsicValue(cell.value, r.params)
	if e.IntrinsicValue != nil && (e.SharesOutstanding == nil || *e.SharesOutstanding <= 0) {
		r.log.Warnw("shares outstanding unavailable", "symbol", h.Identifier)
	}

	qctx, cancel := context.WithTimeout(ctx, r.analyzer.timeout())
	defer cancel()
	q, err := r.provider.Quote(qctx, h.Identifier)
	if err != nil {
		r.log.Warnw("market price unavailable", "symbol", h.Identifier, "error", err)
		return e
	}
	e.MarketPrice = q.Price
	if q.Price == nil {
		r.log.Warnw("market price unavailable", "symbol", h.Identifier)
	}
	return e
}

func (r *run) cell(identifier string) *fcfCell {
	k := strings.ToUpper(strings.TrimSpace(identifier))
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.fcf[k]
	if !ok {
		c = &fcfCell{}
		r.fcf[k] = c
	}
	return c
}
