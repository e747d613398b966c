package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"FairVal/internal/domain/models"
	drepo "FairVal/internal/domain/repository"
	"FairVal/internal/valuation"
	"FairVal/pkg/cache"
	"FairVal/pkg/logger"
	"FairVal/pkg/util"
)

// LookupConfig carries the defaults applied when a request leaves a knob
// unset, plus the cache TTLs per data class.
type LookupConfig struct {
	DefaultWeight        float64
	DefaultHistoryGrowth float64
	Params               valuation.Params

	QuoteTTL        time.Duration
	FundamentalsTTL time.Duration
	ChartTTL        time.Duration
}

// LookupResult is what one valuation lookup returns: the merged snapshot
// the models ran on, and both model outcomes.
type LookupResult struct {
	Snapshot  *models.QuoteSnapshot  `json:"snapshot"`
	Valuation models.ValuationResult `json:"valuation"`
}

// LookupUseCase orchestrates one ticker lookup: fetch from both providers,
// merge, run the valuation models, record the search, and emit the audit
// trail. Archive, events, and cache are optional and may be nil.
type LookupUseCase struct {
	quotes       drepo.QuoteProvider        // price source, preferred on merge
	snapshots    drepo.QuoteProvider        // fundamental-rich snapshot source
	fundamentals drepo.FundamentalsProvider // PE/EPS series and consensus growth
	charts       drepo.ChartProvider
	history      drepo.HistoryStore
	archive      drepo.SnapshotArchive
	events       drepo.EventPublisher
	cache        cache.Service
	metrics      drepo.Metrics
	log          *logger.Logger
	cfg          LookupConfig
}

// NewLookupUseCase wires the lookup flow.
func NewLookupUseCase(
	quotes drepo.QuoteProvider,
	snapshots drepo.QuoteProvider,
	fundamentals drepo.FundamentalsProvider,
	charts drepo.ChartProvider,
	history drepo.HistoryStore,
	archive drepo.SnapshotArchive,
	events drepo.EventPublisher,
	cacheSvc cache.Service,
	metrics drepo.Metrics,
	log *logger.Logger,
	cfg LookupConfig,
) *LookupUseCase {
	return &LookupUseCase{
		quotes:       quotes,
		snapshots:    snapshots,
		fundamentals: fundamentals,
		charts:       charts,
		history:      history,
		archive:      archive,
		events:       events,
		cache:        cacheSvc,
		metrics:      metrics,
		log:          log,
		cfg:          cfg,
	}
}

// Valuate runs the full lookup for req. Provider data gaps degrade to
// per-model unavailability; provider failures fail the whole lookup and
// leave the search history untouched.
func (uc *LookupUseCase) Valuate(ctx context.Context, req *models.ValuationRequest) (*LookupResult, error) {
	start := time.Now()
	symbol := util.NormalizeTicker(req.Symbol)

	weight := uc.cfg.DefaultWeight
	if req.Weight != nil {
		weight = *req.Weight
	}
	historyGrowth := uc.cfg.DefaultHistoryGrowth
	if req.HistoryGrowth != nil {
		historyGrowth = *req.HistoryGrowth
	}

	snap, funds, err := uc.fetch(ctx, symbol)
	if err != nil {
		uc.metrics.RecordLookup("provider_error")
		uc.publishEvent(symbol, weight, "provider_error")
		return nil, err
	}

	result := valuation.Compute(valuation.Inputs{
		Snapshot:        *snap,
		PESeries:        funds.PESeries,
		ConsensusGrowth: funds.ConsensusGrowth,
		HistoryGrowth:   models.Float(historyGrowth),
		Weight:          weight,
	}, uc.cfg.Params)

	uc.metrics.RecordLookup("ok")
	uc.metrics.RecordLatency("lookup", time.Since(start).Seconds())
	if snap.CurrentPrice != nil {
		uc.metrics.RecordLastPrice(symbol, *snap.CurrentPrice)
	}
	if !result.HistoricalPE.Available() {
		uc.metrics.RecordUnavailable("historical_pe", result.HistoricalPE.Reason)
	}
	if !result.PEG.Available() {
		uc.metrics.RecordUnavailable("peg", result.PEG.Reason)
	}

	if err := uc.history.Append(models.HistoryEntry{Ticker: symbol, Timestamp: time.Now().UTC()}); err != nil {
		// History is a convenience; its failure never fails the lookup.
		uc.log.Error("append history", logger.String("symbol", symbol), logger.Error(err))
	}
	uc.archiveSnapshot(snap)
	uc.publishEvent(symbol, weight, "ok")

	return &LookupResult{Snapshot: snap, Valuation: result}, nil
}

// Chart returns the close series for charting, from cache when fresh, the
// provider otherwise, and the snapshot archive as a last resort.
func (uc *LookupUseCase) Chart(ctx context.Context, req *models.ChartRequest) (*models.PriceHistory, error) {
	symbol := util.NormalizeTicker(req.Symbol)
	key := cache.GenerateKeyWithParams("chart", symbol, req.Range)

	var cached models.PriceHistory
	if uc.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	hist, err := uc.charts.PriceHistory(ctx, symbol, req.Range)
	if err != nil {
		uc.metrics.RecordProviderError(uc.charts.Name())
		if fallback := uc.archivedChart(ctx, symbol, req.Range); fallback != nil {
			uc.log.Warn("chart provider failed, serving archive",
				logger.String("symbol", symbol), logger.Error(err))
			return fallback, nil
		}
		return nil, fmt.Errorf("chart %s: %w", symbol, err)
	}

	uc.cacheSet(ctx, key, hist, uc.cfg.ChartTTL)
	return hist, nil
}

// History returns the recent-search list, most recent first.
func (uc *LookupUseCase) History() []models.HistoryEntry {
	return uc.history.List()
}

// Health pings the optional dependencies and reports per-component status.
// The service itself is always "ok" when this runs.
func (uc *LookupUseCase) Health(ctx context.Context) map[string]string {
	status := map[string]string{"service": "ok"}
	if uc.archive != nil {
		status["archive"] = "ok"
		if err := uc.archive.Health(ctx); err != nil {
			status["archive"] = err.Error()
		}
	}
	return status
}

// fetch pulls the quote, the fundamental-rich snapshot, and the fundamentals
// concurrently, then merges. The price source wins on conflicting fields;
// fundamentals scalars fill whatever is still missing.
func (uc *LookupUseCase) fetch(ctx context.Context, symbol string) (*models.QuoteSnapshot, *models.Fundamentals, error) {
	snapKey := cache.GenerateKey("quote", symbol)
	fundKey := cache.GenerateKey("fund", symbol)

	var cachedSnap models.QuoteSnapshot
	var cachedFunds models.Fundamentals
	if uc.cacheGet(ctx, snapKey, &cachedSnap) && uc.cacheGet(ctx, fundKey, &cachedFunds) {
		return &cachedSnap, &cachedFunds, nil
	}

	var (
		wg      sync.WaitGroup
		quote   *models.QuoteSnapshot
		rich    *models.QuoteSnapshot
		funds   *models.Fundamentals
		quoteE  error
		richE   error
		fundsE  error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		defer uc.timeOp(uc.quotes.Name() + ".quote")()
		quote, quoteE = uc.quotes.Quote(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		defer uc.timeOp(uc.snapshots.Name() + ".quote")()
		rich, richE = uc.snapshots.Quote(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		defer uc.timeOp(uc.fundamentals.Name() + ".fundamentals")()
		funds, fundsE = uc.fundamentals.Fundamentals(ctx, symbol)
	}()
	wg.Wait()

	if quoteE != nil {
		uc.metrics.RecordProviderError(uc.quotes.Name())
	}
	if richE != nil {
		uc.metrics.RecordProviderError(uc.snapshots.Name())
	}
	if fundsE != nil {
		uc.metrics.RecordProviderError(uc.fundamentals.Name())
	}

	// An unknown symbol anywhere is definitive. Otherwise both quote
	// sources failing means no price and the lookup cannot proceed.
	for _, e := range []error{quoteE, richE, fundsE} {
		if errors.Is(e, drepo.ErrSymbolNotFound) {
			return nil, nil, e
		}
	}
	if quoteE != nil && richE != nil {
		return nil, nil, fmt.Errorf("quote %s: %w", symbol, errors.Join(quoteE, richE))
	}
	if fundsE != nil {
		return nil, nil, fmt.Errorf("fundamentals %s: %w", symbol, fundsE)
	}

	snap := mergeSnapshots(symbol, quote, rich, funds)
	// Without a price the models have nothing to anchor to; treat it as a
	// provider failure rather than running the engine on air.
	if snap.CurrentPrice == nil {
		return nil, nil, fmt.Errorf("no current price for %s from any provider", symbol)
	}
	uc.cacheSet(ctx, snapKey, snap, uc.cfg.QuoteTTL)
	uc.cacheSet(ctx, fundKey, funds, uc.cfg.FundamentalsTTL)
	return snap, funds, nil
}

// mergeSnapshots builds one snapshot out of the partial provider views.
// primary and secondary may each be nil when that provider failed.
func mergeSnapshots(symbol string, primary, secondary *models.QuoteSnapshot, funds *models.Fundamentals) *models.QuoteSnapshot {
	out := &models.QuoteSnapshot{Symbol: symbol, FetchedAt: time.Now().UTC()}

	for _, src := range []*models.QuoteSnapshot{primary, secondary} {
		if src == nil {
			continue
		}
		out.Sources = append(out.Sources, src.Sources...)
		fillFloat(&out.CurrentPrice, src.CurrentPrice)
		fillFloat(&out.TrailingPE, src.TrailingPE)
		fillFloat(&out.ForwardPE, src.ForwardPE)
		fillFloat(&out.TrailingEPS, src.TrailingEPS)
		fillFloat(&out.ForwardEPS, src.ForwardEPS)
		fillFloat(&out.Beta, src.Beta)
	}
	if funds != nil {
		fillFloat(&out.TrailingPE, funds.TrailingPE)
		fillFloat(&out.TrailingEPS, funds.TrailingEPS)
		fillFloat(&out.Beta, funds.Beta)
	}
	return out
}

func fillFloat(dst **float64, src *float64) {
	if *dst == nil && src != nil {
		v := *src
		*dst = &v
	}
}

func (uc *LookupUseCase) archivedChart(ctx context.Context, symbol, rng string) *models.PriceHistory {
	if uc.archive == nil {
		return nil
	}
	to := time.Now().UTC()
	from := to.Add(-rangeDuration(rng))
	points, err := uc.archive.Prices(ctx, symbol, from, to, 2000)
	if err != nil || len(points) == 0 {
		return nil
	}
	return &models.PriceHistory{Symbol: symbol, Range: rng, Points: points}
}

// rangeDuration maps a chart range token to a lookback window.
func rangeDuration(rng string) time.Duration {
	const day = 24 * time.Hour
	switch rng {
	case "1mo":
		return 31 * day
	case "3mo":
		return 92 * day
	case "6mo":
		return 183 * day
	case "1y":
		return 365 * day
	case "2y":
		return 2 * 365 * day
	case "10y":
		return 10 * 365 * day
	default: // 5y
		return 5 * 365 * day
	}
}

func (uc *LookupUseCase) archiveSnapshot(snap *models.QuoteSnapshot) {
	if uc.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := uc.archive.Store(ctx, snap); err != nil {
		uc.log.Error("archive snapshot", logger.String("symbol", snap.Symbol), logger.Error(err))
	}
}

func (uc *LookupUseCase) publishEvent(symbol string, weight float64, status string) {
	if uc.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ev := &models.LookupEvent{Symbol: symbol, Timestamp: time.Now().UTC(), Weight: weight, Status: status}
	if err := uc.events.Publish(ctx, ev); err != nil {
		uc.log.Error("publish lookup event", logger.String("symbol", symbol), logger.Error(err))
	}
}

// timeOp returns a func recording the elapsed time under op when called.
func (uc *LookupUseCase) timeOp(op string) func() {
	start := time.Now()
	return func() {
		uc.metrics.RecordLatency(op, time.Since(start).Seconds())
	}
}

func (uc *LookupUseCase) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if uc.cache == nil {
		return false
	}
	err := uc.cache.Get(ctx, key, dest)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			uc.log.Warn("cache get", logger.String("key", key), logger.Error(err))
		}
		return false
	}
	return true
}

func (uc *LookupUseCase) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if uc.cache == nil || ttl <= 0 {
		return
	}
	if err := uc.cache.Set(ctx, key, value, ttl); err != nil {
		uc.log.Warn("cache set", logger.String("key", key), logger.Error(err))
	}
}
