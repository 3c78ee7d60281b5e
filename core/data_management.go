package core

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	av "olps/api/alpha_vantage"
	ex "olps/extensions"
	m "olps/models"
	r "olps/repos"
)

const (
	DefaultRefreshAfter = 7 * 24 * time.Hour
	maxConcurrentSyncs  = 2
)

// CachedPriceSource serves history out of postgres, topping it up from alpha vantage when stale.
// Current prices always come straight from alpha vantage.
type CachedPriceSource struct {
	Store        *r.Postgres
	Client       *av.AlphaVantageClient
	RefreshAfter time.Duration
	Now          func() time.Time
}

func NewCachedPriceSource(store *r.Postgres, client *av.AlphaVantageClient) *CachedPriceSource {
	return &CachedPriceSource{
		Store:        store,
		Client:       client,
		RefreshAfter: DefaultRefreshAfter,
		Now:          time.Now,
	}
}

func (cps *CachedPriceSource) FetchHistory(ctx context.Context, universe []string, duration time.Duration, granularity m.Granularity) (*m.PriceHistory, error) {
	start := time.Now()
	cutoff := cps.Now().Add(-duration)

	results := make([][]*m.TimeSeriesData, len(universe))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSyncs)

	for i, symbol := range universe {
		g.Go(func() error {
			key := cacheKey(symbol, granularity)
			if _, err := cps.SyncSymbolTimeSeriesData(gctx, symbol, granularity); err != nil {
				return err
			}

			bars, err := cps.Store.GetTimeSeriesData(gctx, key, cutoff)
			if err != nil {
				return err
			}
			results[i] = bars
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	series := make(map[string][]*m.TimeSeriesData, len(universe))
	for i, symbol := range universe {
		series[symbol] = results[i]
	}

	log.Printf("Loaded %v history for %v from cache (time: %v)", granularity, universe, time.Since(start))
	return m.AlignCloses(universe, series)
}

func (cps *CachedPriceSource) FetchCurrent(ctx context.Context, universe []string) (map[string]float64, error) {
	return cps.Client.FetchCurrent(ctx, universe)
}

// SyncSymbolTimeSeriesData pulls bars newer than what is stored for the symbol, unless the symbol was
// refreshed within RefreshAfter. It returns the last refreshed time either way.
func (cps *CachedPriceSource) SyncSymbolTimeSeriesData(ctx context.Context, symbol string, granularity m.Granularity) (time.Time, error) {
	key := cacheKey(symbol, granularity)
	md, err := cps.Store.GetMetaDataBySymbol(ctx, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("error determining if meta data exists in sync data: %w", err)
	}

	if md == nil {
		log.Printf("adding new symbol to db: %s", key)
		md = &m.TimeSeriesMetadata{
			Symbol:        key,
			LastRefreshed: time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		}

		if err := cps.Store.InsertNewMetaData(ctx, md, nil); err != nil {
			return time.Time{}, fmt.Errorf("error adding %s to db: %w", key, err)
		}
	}

	if !isStale(md.LastRefreshed, cps.Now(), cps.RefreshAfter) {
		log.Printf("%s was refreshed %s, using cached data", key, ex.FmtShort(md.LastRefreshed))
		return md.LastRefreshed, nil
	}

	mrd, err := cps.Store.GetMostRecentTimestampForSymbol(ctx, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("error getting most recent time series date for %s: %w", key, err)
	}

	tsr, err := cps.Client.GetTimeSeries(ctx, av.TimeSeriesForGranularity(granularity), symbol)
	if err != nil {
		return time.Time{}, err
	}

	toInsert := newerThan(tsr.TimeSeries, mrd)

	tx, err := cps.Store.GetTransaction(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	var ra int64
	if len(toInsert) > 0 {
		ra, err = cps.Store.InsertTimeSeriesData(ctx, toInsert, &md.Id, &tx)
		if err != nil {
			return time.Time{}, fmt.Errorf("error inserting time series data: %w", err)
		}
	}

	if err := cps.Store.UpdateLastRefreshedDate(ctx, key, tsr.Metadata.LastRefreshed, &tx); err != nil {
		return time.Time{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return time.Time{}, fmt.Errorf("error committing sync for %s: %w", key, err)
	}

	log.Printf("%s got %v time series elements from av, inserted %v values", key, len(tsr.TimeSeries), ra)
	return tsr.Metadata.LastRefreshed, nil
}

// cacheKey keeps each granularity of a symbol in its own series
func cacheKey(symbol string, granularity m.Granularity) string {
	return fmt.Sprintf("%s/%s", symbol, granularity)
}

func isStale(lastRefreshed, now time.Time, refreshAfter time.Duration) bool {
	return !lastRefreshed.After(now.Add(-refreshAfter))
}

func newerThan(bars []*m.TimeSeriesData, mostRecent *time.Time) []*m.TimeSeriesData {
	f := func(d *m.TimeSeriesData) bool { return mostRecent == nil || d.Timestamp.After(*mostRecent) }
	return ex.FilterMultiplePtr(bars, f)
}
