package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTopSellingLimit is used when no positive limit is configured.
const DefaultTopSellingLimit = 5

// Config tunes the aggregator.
type Config struct {
	Location        *time.Location
	TopSellingLimit int
}

// Service assembles dashboard payloads, reading through the cache when one is
// configured.
type Service struct {
	repo   Repository
	cache  *Cache
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the aggregator. cache may be nil.
func NewService(repo Repository, cache *Cache, cfg Config, logger *slog.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.TopSellingLimit <= 0 {
		cfg.TopSellingLimit = DefaultTopSellingLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, cfg: cfg, logger: logger, now: time.Now}
}

// WithNow overrides the clock, mainly for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Location returns the zone used to bucket days.
func (s *Service) Location() *time.Location { return s.cfg.Location }

// Counts returns the headline totals.
func (s *Service) Counts(ctx context.Context) (Counts, error) {
	var out Counts
	err := s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		return s.repo.Counts(ctx)
	}, "counts")
	return out, err
}

// SalesLast7Days returns the daily sales of today and the six days before.
func (s *Service) SalesLast7Days(ctx context.Context) (Series, error) {
	now := s.now()
	loc := s.cfg.Location
	from, to := salesWindow(now, loc)
	var out Series
	err := s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		totals, err := s.repo.DailySales(ctx, from, to, loc)
		if err != nil {
			return nil, err
		}
		return SalesSeries(now, loc, totals), nil
	}, "sales7d", from.Format("20060102"), loc.String())
	return out, err
}

// TopSellingProducts returns at most n products by quantity sold; n <= 0
// uses the configured limit.
func (s *Service) TopSellingProducts(ctx context.Context, n int) (Series, error) {
	if n <= 0 {
		n = s.cfg.TopSellingLimit
	}
	var out Series
	err := s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		rows, err := s.repo.TopSelling(ctx, n)
		if err != nil {
			return nil, err
		}
		return TopSellingSeries(rows, n), nil
	}, "topselling", strconv.Itoa(n))
	return out, err
}

// TransactionsByPaymentMethod counts transactions per payment method.
func (s *Service) TransactionsByPaymentMethod(ctx context.Context) (Series, error) {
	return s.countSeries(ctx, "paymentmethods", s.repo.TransactionsByPaymentMethod)
}

// ProductsByCategory counts products per category.
func (s *Service) ProductsByCategory(ctx context.Context) (Series, error) {
	return s.countSeries(ctx, "categories", s.repo.ProductsByCategory)
}

// ProductsByBrand counts products per brand.
func (s *Service) ProductsByBrand(ctx context.Context) (Series, error) {
	return s.countSeries(ctx, "brands", s.repo.ProductsByBrand)
}

func (s *Service) countSeries(ctx context.Context, part string, fetch func(context.Context) ([]NamedCount, error)) (Series, error) {
	var out Series
	err := s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		rows, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return CountSeries(rows), nil
	}, part)
	return out, err
}

// Dashboard fetches every part concurrently.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Counts, err = s.Counts(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.SalesLast7Days, err = s.SalesLast7Days(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.TopSellingProducts, err = s.TopSellingProducts(gctx, 0)
		return err
	})
	g.Go(func() (err error) {
		d.TransactionsByPaymentMethod, err = s.TransactionsByPaymentMethod(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.ProductsByCategory, err = s.ProductsByCategory(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.ProductsByBrand, err = s.ProductsByBrand(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	d.GeneratedAt = s.now().UTC()
	return d, nil
}

// Warm recomputes the dashboard so the cache holds the current version.
func (s *Service) Warm(ctx context.Context) error {
	start := s.now()
	if _, err := s.Dashboard(ctx); err != nil {
		return fmt.Errorf("warm dashboard: %w", err)
	}
	s.logger.Info("dashboard warmed", slog.Duration("took", s.now().Sub(start)))
	return nil
}

// Bump invalidates cached parts; it satisfies the catalog Invalidator.
func (s *Service) Bump(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// cached reads dest through the cache. Cache failures degrade to a direct
// computation rather than failing the read.
func (s *Service) cached(ctx context.Context, dest any, loader func(context.Context) (any, error), parts ...string) error {
	if s.cache == nil {
		return load(ctx, dest, loader)
	}
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		s.logger.Warn("dashboard cache key", slog.Any("error", err))
		return load(ctx, dest, loader)
	}
	var loaderErr error
	wrapped := func(ctx context.Context) (any, error) {
		v, err := loader(ctx)
		loaderErr = err
		return v, err
	}
	if err := s.cache.FetchJSON(ctx, key, dest, wrapped); err != nil {
		if loaderErr != nil {
			return loaderErr
		}
		s.logger.Warn("dashboard cache fetch", slog.Any("error", err), slog.String("key", key))
		return load(ctx, dest, loader)
	}
	return nil
}
