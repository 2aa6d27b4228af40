package finance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/sync/errgroup"

	financedb "github.com/finboard/finboard/internal/finance/db"
)

// Repository exposes the snapshot queries the service relies on.
type Repository interface {
	SummarySnapshot(ctx context.Context, arg financedb.SummarySnapshotParams) (financedb.SummarySnapshotRow, error)
	RecentSnapshots(ctx context.Context, arg financedb.RecentSnapshotsParams) ([]financedb.RecentSnapshotsRow, error)
	ListProducts(ctx context.Context) ([]financedb.OptionRow, error)
	ListServices(ctx context.Context) ([]financedb.OptionRow, error)
	ListCollaborators(ctx context.Context) ([]financedb.OptionRow, error)
	ListTaskTypes(ctx context.Context) ([]financedb.OptionRow, error)
}

// Service reads financial snapshots through the cache.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// SnapshotRef identifies a stored snapshot.
type SnapshotRef struct {
	UserID int64
	Period Period
}

// Summary returns the snapshot of userID for period. Missing snapshot rows
// read as zero.
func (s *Service) Summary(ctx context.Context, userID int64, period Period) (Summary, error) {
	load := func(ctx context.Context) (any, error) {
		row, err := s.repo.SummarySnapshot(ctx, financedb.SummarySnapshotParams{
			UserID:      userID,
			PeriodStart: timestampParam(period.From),
			PeriodEnd:   timestampParam(period.To),
		})
		if err != nil {
			return Summary{}, fmt.Errorf("summary snapshot: %w", err)
		}
		return summaryFromRow(userID, period, row), nil
	}
	key, err := s.cache.Key(ctx, keySummary(userID, period))
	if err != nil {
		return Summary{}, err
	}
	var summary Summary
	if err := s.cache.FetchJSON(ctx, key, &summary, load); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// FilterOptions loads the four filter lists concurrently.
func (s *Service) FilterOptions(ctx context.Context) (FilterOptions, error) {
	load := func(ctx context.Context) (any, error) {
		var opts FilterOptions
		g, gctx := errgroup.WithContext(ctx)
		lists := []struct {
			name string
			fn   func(context.Context) ([]financedb.OptionRow, error)
			dest *[]Option
		}{
			{"products", s.repo.ListProducts, &opts.Products},
			{"services", s.repo.ListServices, &opts.Services},
			{"collaborators", s.repo.ListCollaborators, &opts.Collaborators},
			{"task types", s.repo.ListTaskTypes, &opts.TaskTypes},
		}
		for _, l := range lists {
			l := l
			g.Go(func() error {
				rows, err := l.fn(gctx)
				if err != nil {
					return fmt.Errorf("list %s: %w", l.name, err)
				}
				*l.dest = toOptions(rows)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return FilterOptions{}, err
		}
		return opts, nil
	}
	key, err := s.cache.Key(ctx, keyFilterOptions)
	if err != nil {
		return FilterOptions{}, err
	}
	var opts FilterOptions
	if err := s.cache.FetchJSON(ctx, key, &opts, load); err != nil {
		return FilterOptions{}, err
	}
	return opts, nil
}

// RecentSnapshots lists snapshots updated since the given instant.
func (s *Service) RecentSnapshots(ctx context.Context, since time.Time, limit int) ([]SnapshotRef, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.repo.RecentSnapshots(ctx, financedb.RecentSnapshotsParams{
		UpdatedSince: timestampParam(since),
		Limit:        int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("recent snapshots: %w", err)
	}
	refs := make([]SnapshotRef, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, SnapshotRef{
			UserID: row.UserID,
			Period: Period{From: truncateDay(row.PeriodStart.Time), To: truncateDay(row.PeriodEnd.Time)},
		})
	}
	return refs, nil
}

// Warm invalidates the cache and reloads the given snapshots into it. It
// returns how many were loaded.
func (s *Service) Warm(ctx context.Context, refs []SnapshotRef) (int, error) {
	if _, err := s.cache.Invalidate(ctx); err != nil {
		return 0, fmt.Errorf("invalidate: %w", err)
	}
	warmed := 0
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return warmed, err
		}
		if _, err := s.Summary(ctx, ref.UserID, ref.Period); err != nil {
			s.logger.Warn("warm snapshot", slog.Int64("user_id", ref.UserID), slog.String("period", ref.Period.String()), slog.Any("error", err))
			continue
		}
		warmed++
	}
	if _, err := s.FilterOptions(ctx); err != nil {
		return warmed, err
	}
	return warmed, nil
}

func summaryFromRow(userID int64, period Period, row financedb.SummarySnapshotRow) Summary {
	summary := Summary{
		UserID: userID,
		From:   period.From.Format(DateLayout),
		To:     period.To.Format(DateLayout),
		Revenue: Revenue{
			Total:        floatValue(row.RevenueTotal),
			Product:      floatValue(row.RevenueProduct),
			Service:      floatValue(row.RevenueService),
			ProductShare: floatValue(row.RevenueProductShare),
			ServiceShare: floatValue(row.RevenueServiceShare),
		},
		Profit: Profit{
			Total:        floatValue(row.ProfitTotal),
			Product:      floatValue(row.ProfitProduct),
			Service:      floatValue(row.ProfitService),
			ProductShare: floatValue(row.ProfitProductShare),
			ServiceShare: floatValue(row.ProfitServiceShare),
			Margin:       floatValue(row.ProfitMargin),
		},
	}
	if row.UpdatedAt.Valid {
		summary.Updated = row.UpdatedAt.Time.UTC()
	}
	summary.Reconcile()
	return summary
}

func toOptions(rows []financedb.OptionRow) []Option {
	out := make([]Option, 0, len(rows))
	for _, row := range rows {
		out = append(out, Option{ID: row.ID, Name: row.Name})
	}
	return out
}

func floatValue(v pgtype.Float8) float64 {
	if !v.Valid {
		return 0
	}
	return v.Float64
}

func timestampParam(t time.Time) pgtype.Timestamp {
	if t.IsZero() {
		return pgtype.Timestamp{Valid: false}
	}
	return pgtype.Timestamp{Time: t, Valid: true}
}
