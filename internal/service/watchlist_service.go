package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-faculty-api/internal/models"
	appErrors "github.com/noah-isme/sma-faculty-api/pkg/errors"
	"github.com/noah-isme/sma-faculty-api/pkg/export"
)

const watchlistCacheKey = "watchlist:critical"

type watchlistStore interface {
	CriticalStudents(ctx context.Context, since time.Time, threshold int) ([]models.CriticalStudent, error)
}

type watchlistCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// WatchlistService computes the critical-student list for incharges. The
// last computed list is kept in the cache so the screen still renders from
// the last-known snapshot when the aggregate query is unavailable.
type WatchlistService struct {
	repo      watchlistStore
	cache     watchlistCache
	threshold int
	window    int
	cacheTTL  time.Duration
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewWatchlistService constructs the service.
func NewWatchlistService(repo watchlistStore, cache watchlistCache, threshold, windowDays int, cacheTTL time.Duration, logger *zap.Logger) *WatchlistService {
	if threshold <= 0 {
		threshold = 5
	}
	if windowDays <= 0 {
		windowDays = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WatchlistService{
		repo:      repo,
		cache:     cache,
		threshold: threshold,
		window:    windowDays,
		cacheTTL:  cacheTTL,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// Current returns the watchlist, preferring a fresh computation and falling
// back to the cached snapshot when the store is unreachable.
func (s *WatchlistService) Current(ctx context.Context) (*models.Watchlist, error) {
	since := time.Now().UTC().AddDate(0, 0, -s.window)
	students, err := s.repo.CriticalStudents(ctx, since, s.threshold)
	if err != nil {
		var cached models.Watchlist
		if s.cache != nil {
			if cacheErr := s.cache.Get(ctx, watchlistCacheKey, &cached); cacheErr == nil {
				s.logger.Warn("serving last-known watchlist snapshot", zap.Error(err))
				return &cached, nil
			} else if !errors.Is(cacheErr, appErrors.ErrCacheMiss) {
				s.logger.Warn("watchlist cache read failed", zap.Error(cacheErr))
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute watchlist")
	}

	watchlist := &models.Watchlist{
		GeneratedAt: time.Now().UTC(),
		WindowDays:  s.window,
		Threshold:   s.threshold,
		Students:    students,
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, watchlistCacheKey, watchlist, s.cacheTTL); err != nil {
			s.logger.Warn("watchlist cache write failed", zap.Error(err))
		}
	}
	return watchlist, nil
}

// Export renders the current watchlist as CSV or PDF bytes.
func (s *WatchlistService) Export(ctx context.Context, format string) ([]byte, string, error) {
	watchlist, err := s.Current(ctx)
	if err != nil {
		return nil, "", err
	}

	report := export.Report{
		Title:       fmt.Sprintf("Critical students, last %d days", watchlist.WindowDays),
		GeneratedAt: watchlist.GeneratedAt,
		Columns:     []string{"Student", "Class", "Absences", "Last Absence"},
		Rows:        make([][]string, 0, len(watchlist.Students)),
	}
	for _, student := range watchlist.Students {
		last := ""
		if student.LastAbsence != nil {
			last = student.LastAbsence.Format("2006-01-02")
		}
		report.Rows = append(report.Rows, []string{
			student.StudentName,
			student.ClassID,
			strconv.Itoa(student.AbsenceCount),
			last,
		})
	}

	switch format {
	case "csv":
		raw, err := s.csv.Render(report)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return raw, "text/csv", nil
	case "pdf":
		raw, err := s.pdf.Render(report)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return raw, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
