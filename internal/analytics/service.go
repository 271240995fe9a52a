package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"glowdesk/internal/caching"
	"glowdesk/internal/models"
	"glowdesk/internal/repositories"
	"glowdesk/internal/services"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	cacheTTL        = 5 * time.Minute
	maxRange        = 366 * 24 * time.Hour
	maxDailyBuckets = 400
	defaultTop      = 5
	maxTop          = 50
)

// AnalyticsService calculates and caches the business insight dashboards.
type AnalyticsService struct {
	insightsRepo repositories.InsightsRepository
	cacheService caching.CacheService
	log          *logrus.Logger
	now          func() time.Time
}

func NewAnalyticsService(insightsRepo repositories.InsightsRepository, cacheService caching.CacheService, log *logrus.Logger) *AnalyticsService {
	return &AnalyticsService{
		insightsRepo: insightsRepo,
		cacheService: cacheService,
		log:          log,
		now:          time.Now,
	}
}

// Range resolves optional from/to bounds. Missing bounds default to the last 30 days.
// An open end is rounded up to the next hour so repeated loads share a cache key.
func (a *AnalyticsService) Range(from, to *time.Time) (time.Time, time.Time, error) {
	end := a.now().UTC().Truncate(time.Hour).Add(time.Hour)
	if to != nil {
		end = to.UTC()
	}
	start := end.AddDate(0, 0, -30)
	if from != nil {
		start = from.UTC()
	}
	if !start.Before(end) {
		return start, end, &services.ValidationError{Field: "from", Message: "must be before to"}
	}
	if end.Sub(start) > maxRange {
		return start, end, &services.ValidationError{Field: "to", Message: "range cannot exceed one year"}
	}
	return start, end, nil
}

func rangeParts(from, to time.Time) []string {
	return []string{strconv.FormatInt(from.Unix(), 10), strconv.FormatInt(to.Unix(), 10)}
}

// cached loads key into dst, or computes it with fn and stores the result.
func (a *AnalyticsService) cached(ctx context.Context, key string, dst interface{}, fn func() error) error {
	if hit, err := a.cacheService.GetJSON(ctx, key, dst); err != nil {
		a.log.WithError(err).WithField("key", key).Warn("Insight cache read failed")
	} else if hit {
		return nil
	}

	if err := fn(); err != nil {
		return err
	}

	if err := a.cacheService.SetJSON(ctx, key, dst, cacheTTL); err != nil {
		a.log.WithError(err).WithField("key", key).Warn("Insight cache write failed")
	}
	return nil
}

// Summary returns revenue, expenses, profit and activity counts for the range.
func (a *AnalyticsService) Summary(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*models.InsightsSummary, error) {
	summary := &models.InsightsSummary{}
	key := caching.InsightsKey(tenantID, "summary", rangeParts(from, to)...)

	err := a.cached(ctx, key, summary, func() error {
		revenue, err := a.insightsRepo.Revenue(ctx, tenantID, from, to)
		if err != nil {
			return fmt.Errorf("revenue: %w", err)
		}
		expenses, err := a.insightsRepo.ExpensesTotal(ctx, tenantID, from, to)
		if err != nil {
			return fmt.Errorf("expenses: %w", err)
		}
		counts, err := a.insightsRepo.AppointmentCounts(ctx, tenantID, from, to)
		if err != nil {
			return fmt.Errorf("appointment counts: %w", err)
		}
		newClients, err := a.insightsRepo.NewClients(ctx, tenantID, from, to)
		if err != nil {
			return fmt.Errorf("new clients: %w", err)
		}
		active, redeemed, err := a.insightsRepo.CouponCounts(ctx, tenantID, from, to, a.now())
		if err != nil {
			return fmt.Errorf("coupon counts: %w", err)
		}

		*summary = models.InsightsSummary{
			From:              from,
			To:                to,
			Revenue:           revenue,
			Expenses:          expenses,
			Profit:            revenue - expenses,
			AppointmentCounts: counts,
			NewClients:        newClients,
			ActiveCoupons:     active,
			RedeemedCoupons:   redeemed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

var metrics = map[string]bool{
	repositories.MetricRevenue:      true,
	repositories.MetricExpenses:     true,
	repositories.MetricAppointments: true,
	repositories.MetricNewClients:   true,
}

// TimeSeries returns one point per bucket between from and to, zero-filling empty buckets.
func (a *AnalyticsService) TimeSeries(ctx context.Context, tenantID uuid.UUID, metric, bucket string, from, to time.Time) (*models.TimeSeries, error) {
	if !metrics[metric] {
		return nil, &services.ValidationError{Field: "metric", Message: "must be one of revenue, expenses, appointments, new_clients"}
	}
	if bucket == "" {
		bucket = "day"
	}
	if bucket != "day" && bucket != "week" && bucket != "month" {
		return nil, &services.ValidationError{Field: "bucket", Message: "must be day, week or month"}
	}
	if bucket == "day" && to.Sub(from) > maxDailyBuckets*24*time.Hour {
		return nil, &services.ValidationError{Field: "bucket", Message: "too many daily buckets for this range"}
	}

	series := &models.TimeSeries{}
	key := caching.InsightsKey(tenantID, "timeseries", append([]string{metric, bucket}, rangeParts(from, to)...)...)

	err := a.cached(ctx, key, series, func() error {
		points, err := a.insightsRepo.TimeSeries(ctx, tenantID, metric, bucket, from, to)
		if err != nil {
			return fmt.Errorf("time series: %w", err)
		}
		*series = models.TimeSeries{Metric: metric, Bucket: bucket, Points: ZeroFill(points, bucket, from, to)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}

// TopServices ranks services by completed revenue in the range.
func (a *AnalyticsService) TopServices(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit int) ([]*models.ServiceStat, error) {
	if limit <= 0 {
		limit = defaultTop
	}
	if limit > maxTop {
		limit = maxTop
	}

	stats := []*models.ServiceStat{}
	key := caching.InsightsKey(tenantID, "top_services", append([]string{strconv.Itoa(limit)}, rangeParts(from, to)...)...)

	err := a.cached(ctx, key, &stats, func() error {
		rows, err := a.insightsRepo.TopServices(ctx, tenantID, from, to, limit)
		if err != nil {
			return fmt.Errorf("top services: %w", err)
		}
		stats = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// InvalidateTenantAnalyticsCache drops every cached insight for a tenant.
func (a *AnalyticsService) InvalidateTenantAnalyticsCache(ctx context.Context, tenantID uuid.UUID) error {
	return a.cacheService.InvalidateTenantInsights(ctx, tenantID)
}

// BucketStart truncates t the way Postgres date_trunc does in UTC. Weeks start on Monday.
func BucketStart(t time.Time, bucket string) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch bucket {
	case "week":
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case "month":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

func nextBucket(t time.Time, bucket string) time.Time {
	switch bucket {
	case "week":
		return t.AddDate(0, 0, 7)
	case "month":
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// ZeroFill returns one point per bucket in [from, to), using values from points where present.
func ZeroFill(points []models.TimeSeriesPoint, bucket string, from, to time.Time) []models.TimeSeriesPoint {
	values := make(map[int64]float64, len(points))
	for _, p := range points {
		values[p.Bucket.UTC().Unix()] = p.Value
	}

	filled := []models.TimeSeriesPoint{}
	for b := BucketStart(from, bucket); b.Before(to); b = nextBucket(b, bucket) {
		filled = append(filled, models.TimeSeriesPoint{Bucket: b, Value: values[b.Unix()]})
	}
	return filled
}
