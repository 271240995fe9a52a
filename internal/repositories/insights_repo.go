package repositories

import (
	"context"
	"fmt"
	"time"

	"glowdesk/internal/models"

	"github.com/google/uuid"
)

// Insight metrics understood by TimeSeries.
const (
	MetricRevenue      = "revenue"
	MetricExpenses     = "expenses"
	MetricAppointments = "appointments"
	MetricNewClients   = "new_clients"
)

// expenseInRange selects expenses whose UTC day overlaps [$2, $3).
const expenseInRange = `incurred_on >= ($2::timestamptz AT TIME ZONE 'UTC')::date AND incurred_on::timestamp < ($3::timestamptz AT TIME ZONE 'UTC')`

type InsightsRepository interface {
	Revenue(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (float64, error)
	ExpensesTotal(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (float64, error)
	AppointmentCounts(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (map[string]int, error)
	NewClients(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int, error)
	CouponCounts(ctx context.Context, tenantID uuid.UUID, from, to time.Time, now time.Time) (active int, redeemed int, err error)
	// TimeSeries returns non-empty buckets only; callers fill the gaps.
	TimeSeries(ctx context.Context, tenantID uuid.UUID, metric, bucket string, from, to time.Time) ([]models.TimeSeriesPoint, error)
	TopServices(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit int) ([]*models.ServiceStat, error)
}

type insightsRepo struct {
	db DBTX
}

func NewInsightsRepo(db DBTX) InsightsRepository {
	return &insightsRepo{db: db}
}

func (r *insightsRepo) Revenue(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(price), 0)::float8
		FROM appointments
		WHERE tenant_id = $1 AND status = 'completed' AND starts_at >= $2 AND starts_at < $3
	`
	var total float64
	err := r.db.QueryRow(ctx, query, tenantID, from, to).Scan(&total)
	return total, err
}

func (r *insightsRepo) ExpensesTotal(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)::float8
		FROM expenses
		WHERE tenant_id = $1 AND ` + expenseInRange
	var total float64
	err := r.db.QueryRow(ctx, query, tenantID, from, to).Scan(&total)
	return total, err
}

func (r *insightsRepo) AppointmentCounts(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM appointments
		WHERE tenant_id = $1 AND starts_at >= $2 AND starts_at < $3
		GROUP BY status
	`
	rows, err := r.db.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *insightsRepo) NewClients(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM clients WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3`
	var n int
	err := r.db.QueryRow(ctx, query, tenantID, from, to).Scan(&n)
	return n, err
}

func (r *insightsRepo) CouponCounts(ctx context.Context, tenantID uuid.UUID, from, to time.Time, now time.Time) (int, int, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE redeemed = FALSE AND (expires_at IS NULL OR expires_at > $4)),
			COUNT(*) FILTER (WHERE redeemed = TRUE AND redeemed_at >= $2 AND redeemed_at < $3)
		FROM coupons
		WHERE tenant_id = $1
	`
	var active, redeemed int
	err := r.db.QueryRow(ctx, query, tenantID, from, to, now).Scan(&active, &redeemed)
	return active, redeemed, err
}

var timeSeriesSources = map[string]struct {
	table, bucketOn, value, where string
}{
	MetricRevenue:      {"appointments", "starts_at AT TIME ZONE 'UTC'", "COALESCE(SUM(price), 0)::float8", "starts_at >= $2 AND starts_at < $3 AND status = 'completed'"},
	MetricExpenses:     {"expenses", "incurred_on::timestamp", "COALESCE(SUM(amount), 0)::float8", expenseInRange},
	MetricAppointments: {"appointments", "starts_at AT TIME ZONE 'UTC'", "COUNT(*)::float8", "starts_at >= $2 AND starts_at < $3 AND status <> 'cancelled'"},
	MetricNewClients:   {"clients", "created_at AT TIME ZONE 'UTC'", "COUNT(*)::float8", "created_at >= $2 AND created_at < $3"},
}

var validBuckets = map[string]bool{"day": true, "week": true, "month": true}

func (r *insightsRepo) TimeSeries(ctx context.Context, tenantID uuid.UUID, metric, bucket string, from, to time.Time) ([]models.TimeSeriesPoint, error) {
	src, ok := timeSeriesSources[metric]
	if !ok {
		return nil, fmt.Errorf("unknown metric %q", metric)
	}
	if !validBuckets[bucket] {
		return nil, fmt.Errorf("unknown bucket %q", bucket)
	}

	query := fmt.Sprintf(`
		SELECT date_trunc('%[1]s', %[2]s) AS bucket, %[3]s
		FROM %[4]s
		WHERE tenant_id = $1 AND %[5]s
		GROUP BY bucket
		ORDER BY bucket
	`, bucket, src.bucketOn, src.value, src.table, src.where)

	rows, err := r.db.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.TimeSeriesPoint
	for rows.Next() {
		var p models.TimeSeriesPoint
		if err := rows.Scan(&p.Bucket, &p.Value); err != nil {
			return nil, err
		}
		p.Bucket = p.Bucket.UTC()
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *insightsRepo) TopServices(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit int) ([]*models.ServiceStat, error) {
	query := `
		SELECT service_name, COUNT(*), COALESCE(SUM(price) FILTER (WHERE status = 'completed'), 0)::float8
		FROM appointments
		WHERE tenant_id = $1 AND starts_at >= $2 AND starts_at < $3 AND status <> 'cancelled'
		GROUP BY service_name
		ORDER BY 3 DESC, 2 DESC
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []*models.ServiceStat{}
	for rows.Next() {
		s := &models.ServiceStat{}
		if err := rows.Scan(&s.ServiceName, &s.Appointments, &s.Revenue); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
