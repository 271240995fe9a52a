package background

import (
	"context"
	"sync"
	"time"

	"glowdesk/internal/caching"
	"glowdesk/internal/monitoring"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// CampaignDispatcher sends campaigns whose scheduled time has passed.
type CampaignDispatcher interface {
	DispatchDue(ctx context.Context, now time.Time) (int, error)
}

// StockNotifier emails low-stock summaries.
type StockNotifier interface {
	NotifyLowStock(ctx context.Context) (int, error)
}

// CouponReporter counts expired, unredeemed coupons.
type CouponReporter interface {
	ReportExpired(ctx context.Context, now time.Time) (int, error)
}

// TokenExpirer flags social accounts whose tokens have lapsed.
type TokenExpirer interface {
	ExpireTokens(ctx context.Context) (int64, error)
}

// Tasks groups the work the scheduler drives.
type Tasks struct {
	Campaigns CampaignDispatcher
	Inventory StockNotifier
	Coupons   CouponReporter
	Social    TokenExpirer
	Cache     caching.CacheService
}

// JobScheduler manages background jobs for distributed environment
type JobScheduler struct {
	scheduler gocron.Scheduler
	tasks     Tasks
	log       *logrus.Logger
	now       func() time.Time
	jobJobs   map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(tasks Tasks, log *logrus.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler: scheduler,
		tasks:     tasks,
		log:       log,
		now:       time.Now,
		jobJobs:   make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.log.Info("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	js.log.Info("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs
func (js *JobScheduler) registerJobs() {
	if js.tasks.Campaigns != nil {
		js.register("campaign-dispatch", gocron.DurationJob(time.Minute), js.dispatchCampaigns)
	}
	if js.tasks.Inventory != nil {
		js.register("inventory-alerts", gocron.DurationJob(30*time.Minute), js.processInventoryAlerts)
	}
	if js.tasks.Coupons != nil {
		js.register("coupon-expiry-report", gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))), js.reportExpiredCoupons)
	}
	if js.tasks.Social != nil {
		js.register("social-token-expiry", gocron.DurationJob(time.Hour), js.expireSocialTokens)
	}
	if js.tasks.Cache != nil {
		js.register("insights-cache-refresh", gocron.DurationJob(15*time.Minute), js.invalidateInsights)
	}

	js.log.WithField("jobs", len(js.jobJobs)).Info("Registered background jobs")
}

func (js *JobScheduler) register(name string, def gocron.JobDefinition, fn func(context.Context) error) {
	job, err := js.scheduler.NewJob(
		def,
		gocron.NewTask(js.run, name, fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		js.log.WithError(err).WithField("job", name).Error("Failed to create job")
		return
	}
	js.jobJobs[name] = job
}

// run executes one job with a bounded context and records the outcome.
func (js *JobScheduler) run(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		monitoring.JobRuns.WithLabelValues(name, "error").Inc()
		js.log.WithError(err).WithField("job", name).Error("Background job failed")
		return
	}
	monitoring.JobRuns.WithLabelValues(name, "ok").Inc()
	js.log.WithFields(logrus.Fields{"job": name, "took": time.Since(start)}).Debug("Background job finished")
}

func (js *JobScheduler) dispatchCampaigns(ctx context.Context) error {
	n, err := js.tasks.Campaigns.DispatchDue(ctx, js.now())
	if n > 0 {
		js.log.WithField("campaigns", n).Info("Dispatched scheduled campaigns")
	}
	return err
}

// processInventoryAlerts checks for low stock and emails subscribed staff
func (js *JobScheduler) processInventoryAlerts(ctx context.Context) error {
	sent, err := js.tasks.Inventory.NotifyLowStock(ctx)
	if sent > 0 {
		js.log.WithField("emails", sent).Info("Queued low stock alerts")
	}
	return err
}

func (js *JobScheduler) reportExpiredCoupons(ctx context.Context) error {
	_, err := js.tasks.Coupons.ReportExpired(ctx, js.now())
	return err
}

func (js *JobScheduler) expireSocialTokens(ctx context.Context) error {
	n, err := js.tasks.Social.ExpireTokens(ctx)
	if n > 0 {
		js.log.WithField("accounts", n).Warn("Social accounts need to reconnect")
	}
	return err
}

// invalidateInsights drops cached dashboard numbers so they pick up late edits.
func (js *JobScheduler) invalidateInsights(ctx context.Context) error {
	removed, err := js.tasks.Cache.InvalidatePattern(ctx, caching.InsightsPattern())
	if removed > 0 {
		js.log.WithField("keys", removed).Debug("Invalidated insight caches")
	}
	return err
}

// AddJob adds a custom job to the scheduler
func (js *JobScheduler) AddJob(name string, interval time.Duration, taskFn interface{}, params ...interface{}) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(taskFn, params...),
		gocron.WithName(name),
	)

	if err != nil {
		return err
	}

	js.jobJobs[name] = job
	js.log.WithField("job", name).Info("Added custom job")
	return nil
}

// RemoveJob removes a job from the scheduler
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobJobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobJobs, name)
		return err
	}

	return nil
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	status := make(map[string]interface{})
	status["total_jobs"] = len(js.jobJobs)
	jobs := make([]string, 0, len(js.jobJobs))

	for name := range js.jobJobs {
		jobs = append(jobs, name)
	}

	status["jobs"] = jobs

	return status
}
