package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"glowdesk/internal/analytics"
	"glowdesk/internal/caching"
	"glowdesk/internal/config"
	"glowdesk/internal/email"
	"glowdesk/internal/events"
	"glowdesk/internal/jobs"
	"glowdesk/internal/jobs/background"
	"glowdesk/internal/logging"
	"glowdesk/internal/monitoring"
	"glowdesk/internal/repositories"
	"glowdesk/internal/search"
	"glowdesk/internal/services"
	"glowdesk/internal/social"
	"glowdesk/pkg/database"
)

const version = "1.0.0"

// @title GlowDesk API
// @version 1.0
// @description Salon management backend: clients, bookings, campaigns, social inbox and insights.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	log := logging.New(cfg.Environment, os.Getenv("LOG_LEVEL"))
	if cfg.GeneratedSecret {
		log.Warn("JWT_SECRET is not set, using a generated secret; issued tokens will not survive a restart")
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("GlowDesk stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Environment,
			Release:          "glowdesk@" + version,
			EnableTracing:    cfg.Sentry.TracesSampleRate > 0,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			return err
		}
		defer sentry.Flush(2 * time.Second)
	}
	monitoring.Init()

	if cfg.AutoMigrate {
		if err := database.Migrate(cfg.Database.URL, log); err != nil {
			return err
		}
	}

	pool, err := database.NewPool(ctx, cfg.Database.URL, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Infrastructure
	redisClient := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()
	cacheSvc := caching.NewRedisCacheService(redisClient, log)

	minioSvc, err := services.NewMinioService(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
	if err != nil {
		return err
	}
	if err := minioSvc.EnsureBucketExists(ctx); err != nil {
		log.WithError(err).Warn("Portfolio bucket is not available yet")
	}

	var publisher services.EventPublisher = services.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		defer producer.Close()
		publisher = producer
	}

	var clientIndex search.ClientIndex
	if cfg.Elasticsearch.URL != "" {
		if clientIndex, err = search.NewElasticsearchIndex(cfg.Elasticsearch, nil); err != nil {
			return err
		}
	}

	redisOpt, err := asynqRedisOpt(cfg.Redis)
	if err != nil {
		return err
	}
	queueClient := asynq.NewClient(redisOpt)
	defer queueClient.Close()
	emailQueue := jobs.NewEmailQueue(queueClient)

	var jwks *keyfunc.JWKS
	if cfg.Auth.JWKSURL != "" {
		jwks, err = keyfunc.Get(cfg.Auth.JWKSURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				log.WithError(err).Warn("Failed to refresh JWKS")
			},
		})
		if err != nil {
			return err
		}
		defer jwks.EndBackground()
	}

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	tenantRepo := repositories.NewTenantRepo(pool)
	roleRepo := repositories.NewRoleRepo(pool)
	userRoleRepo := repositories.NewUserRoleRepo(pool)
	permissionRepo := repositories.NewPermissionRepo(pool)
	clientRepo := repositories.NewClientRepo(pool)
	appointmentRepo := repositories.NewAppointmentRepo(pool)
	taskRepo := repositories.NewTaskRepo(pool)
	expenseRepo := repositories.NewExpenseRepo(pool)
	inventoryRepo := repositories.NewInventoryRepo(pool)
	couponRepo := repositories.NewCouponRepo(pool)
	campaignRepo := repositories.NewCampaignRepo(pool)
	portfolioRepo := repositories.NewPortfolioRepo(pool)
	socialRepo := repositories.NewSocialRepo(pool)
	auditLogsRepo := repositories.NewAuditLogsRepo(pool)
	prefsRepo := repositories.NewNotificationPreferencesRepo(pool)
	insightsRepo := repositories.NewInsightsRepo(pool)

	// Services
	renderer := email.NewRenderer()
	rbacSvc := services.NewRBACService(userRepo, roleRepo, userRoleRepo, permissionRepo)
	insightsSvc := analytics.NewAnalyticsService(insightsRepo, cacheSvc, log)
	svc := &serviceSet{
		auth:         services.NewAuthService(userRepo, tenantRepo, cacheSvc, cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, log),
		tenant:       services.NewTenantService(pool, rbacSvc, emailQueue, log),
		rbac:         rbacSvc,
		client:       services.NewClientService(clientRepo, publisher, clientIndex, log),
		appointment:  services.NewAppointmentService(appointmentRepo, tenantRepo, publisher, insightsSvc, calendarDomain(cfg.PublicURL), log),
		task:         services.NewTaskService(taskRepo, userRepo),
		expense:      services.NewExpenseService(expenseRepo, insightsSvc, log),
		inventory:    services.NewInventoryService(inventoryRepo, tenantRepo, userRepo, emailQueue, log),
		coupon:       services.NewCouponService(couponRepo, clientRepo, log),
		campaign:     services.NewCampaignService(campaignRepo, clientRepo, couponRepo, tenantRepo, emailQueue, renderer, publisher, log),
		portfolio:    services.NewPortfolioService(portfolioRepo, minioSvc, log),
		auditLogs:    services.NewAuditLogsService(auditLogsRepo),
		notification: services.NewNotificationService(prefsRepo, cacheSvc, log),
		insights:     insightsSvc,
	}
	if cfg.Social.Enabled {
		graph := social.NewGraphClient(cfg.Social.GraphURL, cfg.Social.DialogURL, cfg.Social.AppID, cfg.Social.AppSecret, nil)
		svc.social = services.NewSocialService(socialRepo, cacheSvc, graph, publisher,
			cfg.Social.AppSecret, cfg.Social.VerifyToken, strings.TrimRight(cfg.PublicURL, "/")+"/social/oauth/callback", log)
	}

	// Background work
	worker := jobs.NewWorker(redisOpt, cfg.Queuing, log)
	sender := email.NewHTTPSender(cfg.Email.APIURL, cfg.Email.APIKey, cfg.Email.From, nil)
	if err := worker.Start(jobs.NewServeMux(jobs.NewEmailHandler(sender, renderer, campaignRepo, log))); err != nil {
		return err
	}
	defer worker.Shutdown()

	tasks := background.Tasks{
		Campaigns: svc.campaign,
		Inventory: svc.inventory,
		Coupons:   svc.coupon,
		Cache:     cacheSvc,
	}
	if svc.social != nil {
		tasks.Social = svc.social
	}
	scheduler, err := background.NewJobScheduler(tasks, log)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.WithError(err).Warn("Failed to stop job scheduler")
		}
	}()

	if len(cfg.Kafka.Brokers) > 0 && clientIndex != nil {
		consumer := events.NewClientConsumer(events.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID), clientIndex, log)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.WithError(err).Error("Client index consumer stopped")
			}
		}()
	}

	// HTTP
	e, webhookLimiter := newServer(cfg, log, svc, jwks, map[string]pinger{
		"database": pool,
		"redis":    cacheSvc,
	}, map[string]pinger{
		"storage": minioSvc,
		"search":  clientIndex,
	})

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				webhookLimiter.Cleanup(10 * time.Minute)
			}
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "version": version}).Info("GlowDesk API starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// asynqRedisOpt accepts the same host:port or redis:// address as the cache client.
func asynqRedisOpt(cfg config.RedisConfig) (asynq.RedisConnOpt, error) {
	if strings.Contains(cfg.Addr, "://") {
		return asynq.ParseRedisURI(cfg.Addr)
	}
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}, nil
}

// calendarDomain is the host used in calendar event UIDs.
func calendarDomain(publicURL string) string {
	if u, err := url.Parse(publicURL); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return "glowdesk.app"
}
