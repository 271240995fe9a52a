package main

import (
	"strings"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "glowdesk/docs"
	"glowdesk/internal/common"
	"glowdesk/internal/config"
	"glowdesk/internal/handlers"
	"glowdesk/internal/middleware"
	"glowdesk/internal/monitoring"
	"glowdesk/internal/services"
)

type pinger = handlers.Pinger

// serviceSet holds the services the HTTP layer depends on. social is nil when
// the integration is disabled.
type serviceSet struct {
	auth         services.AuthService
	tenant       services.TenantService
	rbac         services.RBACService
	client       services.ClientService
	appointment  services.AppointmentService
	task         services.TaskService
	expense      services.ExpenseService
	inventory    services.InventoryService
	coupon       services.CouponService
	campaign     services.CampaignService
	portfolio    services.PortfolioService
	social       services.SocialService
	auditLogs    services.AuditLogsService
	notification services.NotificationService
	insights     handlers.InsightsProvider
}

func newServer(cfg *config.Config, log *logrus.Logger, svc *serviceSet, jwks *keyfunc.JWKS, critical, optional map[string]pinger) (*echo.Echo, *middleware.RateLimiter) {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(log)

	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency,
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("Request failed")
				return nil
			}
			entry.Info("Request")
			return nil
		},
	}))
	e.Use(middleware.Sentry())
	e.Use(middleware.Metrics())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: []string{strings.TrimRight(cfg.AppURL, "/")},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, common.HeaderAcceptLanguage},
	}))
	e.Use(middleware.Language(nil))

	versionMiddleware := middleware.NewVersionMiddleware()
	e.Use(versionMiddleware.APIVersionResolver())

	// Operations
	health := handlers.NewHealthHandlers(version, critical, optional)
	e.GET("/health", health.HealthCheck)
	e.GET("/health/ready", health.ReadinessCheck)
	e.GET("/health/live", health.LivenessCheck)
	e.GET("/health/detailed", health.DetailedHealthCheck)
	e.GET("/metrics", echo.WrapHandler(monitoring.Handler()))
	if !cfg.IsProduction() {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	appointmentHandlers := handlers.NewAppointmentHandlers(svc.appointment)

	// Public, unauthenticated
	e.GET("/calendar/:feed", appointmentHandlers.PublicCalendarFeed)

	webhookLimiter := middleware.NewRateLimiter(cfg.Social.WebhookRPS, cfg.Social.WebhookBurst, log)
	if svc.social != nil {
		socialHandlers := handlers.NewSocialHandlers(svc.social, cfg.AppURL, log)
		webhookHandlers := handlers.NewWebhookHandlers(svc.social, log)
		e.GET("/social/oauth/callback", socialHandlers.OAuthCallback)
		webhooks := e.Group("/webhooks", webhookLimiter.Handler())
		webhooks.GET("/social", webhookHandlers.VerifySubscription)
		webhooks.POST("/social", webhookHandlers.SocialWebhook)
	}

	v1 := e.Group("/v1")
	v1.Use(versionMiddleware.VersionHeader("v1"))

	authHandlers := handlers.NewAuthHandlers(svc.auth, svc.tenant, svc.rbac)
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandlers.Signup)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)
	auth.POST("/logout", authHandlers.Logout)

	// Protected routes (require JWT and RBAC)
	audit := middleware.NewAuditMiddleware(svc.auditLogs, log)
	protected := v1.Group("")
	protected.Use(middleware.JWTMiddleware(svc.auth, jwks))
	protected.Use(middleware.Language(svc.notification))
	protected.Use(audit.AuditRequest())

	rbac := middleware.NewRBACMiddleware(svc.rbac, log)
	perm := rbac.RequirePermission

	protected.GET("/me", authHandlers.Me)
	protected.GET("/me/permissions", authHandlers.MyPermissions)

	notificationHandlers := handlers.NewNotificationHandlers(svc.notification)
	protected.GET("/me/notification-preferences", notificationHandlers.GetPreferences)
	protected.PUT("/me/notification-preferences", notificationHandlers.UpdatePreferences)

	tenantHandlers := handlers.NewTenantHandlers(svc.tenant, cfg.PublicURL)
	protected.GET("/tenant", tenantHandlers.GetTenant)
	protected.PUT("/tenant", tenantHandlers.UpdateTenant, perm("tenant:update"))
	protected.POST("/tenant/calendar-token", tenantHandlers.RotateCalendarToken, perm("tenant:update"))

	userHandlers := handlers.NewUserHandlers(svc.rbac)
	protected.GET("/roles", userHandlers.ListRoles, perm("users:read"))
	protected.GET("/users/:id/roles", userHandlers.GetUserRoles, perm("users:read"))
	protected.POST("/users/:id/roles", userHandlers.AssignRole, perm("roles:manage"))
	protected.DELETE("/users/:id/roles/:roleId", userHandlers.RevokeRole, perm("roles:manage"))

	clientHandlers := handlers.NewClientHandlers(svc.client, audit)
	protected.GET("/clients", clientHandlers.ListClients, perm("clients:read"))
	protected.GET("/clients/search", clientHandlers.SearchClients, perm("clients:read"))
	protected.POST("/clients", clientHandlers.CreateClient, perm("clients:write"))
	protected.GET("/clients/:id", clientHandlers.GetClient, perm("clients:read"))
	protected.PUT("/clients/:id", clientHandlers.UpdateClient, perm("clients:write"))
	protected.DELETE("/clients/:id", clientHandlers.DeleteClient, perm("clients:delete"))

	protected.GET("/appointments", appointmentHandlers.ListAppointments, perm("appointments:read"))
	protected.POST("/appointments", appointmentHandlers.CreateAppointment, perm("appointments:write"))
	protected.GET("/appointments/:id", appointmentHandlers.GetAppointment, perm("appointments:read"))
	protected.PUT("/appointments/:id", appointmentHandlers.UpdateAppointment, perm("appointments:write"))
	protected.PATCH("/appointments/:id/status", appointmentHandlers.UpdateAppointmentStatus, perm("appointments:write"))
	protected.DELETE("/appointments/:id", appointmentHandlers.DeleteAppointment, perm("appointments:write"))
	protected.GET("/calendar.ics", appointmentHandlers.CalendarFeed, perm("appointments:read"))

	taskHandlers := handlers.NewTaskHandlers(svc.task)
	protected.GET("/tasks", taskHandlers.ListTasks, perm("tasks:read"))
	protected.POST("/tasks", taskHandlers.CreateTask, perm("tasks:write"))
	protected.GET("/tasks/:id", taskHandlers.GetTask, perm("tasks:read"))
	protected.PUT("/tasks/:id", taskHandlers.UpdateTask, perm("tasks:write"))
	protected.DELETE("/tasks/:id", taskHandlers.DeleteTask, perm("tasks:write"))

	expenseHandlers := handlers.NewExpenseHandlers(svc.expense)
	protected.GET("/expenses", expenseHandlers.ListExpenses, perm("expenses:read"))
	protected.POST("/expenses", expenseHandlers.CreateExpense, perm("expenses:write"))
	protected.GET("/expenses/:id", expenseHandlers.GetExpense, perm("expenses:read"))
	protected.PUT("/expenses/:id", expenseHandlers.UpdateExpense, perm("expenses:write"))
	protected.DELETE("/expenses/:id", expenseHandlers.DeleteExpense, perm("expenses:write"))

	inventoryHandlers := handlers.NewInventoryHandlers(svc.inventory)
	protected.GET("/inventory", inventoryHandlers.ListInventory, perm("inventory:read"))
	protected.GET("/inventory/low-stock", inventoryHandlers.LowStock, perm("inventory:read"))
	protected.POST("/inventory", inventoryHandlers.CreateInventoryItem, perm("inventory:write"))
	protected.GET("/inventory/:id", inventoryHandlers.GetInventoryItem, perm("inventory:read"))
	protected.PUT("/inventory/:id", inventoryHandlers.UpdateInventoryItem, perm("inventory:write"))
	protected.DELETE("/inventory/:id", inventoryHandlers.DeleteInventoryItem, perm("inventory:write"))
	protected.POST("/inventory/:id/adjust", inventoryHandlers.AdjustStock, perm("inventory:write"))

	couponHandlers := handlers.NewCouponHandlers(svc.coupon)
	protected.GET("/coupons", couponHandlers.ListCoupons, perm("coupons:read"))
	protected.POST("/coupons", couponHandlers.CreateCoupon, perm("coupons:write"))
	protected.GET("/coupons/code/:code", couponHandlers.GetCouponByCode, perm("coupons:read"))
	protected.GET("/coupons/:id", couponHandlers.GetCoupon, perm("coupons:read"))
	protected.PUT("/coupons/:id", couponHandlers.UpdateCoupon, perm("coupons:write"))
	protected.DELETE("/coupons/:id", couponHandlers.DeleteCoupon, perm("coupons:write"))
	protected.POST("/coupons/:id/redeem", couponHandlers.RedeemCoupon, perm("coupons:redeem"))

	campaignHandlers := handlers.NewCampaignHandlers(svc.campaign)
	protected.GET("/campaigns", campaignHandlers.ListCampaigns, perm("campaigns:read"))
	protected.POST("/campaigns", campaignHandlers.CreateCampaign, perm("campaigns:write"))
	protected.GET("/campaigns/:id", campaignHandlers.GetCampaign, perm("campaigns:read"))
	protected.PUT("/campaigns/:id", campaignHandlers.UpdateCampaign, perm("campaigns:write"))
	protected.DELETE("/campaigns/:id", campaignHandlers.DeleteCampaign, perm("campaigns:write"))
	protected.POST("/campaigns/:id/preview", campaignHandlers.PreviewCampaign, perm("campaigns:read"))
	protected.GET("/campaigns/:id/messages", campaignHandlers.ListCampaignMessages, perm("campaigns:read"))
	protected.POST("/campaigns/:id/schedule", campaignHandlers.ScheduleCampaign, perm("campaigns:send"))
	protected.POST("/campaigns/:id/send", campaignHandlers.SendCampaign, perm("campaigns:send"))
	protected.POST("/campaigns/:id/cancel", campaignHandlers.CancelCampaign, perm("campaigns:send"))

	portfolioHandlers := handlers.NewPortfolioHandlers(svc.portfolio)
	protected.GET("/portfolio", portfolioHandlers.ListPortfolio, perm("portfolio:read"))
	protected.POST("/portfolio", portfolioHandlers.UploadPortfolioItem, perm("portfolio:write"))
	protected.GET("/portfolio/:id", portfolioHandlers.GetPortfolioItem, perm("portfolio:read"))
	protected.DELETE("/portfolio/:id", portfolioHandlers.DeletePortfolioItem, perm("portfolio:write"))

	if svc.social != nil {
		socialHandlers := handlers.NewSocialHandlers(svc.social, cfg.AppURL, log)
		protected.GET("/social/oauth/start", socialHandlers.StartOAuth, perm("social:manage"))
		protected.GET("/social/accounts", socialHandlers.ListAccounts, perm("social:read"))
		protected.DELETE("/social/accounts/:id", socialHandlers.DisconnectAccount, perm("social:manage"))
		protected.GET("/social/accounts/:id/posts", socialHandlers.ListPosts, perm("social:read"))
		protected.POST("/social/accounts/:id/posts", socialHandlers.CreatePost, perm("social:manage"))
		protected.GET("/social/accounts/:id/conversations", socialHandlers.ListConversations, perm("social:messages"))
		protected.GET("/social/accounts/:id/messages", socialHandlers.ListMessages, perm("social:messages"))
		protected.POST("/social/accounts/:id/messages", socialHandlers.SendMessage, perm("social:messages"))
	}

	insightsHandlers := handlers.NewInsightsHandlers(svc.insights)
	protected.GET("/insights/summary", insightsHandlers.Summary, perm("insights:read"))
	protected.GET("/insights/timeseries", insightsHandlers.TimeSeries, perm("insights:read"))
	protected.GET("/insights/top-services", insightsHandlers.TopServices, perm("insights:read"))

	auditLogsHandlers := handlers.NewAuditLogsHandlers(svc.auditLogs)
	protected.GET("/audit-logs", auditLogsHandlers.ListAuditLogs, perm("audit:read"))

	return e, webhookLimiter
}
