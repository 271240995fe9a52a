package monitoring

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glowdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "glowdesk_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)

var (
	// WebhookEvents counts social webhook deliveries by platform and outcome.
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glowdesk_webhook_events_total",
			Help: "Social webhook deliveries received",
		},
		[]string{"outcome"},
	)

	// EmailsSent counts email worker attempts by result (sent, retry, failed).
	EmailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glowdesk_emails_total",
			Help: "Emails handled by the delivery worker",
		},
		[]string{"result"},
	)

	CampaignMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glowdesk_campaign_messages_total",
			Help: "Campaign messages by final delivery status",
		},
		[]string{"status"},
	)

	JobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glowdesk_job_runs_total",
			Help: "Scheduled job executions",
		},
		[]string{"job", "result"},
	)
)

var registerOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal, RequestDuration, WebhookEvents, EmailsSent, CampaignMessages, JobRuns)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
