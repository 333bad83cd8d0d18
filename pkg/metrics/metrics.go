package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes recorded by the contact handler.
const (
	OutcomePreflight        = "preflight"
	OutcomeMethodNotAllowed = "method_not_allowed"
	OutcomeInvalid          = "invalid"
	OutcomeMalformed        = "malformed"
	OutcomeNotConfigured    = "not_configured"
	OutcomeSendFailed       = "send_failed"
	OutcomeSent             = "sent"
)

var (
	Submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contactform_submissions_total",
		Help: "Total number of contact endpoint invocations grouped by outcome",
	}, []string{"outcome"})

	// Mail metrics
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contactform_mail_send_success_total",
		Help: "Total number of notifications accepted by the SMTP relay",
	}, []string{"host"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contactform_mail_send_failure_total",
		Help: "Total number of notifications the SMTP relay did not accept",
	}, []string{"host"})
	MailSendDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "contactform_mail_send_duration_seconds",
		Help:    "Duration of the full SMTP exchange (dial, STARTTLS, auth, send)",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"host"})
)

func init() {
	prometheus.MustRegister(Submissions)
	prometheus.MustRegister(MailSendSuccess)
	prometheus.MustRegister(MailSendFailure)
	prometheus.MustRegister(MailSendDuration)
}

// MetricsHandler returns an http.Handler exposing Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
