package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSubmissionOutcomesIncrement(t *testing.T) {
	for _, outcome := range []string{
		OutcomePreflight,
		OutcomeMethodNotAllowed,
		OutcomeInvalid,
		OutcomeMalformed,
		OutcomeNotConfigured,
		OutcomeSendFailed,
		OutcomeSent,
	} {
		before := testutil.ToFloat64(Submissions.WithLabelValues(outcome))
		Submissions.WithLabelValues(outcome).Inc()
		if v := testutil.ToFloat64(Submissions.WithLabelValues(outcome)); v != before+1 {
			t.Fatalf("expected %s to grow by one, got %v -> %v", outcome, before, v)
		}
	}
}

func TestMailMetricsIncrement(t *testing.T) {
	host := "test-mail"
	MailSendSuccess.WithLabelValues(host).Inc()
	if v := testutil.ToFloat64(MailSendSuccess.WithLabelValues(host)); v < 1 {
		t.Fatalf("expected MailSendSuccess >= 1, got %v", v)
	}
	MailSendFailure.WithLabelValues(host).Inc()
	if v := testutil.ToFloat64(MailSendFailure.WithLabelValues(host)); v < 1 {
		t.Fatalf("expected MailSendFailure >= 1, got %v", v)
	}
	MailSendDuration.WithLabelValues(host).Observe(0.2)
}

func TestMetricsHandlerExposesContactMetrics(t *testing.T) {
	Submissions.WithLabelValues(OutcomeSent).Inc()

	w := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "contactform_submissions_total") {
		t.Fatal("expected contactform_submissions_total in exposition")
	}
}
