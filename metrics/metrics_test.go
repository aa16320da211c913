package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordOperation(t *testing.T) {
	okBefore := testutil.ToFloat64(OperationsCounter.WithLabelValues("add_team", OutcomeOK))
	errBefore := testutil.ToFloat64(ErrorsCounter.WithLabelValues("add_team", "duplicate_name"))

	RecordOperation("add_team", "")
	RecordOperation("add_team", "duplicate_name")

	if got := testutil.ToFloat64(OperationsCounter.WithLabelValues("add_team", OutcomeOK)); got != okBefore+1 {
		t.Errorf("Expected ok counter %v, got %v", okBefore+1, got)
	}
	if got := testutil.ToFloat64(ErrorsCounter.WithLabelValues("add_team", "duplicate_name")); got != errBefore+1 {
		t.Errorf("Expected error counter %v, got %v", errBefore+1, got)
	}
}

func TestRecordReset(t *testing.T) {
	AreasGauge.Set(4)
	RecordReset(nil)
	if got := testutil.ToFloat64(AreasGauge); got != 0 {
		t.Errorf("Expected areas gauge reset to 0, got %v", got)
	}

	before := testutil.ToFloat64(ResetsCounter.WithLabelValues(OutcomeError))
	RecordReset(errors.New("disk full"))
	if got := testutil.ToFloat64(ResetsCounter.WithLabelValues(OutcomeError)); got != before+1 {
		t.Errorf("Expected failed reset to be counted")
	}
}

func TestHandler(t *testing.T) {
	ObserveRequest("/api/areas", http.MethodGet, "200", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "courtqueue_http_request_duration_seconds") {
		t.Error("Expected request duration histogram in output")
	}
}
