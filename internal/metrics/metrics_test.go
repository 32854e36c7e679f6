package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentHTTP_LabelsByRoutePattern(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Use(InstrumentHTTP)
	r.Get("/metrics-test/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2", "3"} {
		req := httptest.NewRequest(http.MethodGet, "/metrics-test/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/metrics-test/{id}", "418"))
	if got != 3 {
		t.Fatalf("want 3 requests on the route pattern, got %v", got)
	}
}

func TestHandler_ExposesCollectors(t *testing.T) {
	t.Parallel()

	SchedulingFault("wingo", "create")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	if !strings.Contains(rec.Body.String(), "drawengine_scheduler_faults_total") {
		t.Fatal("scheduler fault counter missing from exposition")
	}
}
