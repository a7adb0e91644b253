package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMiddlewareCountsRequests(t *testing.T) {
	handler := PrometheusMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/static/*", "418"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/css/site.css", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/static/*", "418")))
}

func TestBusinessCounters(t *testing.T) {
	stored := testutil.ToFloat64(inquirySubmissionsTotal.WithLabelValues("stored"))
	failed := testutil.ToFloat64(inquiryExportsTotal.WithLabelValues("failure"))

	RecordInquirySubmission(true)
	RecordInquiryExport(false)
	SetPendingExports(4)

	assert.Equal(t, stored+1, testutil.ToFloat64(inquirySubmissionsTotal.WithLabelValues("stored")))
	assert.Equal(t, failed+1, testutil.ToFloat64(inquiryExportsTotal.WithLabelValues("failure")))
	assert.Equal(t, float64(4), testutil.ToFloat64(inquiryExportsPending))
}
