package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_Counts(t *testing.T) {
	p := NewPrometheus(nil)

	p.ObserveResolve("active")
	p.ObserveResolve("active")
	p.ObserveResolve("fallback_corrupt")
	p.ObserveUpdate("applied", 2*time.Second)
	p.ObserveUpdate("archive_corrupt", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.resolveTotal.WithLabelValues("active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.resolveTotal.WithLabelValues("fallback_corrupt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.updateTotal.WithLabelValues("applied")))
	assert.Equal(t, 2, testutil.CollectAndCount(p.updateDuration))
}

func TestPrometheus_Handler(t *testing.T) {
	p := NewPrometheus(nil)
	p.ObserveUpdate("applied", time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "hotbundle_update_total"))
}

func TestOrNoop(t *testing.T) {
	assert.Equal(t, Noop{}, OrNoop(nil))
	p := NewPrometheus(nil)
	assert.Same(t, p, OrNoop(p))
}
