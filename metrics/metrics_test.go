package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "unknown", UserAgent(""))
	assert.Equal(t, "Chrome", UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"))
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.SurveyVote.Inc()
	m.RateLimit.WithLabelValues("vote", "anonymous", "rejected").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SurveyVote))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "story4u_survey_votes_total 1")
	assert.Contains(t, rec.Body.String(), `story4u_ratelimit_decisions_total{class="vote",outcome="rejected",tier="anonymous"} 1`)
}
