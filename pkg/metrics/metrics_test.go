package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/volunteer-match/pkg/core/matcher"
)

func TestObserveRanking(t *testing.T) {
	okBefore := testutil.ToFloat64(RankingsTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(RankingsTotal.WithLabelValues("error"))
	capacityBefore := testutil.ToFloat64(CandidatesRejected.WithLabelValues(string(matcher.RejectCapacity)))
	malformedBefore := testutil.ToFloat64(MalformedOpportunities)

	outcome := &matcher.RankOutcome{
		Considered: 5,
		Eligible:   2,
		Warnings:   []matcher.Warning{{Index: 3, OpportunityID: "bad", Err: errors.New("invalid")}},
		Rejections: map[matcher.Rejection]int{matcher.RejectCapacity: 2, matcher.RejectCategory: 1},
	}
	ObserveRanking(outcome, 3*time.Millisecond)
	ObserveRanking(nil, time.Millisecond)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(RankingsTotal.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(RankingsTotal.WithLabelValues("error")))
	assert.Equal(t, capacityBefore+2, testutil.ToFloat64(CandidatesRejected.WithLabelValues(string(matcher.RejectCapacity))))
	assert.Equal(t, malformedBefore+1, testutil.ToFloat64(MalformedOpportunities))
}

func TestObserveCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(CacheLookups.WithLabelValues(CacheHit))
	ObserveCacheLookup(CacheHit)
	assert.Equal(t, before+1, testutil.ToFloat64(CacheLookups.WithLabelValues(CacheHit)))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	ObserveCacheLookup(CacheMiss)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "volunteer_match_cache_lookups_total"))
}
