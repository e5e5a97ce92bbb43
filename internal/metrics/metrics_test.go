package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPlaybackActionsLabels(t *testing.T) {
	PlaybackActions.WithLabelValues("network", "resume").Inc()
	require.Equal(t, 1.0, testutil.ToFloat64(PlaybackActions.WithLabelValues("network", "resume")))
	require.GreaterOrEqual(t, testutil.CollectAndCount(PlaybackActions), 1)
}

func TestCollectorsLint(t *testing.T) {
	for _, c := range []prometheus.Collector{PlaylistLoads, PlaylistLoadDuration, CatalogChannels, Selections} {
		problems, err := testutil.CollectAndLint(c)
		require.NoError(t, err)
		require.Empty(t, problems)
	}
}

func TestObserveRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/api/test", "200"))
	ObserveRequest("GET", "/api/test", 200, 5*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/api/test", "200"))
	require.Equal(t, before+1, after)

	ObserveRequest("GET", "", 404, time.Millisecond)
	require.Equal(t, 1.0, testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	PlaylistLoads.WithLabelValues("ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "iptvbrowser_playlist_loads_total"))
}
