// Package metrics provides Prometheus instrumentation for iptvbrowser.
//
// Metrics are registered on the default registry at init time via promauto
// and exposed by Handler at GET /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PlaylistLoads counts playlist loads by result (ok, error, busy).
var PlaylistLoads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "iptvbrowser_playlist_loads_total",
	Help: "Playlist load attempts by result.",
}, []string{"result"})

// PlaylistLoadDuration tracks fetch+parse time of successful and failed loads.
var PlaylistLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "iptvbrowser_playlist_load_duration_seconds",
	Help:    "Time to fetch and parse a playlist.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
})

// CatalogChannels is the number of channels currently loaded.
var CatalogChannels = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "iptvbrowser_catalog_channels",
	Help: "Channels in the loaded catalog.",
})

// Selections counts channel selections.
var Selections = promauto.NewCounter(prometheus.CounterOpts{
	Name: "iptvbrowser_channel_selections_total",
	Help: "Channel selections.",
})

// PlaybackActions counts playback error policy decisions.
var PlaybackActions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "iptvbrowser_playback_actions_total",
	Help: "Playback error recovery decisions by error kind and action.",
}, []string{"kind", "action"})

// HTTPRequests counts HTTP requests by method, route and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "iptvbrowser_http_requests_total",
	Help: "Total HTTP requests handled.",
}, []string{"method", "route", "status"})

// HTTPDuration tracks HTTP request latency.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "iptvbrowser_http_request_duration_seconds",
	Help:    "HTTP request latency in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route"})

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one handled HTTP request. route should be the
// templated route pattern, not the raw path.
func ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
