// Package service holds the application state of the channel browser and the
// transitions that change it.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voyagen/iptvbrowser/internal/catalog"
	"github.com/voyagen/iptvbrowser/internal/fetcher"
	"github.com/voyagen/iptvbrowser/internal/metrics"
	"github.com/voyagen/iptvbrowser/internal/models"
	"github.com/voyagen/iptvbrowser/internal/player"
	"github.com/voyagen/iptvbrowser/internal/recent"
)

var (
	// ErrLoadInProgress is returned by Load while another load is running.
	ErrLoadInProgress = errors.New("a playlist load is already in progress")
	// ErrChannelNotFound is returned by Select for URLs that are neither in
	// the catalog nor in the recent list.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrUnknownSource is returned by LoadSource for unconfigured names.
	ErrUnknownSource = errors.New("unknown playlist source")
	// ErrUnknownFilterValue is returned by SetFilter for values the catalog
	// does not offer.
	ErrUnknownFilterValue = errors.New("filter value not present in catalog")
)

// Options configure a Browser.
type Options struct {
	Fetch       fetcher.Options
	SearchDelay time.Duration
	Clock       catalog.Clock // nil means catalog.RealClock
	Sources     map[string]string
	Log         logrus.FieldLogger
}

// Source is a named preset playlist.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Browser is the application state. All mutation goes through Load, Search,
// SetFilter and Select.
type Browser struct {
	catalog *catalog.Catalog
	search  *catalog.Debouncer
	recent  *recent.List
	session *player.Session
	fetch   fetcher.Options
	sources map[string]string
	log     logrus.FieldLogger

	busy atomic.Bool

	mu          sync.Mutex
	lastErr     string
	playlistURL string
	loadedAt    time.Time
	selected    *models.Channel
}

// New returns a Browser with an empty catalog. The recent list should already
// be loaded.
func New(rl *recent.List, session *player.Session, opts Options) *Browser {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	b := &Browser{
		catalog: catalog.New(),
		recent:  rl,
		session: session,
		fetch:   opts.Fetch,
		sources: opts.Sources,
		log:     opts.Log,
	}
	b.search = catalog.NewDebouncer(opts.SearchDelay, opts.Clock, b.catalog.SetSearch)
	return b
}

// --- transitions ---

// Load fetches and parses the playlist at url and replaces the catalog.
// Only one load runs at a time. On failure the catalog is left as it was and
// the user-facing message is kept until the next load or DismissError.
func (b *Browser) Load(ctx context.Context, url string) (int, error) {
	if !b.busy.CompareAndSwap(false, true) {
		metrics.PlaylistLoads.WithLabelValues("busy").Inc()
		return 0, ErrLoadInProgress
	}
	defer b.busy.Store(false)

	b.mu.Lock()
	b.lastErr = ""
	b.mu.Unlock()

	log := b.log.WithField("url", url)
	start := time.Now()
	channels, err := fetcher.FetchChannels(ctx, url, b.fetch)
	metrics.PlaylistLoadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		msg := err.Error()
		var le *fetcher.LoadError
		if errors.As(err, &le) {
			msg = le.Message()
		}
		b.mu.Lock()
		b.lastErr = msg
		b.mu.Unlock()

		metrics.PlaylistLoads.WithLabelValues("error").Inc()
		log.WithError(err).Error("Error loading playlist")
		return 0, err
	}

	b.catalog.Replace(channels)
	b.mu.Lock()
	b.playlistURL = url
	b.loadedAt = time.Now()
	b.mu.Unlock()

	metrics.PlaylistLoads.WithLabelValues("ok").Inc()
	metrics.CatalogChannels.Set(float64(len(channels)))
	log.WithFields(logrus.Fields{
		"channels": len(channels),
		"duration": time.Since(start).String(),
	}).Info("playlist loaded")
	return len(channels), nil
}

// LoadSource loads a configured preset by name.
func (b *Browser) LoadSource(ctx context.Context, name string) (int, error) {
	url, ok := b.sources[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
	return b.Load(ctx, url)
}

// Search records new search input. It is applied once input has been quiet
// for the debounce window.
func (b *Browser) Search(text string) {
	b.search.Trigger(text)
}

// FlushSearch applies pending search input immediately.
func (b *Browser) FlushSearch() bool {
	return b.search.Flush()
}

// SetFilter replaces the filter. Every set field must be one of the values
// DistinctValues currently offers for it.
func (b *Browser) SetFilter(f models.Filter) error {
	for _, field := range models.Fields {
		v := f.Get(field)
		if v == "" {
			continue
		}
		if !b.catalog.HasValue(field, v) {
			return fmt.Errorf("%w: %s=%q", ErrUnknownFilterValue, field, v)
		}
	}
	b.catalog.SetFilter(f)
	if f.IsZero() {
		b.log.Debug("filter cleared")
	} else {
		b.log.WithField("filter", f).Debug("filter applied")
	}
	return nil
}

// Selection is the outcome of Select.
type Selection struct {
	Channel       models.Channel   `json:"channel"`
	Playback      *player.Handle   `json:"playback,omitempty"`
	PlaybackError string           `json:"playback_error,omitempty"`
	Recent        []models.Channel `json:"recent"`
}

// Select makes the channel with url the current one: playback starts and the
// channel moves to the front of the recent list. Playback and store failures
// are reported but do not undo the selection.
func (b *Browser) Select(ctx context.Context, url string) (Selection, error) {
	ch, ok := b.catalog.Lookup(url)
	if !ok {
		ch, ok = b.recent.Lookup(url)
	}
	if !ok {
		return Selection{}, fmt.Errorf("%w: %s", ErrChannelNotFound, url)
	}

	b.mu.Lock()
	selected := ch.Clone()
	b.selected = &selected
	b.mu.Unlock()
	metrics.Selections.Inc()

	log := b.log.WithFields(logrus.Fields{"channel": ch.Name, "url": ch.URL})
	sel := Selection{Channel: ch}

	h, err := b.session.Play(ctx, ch.URL, ch.Name)
	if err != nil {
		log.WithError(err).Warn("playback failed to start")
		sel.PlaybackError = err.Error()
	}
	sel.Playback = h

	entries, err := b.recent.Push(ctx, ch)
	if err != nil {
		log.WithError(err).Error("failed to save recent channels")
		entries = b.recent.Entries()
	}
	sel.Recent = entries
	return sel, nil
}

// ReportPlaybackError applies the recovery policy for a fatal playback error
// of kind. ok is false when nothing is playing.
func (b *Browser) ReportPlaybackError(ctx context.Context, kind player.ErrorKind) (player.Action, bool) {
	action, ok := b.session.HandleError(ctx, kind)
	if ok {
		metrics.PlaybackActions.WithLabelValues(string(kind), string(action)).Inc()
	}
	return action, ok
}

// StopPlayback releases the current stream.
func (b *Browser) StopPlayback() {
	b.session.Stop()
}

// DismissError clears the last load error message.
func (b *Browser) DismissError() {
	b.mu.Lock()
	b.lastErr = ""
	b.mu.Unlock()
}

// Close drops pending search input and releases playback.
func (b *Browser) Close() {
	b.search.Cancel()
	b.session.Stop()
}

// --- views ---

// Visible returns the channels passing the applied search and filter.
func (b *Browser) Visible() []models.Channel {
	return b.catalog.Visible()
}

// DistinctValues returns the filter options for field.
func (b *Browser) DistinctValues(field models.Field) []string {
	return b.catalog.DistinctValues(field)
}

// Recent returns the recently viewed channels.
func (b *Browser) Recent() []models.Channel {
	return b.recent.Entries()
}

// Sources returns the configured presets sorted by name.
func (b *Browser) Sources() []Source {
	out := make([]Source, 0, len(b.sources))
	for name, url := range b.sources {
		out = append(out, Source{Name: name, URL: url})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Playback returns the current playback status.
func (b *Browser) Playback() player.Status {
	return b.session.Status()
}

// Loading reports whether a load is in flight.
func (b *Browser) Loading() bool {
	return b.busy.Load()
}

// State is a snapshot of the browser.
type State struct {
	Loading       bool            `json:"loading"`
	Error         string          `json:"error,omitempty"`
	PlaylistURL   string          `json:"playlist_url,omitempty"`
	LoadedAt      *time.Time      `json:"loaded_at,omitempty"`
	Search        string          `json:"search"`
	PendingSearch *string         `json:"pending_search,omitempty"`
	Filter        models.Filter   `json:"filter"`
	Channels      int             `json:"channels"`
	Visible       int             `json:"visible"`
	Selected      *models.Channel `json:"selected,omitempty"`
	Playback      player.Status   `json:"playback"`
}

// State returns a snapshot.
func (b *Browser) State() State {
	st := State{
		Loading:  b.busy.Load(),
		Search:   b.catalog.Search(),
		Filter:   b.catalog.Filter(),
		Channels: b.catalog.Len(),
		Visible:  len(b.catalog.Visible()),
		Playback: b.session.Status(),
	}
	if v, ok := b.search.Pending(); ok {
		st.PendingSearch = &v
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	st.Error = b.lastErr
	st.PlaylistURL = b.playlistURL
	if !b.loadedAt.IsZero() {
		t := b.loadedAt
		st.LoadedAt = &t
	}
	if b.selected != nil {
		sel := b.selected.Clone()
		st.Selected = &sel
	}
	return st
}
