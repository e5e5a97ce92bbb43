package player

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bluenviron/gohlslib/v2/pkg/playlist"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultManifestTimeout = 10 * time.Second
	maxManifestBytes       = 4 << 20
)

// IsManifest reports whether url points at an adaptive streaming manifest.
func IsManifest(url string) bool {
	return strings.Contains(url, ".m3u8")
}

// HLSConfig configures HLSPlayer.
type HLSConfig struct {
	UserAgent       string
	ManifestTimeout time.Duration
	MaxManifestSize int64 // 0 means 4 MiB; larger manifests fail to load
	Client          *http.Client
	Log             logrus.FieldLogger
}

// HLSPlayer loads adaptive manifests by fetching and decoding them, and
// passes any other URL through to the native pipeline.
type HLSPlayer struct {
	userAgent string
	maxBytes  int64
	client    *http.Client
	log       logrus.FieldLogger

	mu sync.Mutex
}

// NewHLSPlayer returns an HLSPlayer.
func NewHLSPlayer(cfg HLSConfig) *HLSPlayer {
	if cfg.ManifestTimeout <= 0 {
		cfg.ManifestTimeout = defaultManifestTimeout
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.ManifestTimeout}
	}
	if cfg.MaxManifestSize <= 0 {
		cfg.MaxManifestSize = maxManifestBytes
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	return &HLSPlayer{userAgent: cfg.UserAgent, maxBytes: cfg.MaxManifestSize, client: cfg.Client, log: cfg.Log}
}

// LoadStream implements Player.
func (p *HLSPlayer) LoadStream(ctx context.Context, url, title string) (*Handle, error) {
	h := &Handle{
		ID:        uuid.NewString(),
		URL:       url,
		Title:     title,
		Pipeline:  PipelineNative,
		StartedAt: time.Now(),
	}
	if !IsManifest(url) {
		return h, nil
	}

	h.Pipeline = PipelineHLS
	if err := p.loadManifest(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// OnFatalError implements Player.
func (p *HLSPlayer) OnFatalError(ctx context.Context, h *Handle, kind ErrorKind) Action {
	action := PolicyFor(kind)
	log := p.log.WithFields(logrus.Fields{"handle": h.ID, "kind": kind, "action": action})

	switch action {
	case ActionResume:
		p.mu.Lock()
		h.Resumes++
		p.mu.Unlock()
		if h.Pipeline == PipelineHLS {
			if err := p.loadManifest(ctx, h); err != nil {
				log.WithError(err).Warn("player: resume failed to reload manifest")
				return action
			}
		}
	case ActionRecover:
		p.mu.Lock()
		h.Recoveries++
		p.mu.Unlock()
	case ActionTeardown:
		p.Dispose(h)
	}
	log.Info("player: fatal error handled")
	return action
}

// Dispose implements Player.
func (p *HLSPlayer) Dispose(h *Handle) {
	if h == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if h.Disposed {
		return
	}
	h.Disposed = true
	h.Variants = nil
}

// loadManifest fetches and decodes the manifest of h, updating its variants
// and liveness.
func (p *HLSPlayer) loadManifest(ctx context.Context, h *Handle) error {
	byts, err := p.fetch(ctx, h.URL)
	if err != nil {
		return &PlaybackError{URL: h.URL, Kind: ErrorNetwork, Err: err}
	}

	pl, err := playlist.Unmarshal(byts)
	if err != nil {
		return &PlaybackError{URL: h.URL, Kind: ErrorMedia, Err: fmt.Errorf("decode manifest: %w", err)}
	}

	var variants []Variant
	live := true
	switch pl := pl.(type) {
	case *playlist.Multivariant:
		for _, v := range pl.Variants {
			variants = append(variants, Variant{
				Bandwidth:  v.Bandwidth,
				Resolution: v.Resolution,
				URI:        v.URI,
			})
		}
	case *playlist.Media:
		live = !pl.Endlist
	}

	p.mu.Lock()
	h.Variants = variants
	h.Live = live
	p.mu.Unlock()
	return nil
}

func (p *HLSPlayer) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("NewRequest: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	byts, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("ReadAll: %w", err)
	}
	if int64(len(byts)) > p.maxBytes {
		return nil, fmt.Errorf("manifest exceeds %d bytes", p.maxBytes)
	}
	return byts, nil
}
