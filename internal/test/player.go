package test

import (
	"context"
	"sync"
	"time"

	"github.com/voyagen/iptvbrowser/internal/player"
)

// FakePlayer is a player.Player that never touches the network. LoadStream
// fails for URLs listed in Fail.
type FakePlayer struct {
	mu       sync.Mutex
	Fail     map[string]error
	Loaded   []string
	Disposed []string
	Errors   []player.ErrorKind
}

// NewFakePlayer returns an empty FakePlayer.
func NewFakePlayer() *FakePlayer {
	return &FakePlayer{Fail: map[string]error{}}
}

func (f *FakePlayer) LoadStream(_ context.Context, url, title string) (*player.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.Fail[url]; ok {
		return nil, &player.PlaybackError{URL: url, Kind: player.ErrorNetwork, Err: err}
	}
	f.Loaded = append(f.Loaded, url)
	return &player.Handle{
		ID:        url,
		URL:       url,
		Title:     title,
		Pipeline:  player.PipelineNative,
		StartedAt: time.Now(),
	}, nil
}

func (f *FakePlayer) OnFatalError(_ context.Context, h *player.Handle, kind player.ErrorKind) player.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors = append(f.Errors, kind)
	action := player.PolicyFor(kind)
	switch action {
	case player.ActionResume:
		h.Resumes++
	case player.ActionRecover:
		h.Recoveries++
	}
	return action
}

func (f *FakePlayer) Dispose(h *player.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h == nil || h.Disposed {
		return
	}
	h.Disposed = true
	f.Disposed = append(f.Disposed, h.URL)
}

// LoadedURLs returns a copy of the loaded URLs.
func (f *FakePlayer) LoadedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Loaded...)
}
