package player

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Session owns the stream currently being played. Starting a new stream
// releases the previous one first.
type Session struct {
	player Player
	log    logrus.FieldLogger

	mu      sync.Mutex
	current *Handle
	lastErr string
}

// Status is a snapshot of the session.
type Status struct {
	Playing bool    `json:"playing"`
	Handle  *Handle `json:"handle,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// NewSession returns an idle session.
func NewSession(p Player, log logrus.FieldLogger) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Session{player: p, log: log}
}

// Play releases the current stream and loads url. On failure the session is
// left idle and the error recorded.
func (s *Session) Play(ctx context.Context, url, title string) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseLocked()
	h, err := s.player.LoadStream(ctx, url, title)
	if err != nil {
		s.lastErr = err.Error()
		return nil, err
	}
	s.current = h
	s.lastErr = ""
	return snapshot(h), nil
}

// HandleError applies the recovery policy to the current stream. The player
// works on a copy of the handle outside the session lock, so a slow resume
// does not block Status or Play. The outcome is only applied if the same
// stream is still current. A teardown leaves the session idle without
// reporting an error upward.
func (s *Session) HandleError(ctx context.Context, kind ErrorKind) (Action, bool) {
	s.mu.Lock()
	current := s.current
	work := snapshot(current)
	s.mu.Unlock()

	if current == nil {
		return "", false
	}
	action := s.player.OnFatalError(ctx, work, kind)
	if action == ActionTeardown && !work.Disposed {
		s.player.Dispose(work)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != current {
		s.log.WithField("handle", work.ID).Debug("player: stream replaced during error handling")
		return action, true
	}
	*current = *work
	if action == ActionTeardown {
		s.current = nil
	}
	return action, true
}

// Stop releases the current stream, if any.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
	s.lastErr = ""
}

// Status returns a snapshot.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Playing: s.current != nil,
		Handle:  snapshot(s.current),
		Error:   s.lastErr,
	}
}

func (s *Session) releaseLocked() {
	if s.current == nil {
		return
	}
	s.log.WithField("handle", s.current.ID).Debug("player: releasing stream")
	s.player.Dispose(s.current)
	s.current = nil
}

func snapshot(h *Handle) *Handle {
	if h == nil {
		return nil
	}
	cp := *h
	cp.Variants = append([]Variant(nil), h.Variants...)
	return &cp
}
