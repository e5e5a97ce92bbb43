// Package player is the playback collaborator: it prepares a stream for a
// selected channel and decides how to react to fatal playback errors.
package player

import (
	"context"
	"fmt"
	"time"
)

// ErrorKind classifies a fatal playback error.
type ErrorKind string

const (
	ErrorNetwork ErrorKind = "network"
	ErrorMedia   ErrorKind = "media"
	ErrorOther   ErrorKind = "other"
)

// ParseErrorKind validates a kind received from a client. Unknown kinds map
// to ErrorOther.
func ParseErrorKind(s string) ErrorKind {
	switch ErrorKind(s) {
	case ErrorNetwork, ErrorMedia:
		return ErrorKind(s)
	}
	return ErrorOther
}

// Action is the recovery decision taken for a fatal error.
type Action string

const (
	// ActionResume restarts loading after a transient network error.
	ActionResume Action = "resume"
	// ActionRecover attempts in-place recovery after a decode error.
	ActionRecover Action = "recover"
	// ActionTeardown gives up and releases the stream.
	ActionTeardown Action = "teardown"
)

// PolicyFor returns the action for kind.
func PolicyFor(kind ErrorKind) Action {
	switch kind {
	case ErrorNetwork:
		return ActionResume
	case ErrorMedia:
		return ActionRecover
	default:
		return ActionTeardown
	}
}

// Pipeline names how a stream is played.
type Pipeline string

const (
	// PipelineHLS is used for adaptive streaming manifests.
	PipelineHLS Pipeline = "hls"
	// PipelineNative hands the URL to the client as is.
	PipelineNative Pipeline = "native"
)

// Variant is one bitrate rendition of an adaptive stream.
type Variant struct {
	Bandwidth  int    `json:"bandwidth"`
	Resolution string `json:"resolution,omitempty"`
	URI        string `json:"uri"`
}

// Handle is a loaded stream.
type Handle struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Pipeline   Pipeline  `json:"pipeline"`
	Live       bool      `json:"live"`
	Variants   []Variant `json:"variants,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	Resumes    int       `json:"resumes"`
	Recoveries int       `json:"recoveries"`
	Disposed   bool      `json:"disposed"`
}

// Player prepares streams and owns their resources.
type Player interface {
	// LoadStream initialises the pipeline for url.
	LoadStream(ctx context.Context, url, title string) (*Handle, error)
	// OnFatalError applies the recovery policy for kind to h and returns the
	// action taken. ActionTeardown disposes h.
	OnFatalError(ctx context.Context, h *Handle, kind ErrorKind) Action
	// Dispose releases h. Disposing twice is a no-op.
	Dispose(h *Handle)
}

// PlaybackError is a failure inside the playback collaborator. It never
// reaches the catalog layer.
type PlaybackError struct {
	URL  string
	Kind ErrorKind
	Err  error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playback %s (%s): %v", e.URL, e.Kind, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }
