package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voyagen/iptvbrowser/internal/models"
)

// MaxPlaylistBytes is the default cap on a playlist response. Larger
// responses fail instead of being truncated.
const MaxPlaylistBytes = 32 << 20

// ErrPlaylistLoad matches every *LoadError via errors.Is.
var ErrPlaylistLoad = errors.New("error loading playlist")

// LoadError reports a failed playlist fetch: a transport failure or a
// non-success response.
type LoadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *LoadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("load playlist %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("load playlist %s: %v", e.URL, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrPlaylistLoad }

// Message is the single human-readable message shown to the user.
func (e *LoadError) Message() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Error loading playlist (HTTP %d)", e.StatusCode)
	}
	return "Error loading playlist: " + e.Err.Error()
}

// Options configure FetchPlaylist.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	Client    *http.Client // optional; overrides Timeout
	MaxBytes  int64        // 0 means MaxPlaylistBytes
}

// FetchPlaylist downloads the playlist at url and returns its raw text.
// Every failure is a *LoadError.
func FetchPlaylist(ctx context.Context, url string, opts Options) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &LoadError{URL: url, Err: fmt.Errorf("NewRequest: %w", err)}
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &LoadError{URL: url, Err: fmt.Errorf("Do: %w", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &LoadError{URL: url, StatusCode: resp.StatusCode}
	}
	limit := opts.MaxBytes
	if limit <= 0 {
		limit = MaxPlaylistBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return "", &LoadError{URL: url, Err: fmt.Errorf("ReadAll: %w", err)}
	}
	if int64(len(body)) > limit {
		return "", &LoadError{URL: url, Err: fmt.Errorf("playlist exceeds %d bytes", limit)}
	}
	return string(body), nil
}

// FetchChannels fetches url and parses it.
func FetchChannels(ctx context.Context, url string, opts Options) ([]models.Channel, error) {
	content, err := FetchPlaylist(ctx, url, opts)
	if err != nil {
		return nil, err
	}
	return Parse(content), nil
}
