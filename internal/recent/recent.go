// Package recent keeps the short list of recently viewed channels.
package recent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/voyagen/iptvbrowser/internal/models"
	"github.com/voyagen/iptvbrowser/internal/store"
)

// Limit is the maximum number of entries kept.
const Limit = 5

// Locker serialises read-modify-write cycles across processes that share the
// same store. The returned function releases the lock.
type Locker func(ctx context.Context) (unlock func(), err error)

// List is the recently viewed channels, most recent first, unique by URL.
type List struct {
	kv     store.KeyValue
	key    string
	locker Locker
	log    logrus.FieldLogger

	mu      sync.Mutex
	entries []models.Channel
}

// Option configures a List.
type Option func(*List)

// WithLocker guards Push with a cross-process lock. When the lock is held,
// Push re-reads the stored list before updating it.
func WithLocker(l Locker) Option {
	return func(list *List) { list.locker = l }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(list *List) { list.log = log }
}

// NewList returns an empty list persisted under key in kv.
func NewList(kv store.KeyValue, key string, opts ...Option) *List {
	l := &List{kv: kv, key: key, log: logrus.StandardLogger()}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load reads the stored entries. A missing key yields an empty list; a
// corrupt value is logged and discarded.
func (l *List) Load(ctx context.Context) error {
	entries, err := l.read(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()
	return nil
}

// Entries returns a copy of the current entries.
func (l *List) Entries() []models.Channel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return clone(l.entries)
}

// Lookup finds an entry by URL.
func (l *List) Lookup(url string) (models.Channel, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ch := range l.entries {
		if ch.URL == url {
			return ch.Clone(), true
		}
	}
	return models.Channel{}, false
}

// Push moves ch to the front, dropping any older entry with the same URL and
// anything past Limit, then writes the list to the store.
func (l *List) Push(ctx context.Context, ch models.Channel) ([]models.Channel, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.entries
	if l.locker != nil {
		unlock, err := l.locker(ctx)
		switch {
		case err == nil:
			defer unlock()
			if stored, err := l.read(ctx); err == nil {
				current = stored
			} else {
				l.log.WithError(err).Warn("recent: re-read failed, using local copy")
			}
		default:
			l.log.WithError(err).Warn("recent: lock unavailable, updating without it")
		}
	}

	updated := Prepend(current, ch)
	data, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("recent marshal: %w", err)
	}
	if err := l.kv.Put(ctx, l.key, data); err != nil {
		return nil, fmt.Errorf("recent store: %w", err)
	}
	l.entries = updated
	return clone(updated), nil
}

// Prepend returns a new list with ch first, without other entries sharing its
// URL, truncated to Limit.
func Prepend(entries []models.Channel, ch models.Channel) []models.Channel {
	out := make([]models.Channel, 0, Limit)
	out = append(out, ch.Clone())
	for _, e := range entries {
		if len(out) == Limit {
			break
		}
		if e.URL == ch.URL {
			continue
		}
		out = append(out, e.Clone())
	}
	return out
}

func (l *List) read(ctx context.Context) ([]models.Channel, error) {
	raw, err := l.kv.Get(ctx, l.key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("recent load: %w", err)
	}
	var entries []models.Channel
	if err := json.Unmarshal(raw, &entries); err != nil {
		l.log.WithError(err).WithField("key", l.key).Warn("recent: discarding unreadable list")
		return nil, nil
	}
	if len(entries) > Limit {
		entries = entries[:Limit]
	}
	return entries, nil
}

func clone(in []models.Channel) []models.Channel {
	out := make([]models.Channel, len(in))
	for i, ch := range in {
		out[i] = ch.Clone()
	}
	return out
}
