// Package imgcache is a two-tier (memory + disk) byte cache keyed by URL,
// with deduplicated, concurrency-bounded fetching. It serves thumbnail
// payloads to the UI layer but carries no image-specific logic; any byte
// payload retrievable by GET fits.
package imgcache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	defaultMemoryEntries = 100
	defaultMaxFetches    = 4
	defaultFetchTimeout  = 30 * time.Second
)

var (
	// ErrEmptyBody means the origin answered 2xx with no payload.
	ErrEmptyBody = errors.New("fetched payload is empty")
)

// StatusError reports a non-2xx origin response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.Code)
}

// Fetcher is the network collaborator; the bricklink client satisfies it.
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, int, error)
}

type memEntry struct {
	url  string
	data []byte
}

// flight is one in-progress fetch shared by every concurrent caller of the
// same URL. done is closed exactly once, after data/err are set.
type flight struct {
	done chan struct{}
	data []byte
	err  error
}

// Manager owns all cache state. Both maps, the recency list and the permit
// channel are only touched under mu (the channel is its own
// synchronization, mu guards the rest).
type Manager struct {
	fetcher Fetcher
	dir     string
	timeout time.Duration
	maxMem  int

	mu       sync.Mutex
	entries  map[string]*list.Element // url -> element holding *memEntry
	lru      *list.List               // front = most recently used
	inflight map[string]*flight

	permits chan struct{} // bounded fetch concurrency
}

// Option tweaks a Manager at construction time.
type Option func(*Manager)

func WithMemoryEntries(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxMem = n
		}
	}
}

func WithMaxConcurrentFetches(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.permits = make(chan struct{}, n)
		}
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// New creates a Manager persisting to dir, creating it if needed.
func New(fetcher Fetcher, dir string, opts ...Option) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	m := &Manager{
		fetcher:  fetcher,
		dir:      dir,
		timeout:  defaultFetchTimeout,
		maxMem:   defaultMemoryEntries,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
		inflight: make(map[string]*flight),
		permits:  make(chan struct{}, defaultMaxFetches),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Get returns the payload for url, from memory, disk or the network, in
// that order. Concurrent calls for the same URL share a single fetch and
// observe the same outcome. Cancelling ctx abandons this caller's wait but
// never the shared fetch itself.
func (m *Manager) Get(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	if el, ok := m.entries[url]; ok {
		m.lru.MoveToFront(el)
		data := el.Value.(*memEntry).data
		m.mu.Unlock()
		return data, nil
	}
	if f, ok := m.inflight[url]; ok {
		m.mu.Unlock()
		return m.await(ctx, f)
	}
	f := &flight{done: make(chan struct{})}
	m.inflight[url] = f
	m.mu.Unlock()

	go m.resolve(url, f)
	return m.await(ctx, f)
}

// Invalidate removes both tiers for url eagerly.
func (m *Manager) Invalidate(url string) error {
	m.mu.Lock()
	if el, ok := m.entries[url]; ok {
		m.lru.Remove(el)
		delete(m.entries, url)
	}
	m.mu.Unlock()

	if err := os.Remove(m.path(url)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cached file: %w", err)
	}
	return nil
}

func (m *Manager) await(ctx context.Context, f *flight) ([]byte, error) {
	select {
	case <-f.done:
		return f.data, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve completes one flight: disk tier first, then a permit-bounded
// network fetch. It runs detached from any caller's context so that one
// waiter's cancellation cannot fail the rest.
func (m *Manager) resolve(url string, f *flight) {
	defer func() {
		m.mu.Lock()
		delete(m.inflight, url)
		m.mu.Unlock()
		close(f.done)
	}()

	path := m.path(url)
	if data, err := os.ReadFile(path); err == nil {
		if len(data) > 0 {
			m.store(url, data)
			f.data = data
			return
		}
		// Corrupt entry: self-heal by deleting and treating as a miss.
		os.Remove(path)
	} else if !os.IsNotExist(err) {
		os.Remove(path)
	}

	m.permits <- struct{}{}
	defer func() { <-m.permits }()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	data, status, err := m.fetcher.FetchBytes(ctx, url)
	if err != nil {
		f.err = fmt.Errorf("failed to fetch %s: %w", url, err)
		return
	}
	if status < 200 || status > 299 {
		f.err = &StatusError{Code: status}
		return
	}
	if len(data) == 0 {
		f.err = ErrEmptyBody
		return
	}

	m.persist(path, data)
	m.store(url, data)
	f.data = data
}

// store inserts into the memory tier, evicting the least recently used
// entry past the bound. Disk entries survive eviction.
func (m *Manager) store(url string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.entries[url]; ok {
		el.Value.(*memEntry).data = data
		m.lru.MoveToFront(el)
		return
	}
	m.entries[url] = m.lru.PushFront(&memEntry{url: url, data: data})
	if m.lru.Len() > m.maxMem {
		oldest := m.lru.Back()
		m.lru.Remove(oldest)
		delete(m.entries, oldest.Value.(*memEntry).url)
	}
}

// persist writes the payload atomically via a temp file. Failures are
// logged and ignored: the disk tier is best effort.
func (m *Manager) persist(path string, data []byte) {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Debugf("Failed to write cache file %s: %v", tmp, err)
		os.Remove(tmp)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		log.Debugf("Failed to move cache file into place: %v", err)
		os.Remove(tmp)
	}
}

func (m *Manager) path(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(m.dir, hex.EncodeToString(sum[:]))
}
