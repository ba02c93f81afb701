package imgcache

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned payloads and records per-URL fetch counts and
// peak concurrency.
type fakeFetcher struct {
	mu      sync.Mutex
	counts  map[string]int
	data    map[string][]byte
	status  int
	delay   time.Duration
	current int32
	peak    int32
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		counts: make(map[string]int),
		data:   make(map[string][]byte),
		status: 200,
	}
}

func (f *fakeFetcher) FetchBytes(ctx context.Context, url string) ([]byte, int, error) {
	cur := atomic.AddInt32(&f.current, 1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if cur <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, cur) {
			break
		}
	}
	defer atomic.AddInt32(&f.current, -1)

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[url]++
	if data, ok := f.data[url]; ok {
		return data, f.status, nil
	}
	return []byte("payload:" + url), f.status, nil
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[url]
}

func newTestManager(t *testing.T, f Fetcher, opts ...Option) *Manager {
	t.Helper()
	m, err := New(f, t.TempDir(), opts...)
	require.NoError(t, err)
	return m
}

func TestGetFetchesOnce(t *testing.T) {
	f := newFakeFetcher()
	m := newTestManager(t, f)

	data, err := m.Get(context.Background(), "https://img.example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload:https://img.example.com/a.png"), data)

	_, err = m.Get(context.Background(), "https://img.example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, 1, f.count("https://img.example.com/a.png"))
}

func TestConcurrentCallersShareOneFetch(t *testing.T) {
	f := newFakeFetcher()
	f.delay = 20 * time.Millisecond
	m := newTestManager(t, f)

	const callers = 10
	const url = "https://img.example.com/shared.png"

	results := make([][]byte, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, err := m.Get(context.Background(), url)
			assert.NoError(t, err)
			results[i] = data
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, f.count(url), "all callers must share a single fetch")
	for _, data := range results {
		assert.Equal(t, results[0], data)
	}
}

func TestLRUEvictsOldestFromMemoryOnly(t *testing.T) {
	f := newFakeFetcher()
	m := newTestManager(t, f, WithMemoryEntries(100))

	urls := make([]string, 101)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://img.example.com/%d.png", i)
		_, err := m.Get(context.Background(), urls[i])
		require.NoError(t, err)
	}

	// urls[0] was evicted from memory, but its disk entry still serves.
	_, err := m.Get(context.Background(), urls[0])
	require.NoError(t, err)
	assert.Equal(t, 1, f.count(urls[0]), "disk tier must satisfy the re-read")

	// Wipe the disk tier: entries still in memory keep working, the
	// evicted one now needs the network again.
	require.NoError(t, os.RemoveAll(m.dir))
	require.NoError(t, os.MkdirAll(m.dir, 0o755))

	_, err = m.Get(context.Background(), urls[100])
	require.NoError(t, err)
	assert.Equal(t, 1, f.count(urls[100]), "memory hit must not refetch")

	// Re-reading urls[0] promoted it and evicted urls[1] instead.
	_, err = m.Get(context.Background(), urls[1])
	require.NoError(t, err)
	assert.Equal(t, 2, f.count(urls[1]), "evicted entry with no disk copy refetches")
}

func TestPermitBoundLimitsConcurrency(t *testing.T) {
	f := newFakeFetcher()
	f.delay = 30 * time.Millisecond
	m := newTestManager(t, f, WithMaxConcurrentFetches(2))

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Get(context.Background(), fmt.Sprintf("https://img.example.com/p%d.png", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&f.peak), int32(2))
}

func TestStatusErrorIsTyped(t *testing.T) {
	f := newFakeFetcher()
	f.status = 404
	m := newTestManager(t, f)

	_, err := m.Get(context.Background(), "https://img.example.com/missing.png")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.Code)
}

func TestEmptyBodyIsTyped(t *testing.T) {
	f := newFakeFetcher()
	f.data["https://img.example.com/empty.png"] = []byte{}
	m := newTestManager(t, f)

	_, err := m.Get(context.Background(), "https://img.example.com/empty.png")
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestFailureDoesNotPoisonCache(t *testing.T) {
	f := newFakeFetcher()
	f.status = 500
	m := newTestManager(t, f)

	const url = "https://img.example.com/flaky.png"
	_, err := m.Get(context.Background(), url)
	require.Error(t, err)

	f.status = 200
	data, err := m.Get(context.Background(), url)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, 2, f.count(url))
}

func TestInvalidateRemovesBothTiers(t *testing.T) {
	f := newFakeFetcher()
	m := newTestManager(t, f)

	const url = "https://img.example.com/inv.png"
	_, err := m.Get(context.Background(), url)
	require.NoError(t, err)

	require.NoError(t, m.Invalidate(url))

	_, err = m.Get(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, 2, f.count(url), "invalidated entry must be refetched")
}

func TestCorruptDiskEntrySelfHeals(t *testing.T) {
	f := newFakeFetcher()
	m := newTestManager(t, f)

	const url = "https://img.example.com/corrupt.png"
	// An empty file on disk stands in for an unreadable entry.
	require.NoError(t, os.WriteFile(m.path(url), nil, 0o644))

	data, err := m.Get(context.Background(), url)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, 1, f.count(url), "corrupt entry is treated as a miss")
}

func TestCancelledWaiterDoesNotCancelFetch(t *testing.T) {
	f := newFakeFetcher()
	f.delay = 50 * time.Millisecond
	m := newTestManager(t, f)

	const url = "https://img.example.com/slow.png"

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := m.Get(ctx, url)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	// The shared fetch keeps running; a patient caller still gets bytes
	// without a second network call.
	data, err := m.Get(context.Background(), url)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, 1, f.count(url))
}

func TestDiskSurvivesRestart(t *testing.T) {
	f := newFakeFetcher()
	dir := t.TempDir()

	m1, err := New(f, dir)
	require.NoError(t, err)
	const url = "https://img.example.com/persist.png"
	_, err = m1.Get(context.Background(), url)
	require.NoError(t, err)

	m2, err := New(f, dir)
	require.NoError(t, err)
	data, err := m2.Get(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload:"+url), data)
	assert.Equal(t, 1, f.count(url), "fresh manager must hit the disk tier")
}

func TestEmptyBodyCheckPrecedesStore(t *testing.T) {
	f := newFakeFetcher()
	f.data["https://img.example.com/e.png"] = []byte{}
	m := newTestManager(t, f)

	_, err := m.Get(context.Background(), "https://img.example.com/e.png")
	require.Error(t, err)

	entries, err := os.ReadDir(m.dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed fetches must not persist")
}
