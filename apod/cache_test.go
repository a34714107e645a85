package apod

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	calls  int
	record Record
	err    error
}

func (f *countingFetcher) Fetch(context.Context) (Record, error) {
	f.calls++
	if f.err != nil {
		return Record{}, f.err
	}
	return f.record, nil
}

func testRecord(date string) Record {
	return Record{
		Date:      date,
		Title:     "T",
		MediaType: MediaTypeImage,
		URL:       "http://x/img.jpg",
	}
}

func fixedNow(date string) func() time.Time {
	parsed, _ := time.Parse(DateLayout, date)
	return func() time.Time { return parsed }
}

func TestCacheSingleUpstreamCallPerDate(t *testing.T) {
	upstream := &countingFetcher{record: testRecord("2024-01-01")}
	cache := NewCache(upstream)
	cache.now = fixedNow("2024-01-01")

	first, err := cache.Fetch(context.Background())
	require.NoError(t, err)
	second, err := cache.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, upstream.calls)
	assert.Equal(t, "2024-01-01", cache.LastDate())
}

func TestCacheRefetchesOnNewDay(t *testing.T) {
	upstream := &countingFetcher{record: testRecord("2024-01-01")}
	cache := NewCache(upstream)
	cache.now = fixedNow("2024-01-01")

	_, err := cache.Fetch(context.Background())
	require.NoError(t, err)

	upstream.record = testRecord("2024-01-02")
	cache.now = fixedNow("2024-01-02")
	record, err := cache.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2024-01-02", record.Date)
	assert.Equal(t, 2, upstream.calls)
}

// An upstream that has not rolled over yet keeps reporting yesterday's
// date: every local-day-mismatch triggers a call, but the returned
// record stays valid and the slot is simply rewritten.
func TestCacheStaleUpstream(t *testing.T) {
	upstream := &countingFetcher{record: testRecord("2024-01-01")}
	cache := NewCache(upstream)
	cache.now = fixedNow("2024-01-02")

	record, err := cache.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", record.Date)

	_, err = cache.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.calls)
}

func TestCacheFailureKeepsPreviousEntry(t *testing.T) {
	upstream := &countingFetcher{record: testRecord("2024-01-01")}
	cache := NewCache(upstream)
	cache.now = fixedNow("2024-01-01")

	_, err := cache.Fetch(context.Background())
	require.NoError(t, err)

	// Next day, upstream down: the error propagates and the old entry
	// survives.
	upstream.err = errors.New("boom")
	cache.now = fixedNow("2024-01-02")
	_, err = cache.Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, "2024-01-01", cache.LastDate())

	// Upstream recovers.
	upstream.err = nil
	upstream.record = testRecord("2024-01-02")
	record, err := cache.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", record.Date)
}
