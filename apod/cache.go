package apod

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type fetcher interface {
	Fetch(ctx context.Context) (Record, error)
}

// Cache holds at most one record and shields the upstream API from
// redundant calls within the same day. The slot is keyed by the date the
// *response* reports, not the local clock, so a stale upstream that has
// not rolled over yet can never produce a wrong cache hit. The cache is
// process-lifetime only.
type Cache struct {
	service fetcher
	now     func() time.Time

	mu     sync.Mutex
	date   string
	record Record
}

func NewCache(service fetcher) *Cache {
	return &Cache{service: service, now: time.Now}
}

// Fetch returns the cached record when its date matches the current
// local calendar day, and calls upstream otherwise. A failed upstream
// call leaves any previous entry untouched.
func (c *Cache) Fetch(ctx context.Context) (Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	today := c.now().Format(DateLayout)
	if c.date == today {
		return c.record, nil
	}
	logrus.Debug("fetching new APOD data from NASA API")
	record, err := c.service.Fetch(ctx)
	if err != nil {
		return Record{}, err
	}
	c.date = record.Date
	c.record = record
	return record, nil
}

// LastDate reports the date of the currently cached record, empty when
// nothing has been fetched yet.
func (c *Cache) LastDate() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.date
}
