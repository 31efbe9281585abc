package session

import (
	"log/slog"
	"sync"
	"time"
)

const defaultRefreshInterval = 10 * time.Minute

// Refresher extends the session on a fixed wall-clock interval while the
// process is alive, independent of any in-flight request. This is the only
// background-scheduled work in the client.
type Refresher struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// StartRefresher launches the periodic refresh. An interval <= 0 falls
// back to the 10 minute default.
func StartRefresher(m *Manager, interval time.Duration, logger *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Refresher{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-r.ticker.C:
				if err := m.Refresh(); err != nil {
					logger.Warn("periodic session refresh failed", "err", err)
				}
			case <-r.done:
				return
			}
		}
	}()
	return r
}

// Stop tears the refresher down. Safe to call more than once; after Stop
// no timer remains.
func (r *Refresher) Stop() {
	r.once.Do(func() {
		r.ticker.Stop()
		close(r.done)
	})
}
