// Package cache memoizes read-only dispatcher calls for a short window so
// hot queries (homepage statistics, category lists) skip the network.
package cache

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sdnegeri1godegan/library/pkg/api"
)

// DefaultTTL bounds how long one result is reused.
const DefaultTTL = 5 * time.Minute

// Fetcher produces the envelope on a cache miss, typically a dispatcher
// call.
type Fetcher func(ctx context.Context) api.Envelope

// Store is the mechanism side of result caching; invalidation triggers
// stay with the caller.
type Store interface {
	GetOrFetch(ctx context.Context, key string, fetch Fetcher) api.Envelope
	Invalidate(key string)
	InvalidateAll()
}

// Key derives a deterministic cache key from an action and its
// parameters, independent of map iteration order.
func Key(action string, params map[string]string) string {
	if len(params) == 0 {
		return action
	}
	names := make([]string, 0, len(params))
	for name, value := range params {
		if value == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString(action)
	for i, name := range names {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	return b.String()
}
