package scraper

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// challengeMemory remembers which hosts recently served a mitigation
// challenge. Attempts against a remembered host run with the widened delay
// range until the entry expires.
type challengeMemory struct {
	cache *expirable.LRU[string, int]
}

func newChallengeMemory(ttl time.Duration) *challengeMemory {
	return &challengeMemory{
		cache: expirable.NewLRU[string, int](128, nil, ttl),
	}
}

// Record notes a challenge sighting for a host, refreshing the TTL.
func (m *challengeMemory) Record(host string) {
	n, _ := m.cache.Get(host)
	m.cache.Add(host, n+1)
}

// Recent reports whether the host served a challenge within the TTL window.
func (m *challengeMemory) Recent(host string) bool {
	_, ok := m.cache.Get(host)
	return ok
}
