package runner

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// replayGuard remembers request ids for as long as their request file could
// still pass the staleness check, so triggering twice on the same request
// file runs the command once.
type replayGuard struct {
	cache *ttlcache.Cache[string, struct{}]
}

func newReplayGuard(window time.Duration) *replayGuard {
	c := ttlcache.New[string, struct{}](
		ttlcache.WithTTL[string, struct{}](window),
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
	go c.Start()
	return &replayGuard{cache: c}
}

// claim records uuid and reports whether it was not seen before. Empty ids
// are never tracked.
func (g *replayGuard) claim(uuid string) bool {
	if uuid == "" {
		return true
	}
	_, seen := g.cache.GetOrSet(uuid, struct{}{})
	return !seen
}

func (g *replayGuard) close() {
	g.cache.Stop()
}
