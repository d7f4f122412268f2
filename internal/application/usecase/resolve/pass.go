package resolve

import (
	"sync"
	"time"

	"github.com/khoahotran/talent-portfolio/internal/domain/disclosure"
)

// Pass caches resolutions for one render pass. A caller creates a Pass per
// render and calls Evict when the viewer navigates away. Entries also expire
// with the URLs they hold. A nil *Pass disables caching.
type Pass struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]passEntry
}

type passEntry struct {
	res     disclosure.Resolved
	expires time.Time
}

func NewPass() *Pass {
	return &Pass{now: time.Now, entries: make(map[string]passEntry)}
}

func (p *Pass) get(key string) (disclosure.Resolved, bool) {
	if p == nil {
		return disclosure.Resolved{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[key]
	if !ok {
		return disclosure.Resolved{}, false
	}
	if !e.expires.IsZero() && !p.now().Before(e.expires) {
		delete(p.entries, key)
		return disclosure.Resolved{}, false
	}
	return e.res, true
}

func (p *Pass) put(key string, res disclosure.Resolved, ttl time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	e := passEntry{res: res}
	if ttl > 0 {
		e.expires = p.now().Add(ttl)
	}
	p.entries[key] = e
}

// Evict drops every entry.
func (p *Pass) Evict() {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.entries = make(map[string]passEntry)
	p.mu.Unlock()
}

func (p *Pass) Len() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
