package services

import "sync"

// KeyPool owns a prioritized list of API credentials and hands out the
// active one. It is an explicitly constructed service instance, not
// global state, so tests can run with independent pools. It performs
// no network I/O.
type KeyPool struct {
	mu   sync.Mutex
	keys []string
	idx  int
}

// NewKeyPool builds a pool from a user-supplied prioritized key list.
// When the list is empty, the deployment-provided default key is used
// as the single entry; an empty default yields an empty pool.
func NewKeyPool(userKeys []string, defaultKey string) *KeyPool {
	keys := make([]string, 0, len(userKeys))
	for _, k := range userKeys {
		if k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 && defaultKey != "" {
		keys = append(keys, defaultKey)
	}
	return &KeyPool{keys: keys}
}

// Current returns the active credential, or empty if the pool has
// none. An empty pool is a fatal precondition the executor checks
// before calling out.
func (p *KeyPool) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return ""
	}
	return p.keys[p.idx]
}

// Rotate advances to the next credential circularly. It reports
// whether the active credential actually changed; a pool of one or
// fewer keys never rotates.
func (p *KeyPool) Rotate() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) <= 1 {
		return false
	}
	p.idx = (p.idx + 1) % len(p.keys)
	return true
}

// Len returns the number of credentials in the pool.
func (p *KeyPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}
