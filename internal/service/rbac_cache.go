package service

import (
	"sync"

	"adminapi/internal/model"
)

// Grant is the resolved authorization state of one user.
type Grant struct {
	UserID      uint
	Active      bool
	Permissions []model.Permission // sorted by key
}

// Keys returns the permission keys in Permissions order.
func (g Grant) Keys() []string {
	keys := make([]string, 0, len(g.Permissions))
	for _, p := range g.Permissions {
		keys = append(keys, p.Key)
	}
	return keys
}

// Has reports whether every key is granted.
func (g Grant) Has(keys ...string) bool {
	granted := make(map[string]struct{}, len(g.Permissions))
	for _, p := range g.Permissions {
		granted[p.Key] = struct{}{}
	}
	for _, k := range keys {
		if _, ok := granted[k]; !ok {
			return false
		}
	}
	return true
}

// grantCache memoizes grants per user. Every RBAC mutation bumps the
// generation after commit; a grant computed under an older generation is
// never stored, so a lookup racing a mutation cannot pin a stale entry.
type grantCache struct {
	mu      sync.RWMutex
	gen     uint64
	entries map[uint]cachedGrant
}

type cachedGrant struct {
	gen   uint64
	grant Grant
}

func newGrantCache() *grantCache {
	return &grantCache{entries: make(map[uint]cachedGrant)}
}

func (c *grantCache) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

func (c *grantCache) get(userID uint) (Grant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[userID]
	if !ok || e.gen != c.gen {
		return Grant{}, false
	}
	g := e.grant
	g.Permissions = clonePermissions(g.Permissions)
	return g, true
}

func (c *grantCache) put(userID uint, gen uint64, g Grant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.entries[userID] = cachedGrant{gen: gen, grant: g}
}

func (c *grantCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries = make(map[uint]cachedGrant)
}

func clonePermissions(perms []model.Permission) []model.Permission {
	out := make([]model.Permission, len(perms))
	copy(out, perms)
	return out
}
