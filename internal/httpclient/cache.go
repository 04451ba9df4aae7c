package httpclient

import "sync"

// Validators are the HTTP cache validators last seen for a URL
type Validators struct {
	ETag         string
	LastModified string
}

// ValidatorCache stores validators per request URL. It lives in memory only;
// a restarted process issues unconditional requests until it has seen each URL once.
type ValidatorCache struct {
	mu      sync.RWMutex
	entries map[string]Validators
}

// NewValidatorCache creates an empty cache
func NewValidatorCache() *ValidatorCache {
	return &ValidatorCache{entries: make(map[string]Validators)}
}

// Get returns the validators stored for url
func (c *ValidatorCache) Get(url string) (Validators, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[url]
	return v, ok
}

// Put stores the validators for url
func (c *ValidatorCache) Put(url string, v Validators) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = v
}

// Forget drops the validators of url, forcing the next request to be unconditional
func (c *ValidatorCache) Forget(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, url)
}

// Len returns the number of cached URLs
func (c *ValidatorCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
