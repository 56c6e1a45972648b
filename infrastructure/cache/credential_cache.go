package cache

import (
	"sync"

	"useradmin/infrastructure/idp"
)

// CredentialCache keeps one live idp credential per session so refreshes
// are serialized on a single instance instead of racing per request.
type CredentialCache struct {
	mu    sync.RWMutex
	creds map[string]*idp.Credential
}

func NewCredentialCache() *CredentialCache {
	return &CredentialCache{creds: make(map[string]*idp.Credential)}
}

func (c *CredentialCache) Get(sessionID string) (*idp.Credential, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cred, ok := c.creds[sessionID]
	return cred, ok
}

func (c *CredentialCache) Add(sessionID string, cred *idp.Credential) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds[sessionID] = cred
}

func (c *CredentialCache) Delete(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.creds, sessionID)
}
