package users

import (
	"sync"
	"time"

	"useradmin/infrastructure/api"
	"useradmin/models"
)

// Registry keeps one listing controller per session. Dropped on logout or
// session expiry so timers and late responses die with the session.
type Registry struct {
	mu          sync.Mutex
	fetcher     Fetcher
	debounce    time.Duration
	controllers map[string]*Controller
}

func NewRegistry(fetcher Fetcher, debounce time.Duration) *Registry {
	return &Registry{
		fetcher:     fetcher,
		debounce:    debounce,
		controllers: make(map[string]*Controller),
	}
}

// For returns the session's controller, creating it on first use.
func (r *Registry) For(sessionID string, cred api.Credential) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.controllers[sessionID]; ok {
		return c, false
	}
	c := NewController(r.fetcher, cred, r.debounce)
	r.controllers[sessionID] = c
	return c, true
}

// Peek returns the session's controller without creating one.
func (r *Registry) Peek(sessionID string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.controllers[sessionID]
	return c, ok
}

// Drop closes and forgets the session's controller.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	c, ok := r.controllers[sessionID]
	delete(r.controllers, sessionID)
	r.mu.Unlock()
	if ok {
		c.Close()
	}
}

// PageData is everything the users list page renders.
type PageData struct {
	State         State
	Organisations []models.Option
	Roles         []models.Option
	RefWarning    string
	Status        string
	ErrorMessage  string
	CSRFToken     string
	CanEdit       bool
	DeleteTarget  string
	DeleteError   string
}

// DetailData is the read-only detail page.
type DetailData struct {
	User      models.User
	CSRFToken string
	CanEdit   bool
}
