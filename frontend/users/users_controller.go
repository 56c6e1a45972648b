package users

import (
	"context"
	"errors"
	"sync"
	"time"

	"useradmin/infrastructure/api"
	"useradmin/models"
)

const (
	// DefaultDebounce bounds fetch volume while an operator types into the
	// search box; only 500ms of inactivity lets the fetch go out.
	DefaultDebounce = 500 * time.Millisecond

	DefaultPageSize = 10
)

// Fetcher is the slice of the API client the listing needs.
type Fetcher interface {
	ListUsers(ctx context.Context, cred api.Credential, f api.UserFilter) ([]models.User, error)
}

// Controller holds one session's listing state: the last fetched result
// window, the server-side filter, and local pagination over that window.
// The server applies filtering; the controller never re-filters locally.
type Controller struct {
	fetcher  Fetcher
	cred     api.Credential
	debounce time.Duration

	mu       sync.Mutex
	filter   api.UserFilter
	users    []models.User
	errMsg   string
	authGone bool
	page     int
	pageSize int
	viewMode string

	timer   *time.Timer
	pending int
	nextSeq uint64
	applied uint64
	idle    chan struct{}
	closed  bool
}

// NewController creates a listing controller. debounce <= 0 selects the
// default; tests shorten it.
func NewController(f Fetcher, cred api.Credential, debounce time.Duration) *Controller {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Controller{
		fetcher:  f,
		cred:     cred,
		debounce: debounce,
		users:    []models.User{},
		pageSize: DefaultPageSize,
		viewMode: "table",
	}
}

// State is a render-ready snapshot of the controller.
type State struct {
	Filter        api.UserFilter
	Users         []models.User
	PageUsers     []models.User
	Loading       bool
	ErrorMessage  string
	LoginRequired bool
	Page          int
	PageSize      int
	PageCount     int
	Total         int
	ViewMode      string
}

// Search updates the free-text term, resets to the first page and schedules
// a debounced fetch. A call inside the debounce window cancels and
// reschedules the pending one, so a typing burst issues exactly one fetch
// with the last term.
func (c *Controller) Search(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.filter.Term = term
	c.page = 0
	c.becomeBusyLocked()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.fireDebounced)
}

func (c *Controller) fireDebounced() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timer = nil
	if c.closed {
		c.maybeIdleLocked()
		return
	}
	c.startFetchLocked()
}

// FilterByOrganisation applies the organisation filter and fetches
// immediately; discrete selection needs no debounce.
func (c *Controller) FilterByOrganisation(orgUID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.filter.OrgUID = orgUID
	c.page = 0
	c.cancelTimerLocked()
	c.becomeBusyLocked()
	c.startFetchLocked()
}

// FilterByRole applies the role filter and fetches immediately.
func (c *Controller) FilterByRole(roleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.filter.RoleID = roleID
	c.page = 0
	c.cancelTimerLocked()
	c.becomeBusyLocked()
	c.startFetchLocked()
}

// Refresh re-issues the current filter state's fetch. Used after
// create/edit and on first page load.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.cancelTimerLocked()
	c.becomeBusyLocked()
	c.startFetchLocked()
}

// ChangePage moves the local page index over the already-fetched window.
func (c *Controller) ChangePage(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 {
		index = 0
	}
	if max := c.pageCountLocked() - 1; index > max {
		index = max
	}
	c.page = index
}

// ChangePageSize adjusts the local page size and resets to the first page.
func (c *Controller) ChangePageSize(size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if size <= 0 {
		return
	}
	c.pageSize = size
	c.page = 0
}

// SetViewMode stores the rendering toggle; nothing else depends on it.
func (c *Controller) SetViewMode(mode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mode == "table" || mode == "cards" {
		c.viewMode = mode
	}
}

// RemoveLocal drops one record from the displayed window after a confirmed
// delete; no re-fetch.
func (c *Controller) RemoveLocal(userUID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.users[:0]
	for _, u := range c.users {
		if u.UserUID != userUID {
			kept = append(kept, u)
		}
	}
	c.users = kept
	if max := c.pageCountLocked() - 1; c.page > max {
		c.page = max
	}
}

// Close tears the controller down: the pending debounce timer is cancelled
// and any response still in flight is discarded on arrival.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cancelTimerLocked()
	c.maybeIdleLocked()
}

// WaitIdle blocks until no debounce timer or fetch is outstanding, or the
// context ends.
func (c *Controller) WaitIdle(ctx context.Context) {
	for {
		c.mu.Lock()
		if c.pending == 0 && c.timer == nil {
			c.mu.Unlock()
			return
		}
		if c.idle == nil {
			c.idle = make(chan struct{})
		}
		ch := c.idle
		c.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return
		}
	}
}

// Snapshot returns the current render state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.page * c.pageSize
	end := start + c.pageSize
	if start > len(c.users) {
		start = len(c.users)
	}
	if end > len(c.users) {
		end = len(c.users)
	}

	users := make([]models.User, len(c.users))
	copy(users, c.users)

	return State{
		Filter:        c.filter,
		Users:         users,
		PageUsers:     users[start:end],
		Loading:       c.pending > 0 || c.timer != nil,
		ErrorMessage:  c.errMsg,
		LoginRequired: c.authGone,
		Page:          c.page,
		PageSize:      c.pageSize,
		PageCount:     c.pageCountLocked(),
		Total:         len(c.users),
		ViewMode:      c.viewMode,
	}
}

func (c *Controller) pageCountLocked() int {
	if len(c.users) == 0 {
		return 1
	}
	return (len(c.users) + c.pageSize - 1) / c.pageSize
}

func (c *Controller) cancelTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) becomeBusyLocked() {
	if c.idle == nil {
		c.idle = make(chan struct{})
	}
}

func (c *Controller) maybeIdleLocked() {
	if c.pending == 0 && c.timer == nil && c.idle != nil {
		close(c.idle)
		c.idle = nil
	}
}

// startFetchLocked issues a sequence-tagged fetch. Responses can arrive out
// of order when filters change faster than requests resolve; only the
// newest applied sequence wins, older responses are discarded.
func (c *Controller) startFetchLocked() {
	c.nextSeq++
	seq := c.nextSeq
	c.pending++
	filter := c.filter

	go func() {
		users, err := c.fetcher.ListUsers(context.Background(), c.cred, filter)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.pending--
		defer c.maybeIdleLocked()

		if c.closed || seq <= c.applied {
			return
		}
		c.applied = seq

		if err != nil {
			// Previous result set stays on screen; no automatic retry.
			if errors.Is(err, api.ErrLoginRequired) {
				c.authGone = true
			}
			c.errMsg = api.UserMessage(err, "failed to load users")
			return
		}

		c.authGone = false
		c.errMsg = ""
		if users == nil {
			users = []models.User{}
		}
		c.users = users
		if max := c.pageCountLocked() - 1; c.page > max {
			c.page = max
		}
	}()
}
