package users

import (
	"context"
	"sync"
	"testing"
	"time"

	"useradmin/infrastructure/api"
	"useradmin/models"
)

type staticCred struct{}

func (staticCred) Token(context.Context) (string, error) { return "token", nil }

type funcFetcher struct {
	mu    sync.Mutex
	calls []api.UserFilter
	fn    func(f api.UserFilter) ([]models.User, error)
}

func (f *funcFetcher) ListUsers(_ context.Context, _ api.Credential, filter api.UserFilter) ([]models.User, error) {
	f.mu.Lock()
	f.calls = append(f.calls, filter)
	f.mu.Unlock()
	return f.fn(filter)
}

func (f *funcFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *funcFetcher) lastCall(t *testing.T) api.UserFilter {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatalf("no fetches issued")
	}
	return f.calls[len(f.calls)-1]
}

func usersNamed(uids ...string) []models.User {
	out := make([]models.User, 0, len(uids))
	for _, uid := range uids {
		out = append(out, models.User{UserUID: uid, Username: uid})
	}
	return out
}

func waitIdle(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.WaitIdle(ctx)
}

func TestSearchBurstIssuesOneFetchWithLastTerm(t *testing.T) {
	fetcher := &funcFetcher{fn: func(api.UserFilter) ([]models.User, error) {
		return usersNamed("u1"), nil
	}}
	c := NewController(fetcher, staticCred{}, 20*time.Millisecond)
	defer c.Close()

	c.Search("a")
	c.Search("ab")
	c.Search("abc")
	waitIdle(t, c)

	if got := fetcher.callCount(); got != 1 {
		t.Fatalf("fetches = %d, want 1", got)
	}
	if got := fetcher.lastCall(t).Term; got != "abc" {
		t.Fatalf("fetched term = %q, want abc", got)
	}
}

func TestSeparatedSearchesEachFetch(t *testing.T) {
	fetcher := &funcFetcher{fn: func(api.UserFilter) ([]models.User, error) {
		return usersNamed("u1"), nil
	}}
	c := NewController(fetcher, staticCred{}, 10*time.Millisecond)
	defer c.Close()

	c.Search("a")
	waitIdle(t, c)
	c.Search("ab")
	waitIdle(t, c)

	if got := fetcher.callCount(); got != 2 {
		t.Fatalf("fetches = %d, want 2", got)
	}
}

func TestFilterResetsPageAndFetchesImmediately(t *testing.T) {
	fetcher := &funcFetcher{fn: func(api.UserFilter) ([]models.User, error) {
		return usersNamed("u1", "u2", "u3", "u4", "u5", "u6"), nil
	}}
	c := NewController(fetcher, staticCred{}, time.Hour)
	defer c.Close()

	c.Refresh()
	waitIdle(t, c)
	c.ChangePageSize(2)
	c.ChangePage(2)
	if got := c.Snapshot().Page; got != 2 {
		t.Fatalf("page = %d, want 2", got)
	}

	c.FilterByOrganisation("org-1")
	waitIdle(t, c)

	st := c.Snapshot()
	if st.Page != 0 {
		t.Fatalf("page = %d after filter, want 0", st.Page)
	}
	if got := fetcher.lastCall(t).OrgUID; got != "org-1" {
		t.Fatalf("fetched orgUID = %q", got)
	}
	// An hour-long debounce never fired; the filter fetch was immediate.
	if got := fetcher.callCount(); got != 2 {
		t.Fatalf("fetches = %d, want 2", got)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	fetcher := &funcFetcher{fn: func(f api.UserFilter) ([]models.User, error) {
		if f.OrgUID == "slow" {
			<-release
			return usersNamed("stale"), nil
		}
		return usersNamed("fresh"), nil
	}}
	c := NewController(fetcher, staticCred{}, time.Hour)
	defer c.Close()

	c.FilterByOrganisation("slow")
	c.FilterByOrganisation("quick")

	deadline := time.Now().Add(2 * time.Second)
	for {
		st := c.Snapshot()
		if len(st.Users) == 1 && st.Users[0].UserUID == "fresh" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("fresh response never applied: %+v", st.Users)
		}
		time.Sleep(time.Millisecond)
	}

	close(release)
	waitIdle(t, c)

	st := c.Snapshot()
	if len(st.Users) != 1 || st.Users[0].UserUID != "fresh" {
		t.Fatalf("stale response overwrote newer result: %+v", st.Users)
	}
}

func TestFailedFetchKeepsPreviousResultSet(t *testing.T) {
	var fail bool
	var mu sync.Mutex
	fetcher := &funcFetcher{fn: func(api.UserFilter) ([]models.User, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return nil, &api.ServerError{Status: 500}
		}
		return usersNamed("u1", "u2"), nil
	}}
	c := NewController(fetcher, staticCred{}, 10*time.Millisecond)
	defer c.Close()

	c.Refresh()
	waitIdle(t, c)

	mu.Lock()
	fail = true
	mu.Unlock()
	c.Refresh()
	waitIdle(t, c)

	st := c.Snapshot()
	if len(st.Users) != 2 {
		t.Fatalf("previous result set lost: %d users", len(st.Users))
	}
	if st.ErrorMessage == "" {
		t.Fatalf("expected an error message")
	}
	// One failed fetch, one success before it; no automatic retry.
	if got := fetcher.callCount(); got != 2 {
		t.Fatalf("fetches = %d, want 2", got)
	}
}

func TestAuthFailureFlagsLoginRequired(t *testing.T) {
	fetcher := &funcFetcher{fn: func(api.UserFilter) ([]models.User, error) {
		return nil, &api.AuthError{Status: 401}
	}}
	c := NewController(fetcher, staticCred{}, 10*time.Millisecond)
	defer c.Close()

	c.Refresh()
	waitIdle(t, c)

	if !c.Snapshot().LoginRequired {
		t.Fatalf("expected LoginRequired after auth failure")
	}
}

func TestRemoveLocalDropsRecordWithoutRefetch(t *testing.T) {
	fetcher := &funcFetcher{fn: func(api.UserFilter) ([]models.User, error) {
		return usersNamed("u1", "u2", "u3"), nil
	}}
	c := NewController(fetcher, staticCred{}, 10*time.Millisecond)
	defer c.Close()

	c.Refresh()
	waitIdle(t, c)

	c.RemoveLocal("u2")

	st := c.Snapshot()
	if st.Total != 2 {
		t.Fatalf("total = %d after local removal, want 2", st.Total)
	}
	for _, u := range st.Users {
		if u.UserUID == "u2" {
			t.Fatalf("removed user still present")
		}
	}
	if got := fetcher.callCount(); got != 1 {
		t.Fatalf("fetches = %d, local removal must not re-fetch", got)
	}
}

func TestLocalPaginationWindowing(t *testing.T) {
	fetcher := &funcFetcher{fn: func(api.UserFilter) ([]models.User, error) {
		return usersNamed("u1", "u2", "u3", "u4", "u5"), nil
	}}
	c := NewController(fetcher, staticCred{}, 10*time.Millisecond)
	defer c.Close()

	c.Refresh()
	waitIdle(t, c)
	c.ChangePageSize(2)

	st := c.Snapshot()
	if st.PageCount != 3 || len(st.PageUsers) != 2 {
		t.Fatalf("pageCount=%d pageUsers=%d", st.PageCount, len(st.PageUsers))
	}

	c.ChangePage(2)
	st = c.Snapshot()
	if len(st.PageUsers) != 1 || st.PageUsers[0].UserUID != "u5" {
		t.Fatalf("last page = %+v", st.PageUsers)
	}

	// Out-of-range indexes clamp instead of erroring.
	c.ChangePage(99)
	if got := c.Snapshot().Page; got != 2 {
		t.Fatalf("page = %d, want clamp to 2", got)
	}
	c.ChangePage(-1)
	if got := c.Snapshot().Page; got != 0 {
		t.Fatalf("page = %d, want clamp to 0", got)
	}

	// Size change resets the index.
	c.ChangePage(2)
	c.ChangePageSize(5)
	if got := c.Snapshot().Page; got != 0 {
		t.Fatalf("page = %d after size change, want 0", got)
	}
	// Pagination never fetched.
	if got := fetcher.callCount(); got != 1 {
		t.Fatalf("fetches = %d, want 1", got)
	}
}

func TestCloseCancelsPendingDebounce(t *testing.T) {
	fetcher := &funcFetcher{fn: func(api.UserFilter) ([]models.User, error) {
		return usersNamed("u1"), nil
	}}
	c := NewController(fetcher, staticCred{}, 20*time.Millisecond)

	c.Search("abc")
	c.Close()

	time.Sleep(60 * time.Millisecond)
	if got := fetcher.callCount(); got != 0 {
		t.Fatalf("fetches = %d after close, want 0", got)
	}
}

func TestRegistryDropClosesController(t *testing.T) {
	fetcher := &funcFetcher{fn: func(api.UserFilter) ([]models.User, error) {
		return usersNamed("u1"), nil
	}}
	reg := NewRegistry(fetcher, 20*time.Millisecond)

	ctrl, created := reg.For("sess", staticCred{})
	if !created {
		t.Fatalf("expected first For to create")
	}
	if _, created := reg.For("sess", staticCred{}); created {
		t.Fatalf("second For must reuse")
	}

	ctrl.Search("abc")
	reg.Drop("sess")
	time.Sleep(60 * time.Millisecond)
	if got := fetcher.callCount(); got != 0 {
		t.Fatalf("fetches = %d after drop, want 0", got)
	}
	if _, ok := reg.Peek("sess"); ok {
		t.Fatalf("controller survived Drop")
	}
}
