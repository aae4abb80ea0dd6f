package crud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// ── Test entity ──────────────────────────────────────────────────────────────

type owner struct {
	ID   *int64  `json:"id,omitempty"`
	Name *string `json:"name,omitempty"`
}

type widget struct {
	ID    *int64  `json:"id,omitempty"`
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
	Owner *owner  `json:"owner,omitempty"`
}

func (w widget) GetID() *int64 { return w.ID }

func int64p(v int64) *int64 { return &v }
func strp(v string) *string { return &v }

func newWidget(id int64, name string) widget {
	return widget{ID: int64p(id), Name: strp(name)}
}

var widgets = Resource{Name: "widget", Path: "api/widgets"}

// ── Fake REST collection ─────────────────────────────────────────────────────

type recorded struct {
	Method      string
	Path        string
	Query       url.Values
	ContentType string
	Body        string
}

type fakeAPI struct {
	mu       sync.Mutex
	items    map[int64]widget
	nextID   int64
	requests []recorded

	totalHeader func(n int) string // nil writes the real count
	failStatus  int
	// gate runs before a request is served, outside the lock.
	gate func(r *http.Request)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{items: map[int64]widget{}, nextID: 1}
}

func (f *fakeAPI) seed(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		id := f.nextID
		f.nextID++
		f.items[id] = newWidget(id, n)
	}
}

func (f *fakeAPI) fail(status int) {
	f.mu.Lock()
	f.failStatus = status
	f.mu.Unlock()
}

func (f *fakeAPI) recorded() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.requests...)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.Query(),
		ContentType: r.Header.Get("Content-Type"),
		Body:        string(body),
	})
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		gate(r)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failStatus != 0 {
		writeJSON(w, f.failStatus, map[string]string{"detail": "backend exploded"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/widgets")
	if rest == "" {
		switch r.Method {
		case http.MethodGet:
			f.list(w)
		case http.MethodPost:
			var in widget
			if err := json.Unmarshal(body, &in); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
				return
			}
			in.ID = int64p(f.nextID)
			f.nextID++
			f.items[*in.ID] = in
			writeJSON(w, http.StatusCreated, in)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(rest, "/"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	cur, ok := f.items[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "widget not found"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, cur)
	case http.MethodPut:
		var in widget
		_ = json.Unmarshal(body, &in)
		f.items[id] = in
		writeJSON(w, http.StatusOK, in)
	case http.MethodPatch:
		merged := map[string]json.RawMessage{}
		raw, _ := json.Marshal(cur)
		_ = json.Unmarshal(raw, &merged)
		patch := map[string]json.RawMessage{}
		_ = json.Unmarshal(body, &patch)
		for k, v := range patch {
			merged[k] = v
		}
		raw, _ = json.Marshal(merged)
		var out widget
		_ = json.Unmarshal(raw, &out)
		f.items[id] = out
		writeJSON(w, http.StatusOK, out)
	case http.MethodDelete:
		delete(f.items, id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *fakeAPI) list(w http.ResponseWriter) {
	ids := make([]int64, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]widget, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.items[id])
	}

	total := strconv.Itoa(len(out))
	if f.totalHeader != nil {
		total = f.totalHeader(len(out))
	}
	if total != "" {
		w.Header().Set(TotalCountHeader, total)
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func setup(t *testing.T, opts ...Option) (*fakeAPI, *Controller[widget]) {
	t.Helper()
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithClock(func() time.Time { return time.UnixMilli(1700000000000) })}, opts...)
	return api, New[widget](srv.URL, widgets, srv.Client(), opts...)
}

// ── List ─────────────────────────────────────────────────────────────────────

func TestList_EmptyCollection(t *testing.T) {
	_, c := setup(t)

	require.NoError(t, c.List(context.Background(), ListParams{}))

	s := c.State()
	assert.Empty(t, s.Entities)
	assert.Zero(t, s.TotalItems)
	assert.False(t, s.Loading)
	assert.False(t, s.HasError())
}

func TestList_WithSortSendsPaging(t *testing.T) {
	api, c := setup(t)
	api.seed("a", "b", "c")

	require.NoError(t, c.List(context.Background(), ListParams{Page: 2, Size: 10, Sort: "name,asc"}))

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	q := reqs[0].Query
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "10", q.Get("size"))
	assert.Equal(t, "name,asc", q.Get("sort"))
	assert.Equal(t, "1700000000000", q.Get("cacheBuster"))

	s := c.State()
	assert.Len(t, s.Entities, 3)
	assert.Equal(t, 3, s.TotalItems)
}

func TestList_WithoutSortSendsOnlyCacheBuster(t *testing.T) {
	api, c := setup(t)

	require.NoError(t, c.List(context.Background(), ListParams{Page: 3, Size: 5}))

	q := api.recorded()[0].Query
	assert.Len(t, q, 1)
	assert.NotEmpty(t, q.Get("cacheBuster"))
}

func TestList_TotalFromHeaderNotBody(t *testing.T) {
	api, c := setup(t)
	api.seed("a", "b")
	api.totalHeader = func(int) string { return "42" }

	require.NoError(t, c.List(context.Background(), ListParams{}))

	s := c.State()
	assert.Len(t, s.Entities, 2)
	assert.Equal(t, 42, s.TotalItems)
}

func TestList_MissingTotalFallsBackToLength(t *testing.T) {
	api, c := setup(t)
	api.seed("a", "b")
	api.totalHeader = func(int) string { return "" }

	require.NoError(t, c.List(context.Background(), ListParams{}))
	assert.Equal(t, 2, c.State().TotalItems)
}

func TestList_NonIntegerTotalIsMalformed(t *testing.T) {
	api, c := setup(t)
	api.seed("a")
	api.totalHeader = func(int) string { return "many" }

	err := c.List(context.Background(), ListParams{})

	require.Error(t, err)
	assert.Equal(t, MalformedResponse, KindOf(err))
	assert.True(t, c.State().HasError())
}

func TestList_FailureKeepsPreviousEntities(t *testing.T) {
	api, c := setup(t)
	api.seed("a", "b")
	require.NoError(t, c.List(context.Background(), ListParams{}))

	api.fail(http.StatusInternalServerError)
	err := c.List(context.Background(), ListParams{})

	require.Error(t, err)
	assert.Equal(t, ServerFailure, KindOf(err))
	s := c.State()
	assert.Len(t, s.Entities, 2)
	assert.False(t, s.Loading)
	assert.Contains(t, s.ErrorMessage, "500")
	assert.Contains(t, s.ErrorMessage, "backend exploded")
}

func TestList_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(newFakeAPI())
	srv.Close()
	c := New[widget](srv.URL, widgets, nil)

	err := c.List(context.Background(), ListParams{})

	require.Error(t, err)
	assert.Equal(t, TransportFailure, KindOf(err))
	assert.True(t, c.State().HasError())
	assert.False(t, c.State().Loading)
}

type badJSON struct{}

func (badJSON) Do(*http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("<html>")),
	}, nil
}

func TestList_UndecodableBodyIsMalformed(t *testing.T) {
	c := New[widget]("http://api.invalid", widgets, badJSON{})

	err := c.List(context.Background(), ListParams{})
	assert.Equal(t, MalformedResponse, KindOf(err))
}

// ── Get ──────────────────────────────────────────────────────────────────────

func TestGet_NotFound(t *testing.T) {
	_, c := setup(t)

	err := c.Get(context.Background(), 99)

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "not found", Message(err))
	assert.Contains(t, c.State().ErrorMessage, "404")
}

func TestGet_RejectsNonPositiveIDWithoutRequest(t *testing.T) {
	api, c := setup(t)

	err := c.Get(context.Background(), 0)

	require.Error(t, err)
	assert.Equal(t, InvalidArgument, KindOf(err))
	assert.ErrorIs(t, err, ErrMissingID)
	assert.Empty(t, api.recorded())
	assert.False(t, c.State().Loading)
}

// ── Writes ───────────────────────────────────────────────────────────────────

func TestCreate_ThenGetReturnsSameFields(t *testing.T) {
	api, c := setup(t)
	ctx := context.Background()

	draft := widget{ID: int64p(55), Name: strp("gear"), Color: strp("red"), Owner: &owner{}}
	require.NoError(t, c.Create(ctx, draft))

	post := api.recorded()[0]
	assert.Equal(t, http.MethodPost, post.Method)
	assert.Equal(t, "application/json", post.ContentType)
	assert.JSONEq(t, `{"name":"gear","color":"red"}`, post.Body, "id and placeholder reference stripped")

	s := c.State()
	require.True(t, s.UpdateSuccess)
	id := *s.Entity.ID

	require.NoError(t, c.Get(ctx, id))
	got := c.State().Entity
	assert.Equal(t, "gear", *got.Name)
	assert.Equal(t, "red", *got.Color)
}

func TestUpdate_ThenGetReflectsChanges(t *testing.T) {
	api, c := setup(t)
	api.seed("gear")
	ctx := context.Background()

	rec := newWidget(1, "cog")
	rec.Color = strp("blue")
	require.NoError(t, c.Update(ctx, rec))

	put := api.recorded()[0]
	assert.Equal(t, http.MethodPut, put.Method)
	assert.Equal(t, "/api/widgets/1", put.Path)

	require.NoError(t, c.Get(ctx, 1))
	assert.Equal(t, "cog", *c.State().Entity.Name)
	assert.Equal(t, "blue", *c.State().Entity.Color)
}

func TestPartialUpdate_LeavesAbsentFields(t *testing.T) {
	api, c := setup(t)
	api.seed("gear")
	api.items[1] = widget{ID: int64p(1), Name: strp("gear"), Color: strp("red")}
	ctx := context.Background()

	require.NoError(t, c.PartialUpdate(ctx, widget{ID: int64p(1), Color: strp("green")}))

	patch := api.recorded()[0]
	assert.Equal(t, http.MethodPatch, patch.Method)
	assert.Equal(t, "application/merge-patch+json", patch.ContentType)
	assert.JSONEq(t, `{"id":1,"color":"green"}`, patch.Body)

	require.NoError(t, c.Get(ctx, 1))
	assert.Equal(t, "gear", *c.State().Entity.Name)
	assert.Equal(t, "green", *c.State().Entity.Color)
}

func TestUpdate_WithoutIDIsRejectedLocally(t *testing.T) {
	api, c := setup(t)

	for name, op := range map[string]func(context.Context, widget) error{
		"update":  c.Update,
		"partial": c.PartialUpdate,
	} {
		t.Run(name, func(t *testing.T) {
			err := op(context.Background(), widget{Name: strp("x")})
			require.Error(t, err)
			assert.Equal(t, InvalidArgument, KindOf(err))
			assert.ErrorIs(t, err, ErrMissingID)

			s := c.State()
			assert.False(t, s.Updating)
			assert.False(t, s.UpdateSuccess)
			assert.True(t, s.HasError())
		})
	}
	assert.Empty(t, api.recorded())
}

func TestWrite_RefreshesListAndKeepsUpdateSuccess(t *testing.T) {
	api, c := setup(t)
	api.seed("a")
	ctx := context.Background()

	require.NoError(t, c.List(ctx, ListParams{Page: 1, Size: 5, Sort: "id,desc"}))
	require.NoError(t, c.Create(ctx, widget{Name: strp("b")}))

	reqs := api.recorded()
	require.Len(t, reqs, 3)
	refresh := reqs[2]
	assert.Equal(t, http.MethodGet, refresh.Method)
	assert.Equal(t, "/api/widgets", refresh.Path)
	assert.Empty(t, refresh.Query.Get("sort"), "refresh does not keep paging")

	s := c.State()
	assert.True(t, s.UpdateSuccess)
	assert.False(t, s.Loading)
	assert.False(t, s.Updating)
	assert.Len(t, s.Entities, 2)
	assert.Equal(t, 2, s.TotalItems)
}

func TestWrite_FailedRefreshDoesNotFailWrite(t *testing.T) {
	api, c := setup(t)
	api.gate = func(r *http.Request) {
		if r.Method == http.MethodGet {
			api.fail(http.StatusBadGateway)
		}
	}

	require.NoError(t, c.Create(context.Background(), widget{Name: strp("a")}))

	s := c.State()
	assert.True(t, s.UpdateSuccess)
	assert.True(t, s.HasError())
	assert.Contains(t, s.ErrorMessage, "502")
}

func TestWrite_ServerFailureLeavesUpdateSuccessFalse(t *testing.T) {
	api, c := setup(t)
	api.fail(http.StatusBadRequest)

	err := c.Create(context.Background(), widget{Name: strp("a")})

	require.Error(t, err)
	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusBadRequest, ce.Status)
	assert.Equal(t, "backend exploded", ce.Detail)

	s := c.State()
	assert.False(t, s.UpdateSuccess)
	assert.False(t, s.Updating)
	assert.Len(t, api.recorded(), 1, "no refresh after a failed write")
}

func TestDelete_ThenGetIsNotFound(t *testing.T) {
	api, c := setup(t)
	api.seed("a", "b")
	ctx := context.Background()

	require.NoError(t, c.Get(ctx, 1))
	require.NoError(t, c.Delete(ctx, 1))

	s := c.State()
	assert.True(t, s.UpdateSuccess)
	assert.Nil(t, s.Entity.ID)
	assert.Len(t, s.Entities, 1)

	err := c.Get(ctx, 1)
	assert.True(t, IsNotFound(err))
}

func TestDelete_MissingRowSurfacesNotFound(t *testing.T) {
	_, c := setup(t)

	err := c.Delete(context.Background(), 8)

	assert.True(t, IsNotFound(err))
	assert.False(t, c.State().UpdateSuccess)
}

func TestReset_ClearsEntityAndSuccess(t *testing.T) {
	_, c := setup(t)
	require.NoError(t, c.Create(context.Background(), widget{Name: strp("a")}))

	c.Reset()

	s := c.State()
	assert.Nil(t, s.Entity.ID)
	assert.False(t, s.UpdateSuccess)
	assert.Len(t, s.Entities, 1)
}

// ── Subscriptions ────────────────────────────────────────────────────────────

func TestSubscribe_ObservesUpdateSuccess(t *testing.T) {
	_, c := setup(t)
	updates, cancel := c.Subscribe()

	require.NoError(t, c.Create(context.Background(), widget{Name: strp("a")}))
	cancel()

	var sawSuccess bool
	var last State[widget]
	for s := range updates {
		sawSuccess = sawSuccess || s.UpdateSuccess
		last = s
	}
	assert.True(t, sawSuccess)
	assert.False(t, last.Loading)
	assert.Len(t, last.Entities, 1)
}

func TestSubscribe_SnapshotsAreIsolated(t *testing.T) {
	api, c := setup(t)
	api.seed("a")
	require.NoError(t, c.List(context.Background(), ListParams{}))

	s := c.State()
	s.Entities[0].Name = strp("mutated")
	s.Entities = append(s.Entities, newWidget(9, "z"))

	fresh := c.State()
	assert.Len(t, fresh.Entities, 1)
}

// ── Races ────────────────────────────────────────────────────────────────────

// raceGets issues Get(1) then Get(2), completes 2 first and 1 last, and
// returns the resulting focused id.
func raceGets(t *testing.T, opts ...Option) int64 {
	t.Helper()
	api, c := setup(t, opts...)
	api.seed("first", "second")

	arrived := make(chan string, 2)
	release := map[string]chan struct{}{
		"/api/widgets/1": make(chan struct{}),
		"/api/widgets/2": make(chan struct{}),
	}
	api.gate = func(r *http.Request) {
		if ch, ok := release[r.URL.Path]; ok {
			arrived <- r.URL.Path
			<-ch
		}
	}

	ctx := context.Background()
	var g1, g2 errgroup.Group
	g1.Go(func() error { return c.Get(ctx, 1) })
	require.Equal(t, "/api/widgets/1", <-arrived)
	g2.Go(func() error { return c.Get(ctx, 2) })
	require.Equal(t, "/api/widgets/2", <-arrived)

	close(release["/api/widgets/2"])
	require.NoError(t, g2.Wait())
	close(release["/api/widgets/1"])
	require.NoError(t, g1.Wait())

	s := c.State()
	assert.False(t, s.Loading)
	return *s.Entity.ID
}

func TestRace_LastCompletionWinsByDefault(t *testing.T) {
	assert.Equal(t, int64(1), raceGets(t))
}

func TestRace_ResponseOrderingKeepsNewestRequest(t *testing.T) {
	assert.Equal(t, int64(2), raceGets(t, WithResponseOrdering()))
}

// heldDoer answers GET requests for one path from the server at once but
// hands the response back only after release is closed.
type heldDoer struct {
	next    Doer
	path    string
	arrived chan struct{}
	release chan struct{}
}

func (d *heldDoer) Do(r *http.Request) (*http.Response, error) {
	resp, err := d.next.Do(r)
	if err != nil || r.Method != http.MethodGet || r.URL.Path != d.path {
		return resp, err
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(strings.NewReader(string(body)))
	close(d.arrived)
	<-d.release
	return resp, nil
}

// raceGetAgainst starts Get(1), lets mutate finish while the Get response
// is held back, then delivers the stale Get response.
func raceGetAgainst(t *testing.T, mutate func(context.Context, *Controller[widget]) error, opts ...Option) State[widget] {
	t.Helper()
	api := newFakeAPI()
	api.seed("first")
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	held := &heldDoer{next: srv.Client(), path: "/api/widgets/1", arrived: make(chan struct{}), release: make(chan struct{})}
	c := New[widget](srv.URL, widgets, held, opts...)

	ctx := context.Background()
	var g errgroup.Group
	g.Go(func() error { return c.Get(ctx, 1) })
	<-held.arrived

	require.NoError(t, mutate(ctx, c))
	close(held.release)
	require.NoError(t, g.Wait())
	return c.State()
}

func TestRace_ResponseOrderingDropsGetOlderThanDelete(t *testing.T) {
	s := raceGetAgainst(t, func(ctx context.Context, c *Controller[widget]) error {
		return c.Delete(ctx, 1)
	}, WithResponseOrdering())

	assert.Nil(t, s.Entity.ID, "deleted record stays gone")
	assert.True(t, s.UpdateSuccess)
	assert.Empty(t, s.Entities)
}

func TestRace_ResponseOrderingDropsGetOlderThanUpdate(t *testing.T) {
	s := raceGetAgainst(t, func(ctx context.Context, c *Controller[widget]) error {
		return c.Update(ctx, newWidget(1, "renamed"))
	}, WithResponseOrdering())

	require.NotNil(t, s.Entity.Name)
	assert.Equal(t, "renamed", *s.Entity.Name)
	assert.True(t, s.UpdateSuccess)
}

func TestRace_GetOlderThanDeleteWinsByDefault(t *testing.T) {
	s := raceGetAgainst(t, func(ctx context.Context, c *Controller[widget]) error {
		return c.Delete(ctx, 1)
	})

	require.NotNil(t, s.Entity.ID)
	assert.Equal(t, "first", *s.Entity.Name)
}

func TestRace_ResponseOrderingAppliesGetAfterMutation(t *testing.T) {
	_, c := setup(t, WithResponseOrdering())
	ctx := context.Background()
	require.NoError(t, c.Create(ctx, widget{Name: strp("a")}))
	require.NoError(t, c.Create(ctx, widget{Name: strp("b")}))

	require.NoError(t, c.Get(ctx, 1))
	assert.Equal(t, "a", *c.State().Entity.Name)
}

func TestRace_ConcurrentWritesAllLand(t *testing.T) {
	api, c := setup(t)
	ctx := context.Background()

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error { return c.Create(ctx, widget{Name: strp(fmt.Sprintf("w%d", i))}) })
	}
	require.NoError(t, g.Wait())

	require.NoError(t, c.List(ctx, ListParams{}))
	s := c.State()
	assert.Len(t, s.Entities, 8)
	assert.Equal(t, 8, s.TotalItems)
	assert.False(t, s.Updating)

	posts := 0
	for _, r := range api.recorded() {
		if r.Method == http.MethodPost {
			posts++
		}
	}
	assert.Equal(t, 8, posts)
}
