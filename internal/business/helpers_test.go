package business_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/synapse-directory/synapse/internal/audit"
	"github.com/synapse-directory/synapse/internal/business"
	"github.com/synapse-directory/synapse/internal/directory"
	"github.com/synapse-directory/synapse/internal/location"
	"github.com/synapse-directory/synapse/internal/shared"
	"github.com/synapse-directory/synapse/internal/view"
	_ "github.com/synapse-directory/synapse/testing"
)

const sampleListing = `{"data":[
	{"_id":"a1","businessName":"Rock Fort Cafe","address":"12 Main Road","phone":"0431-111","workingHours":"9-5","specialization":"Filter coffee","whyVisit":"Views","locationLink":"https://maps.google.com/?q=10.8,78.7","approved":"true"},
	{"_id":"b2","businessName":"Bolt Cycles","address":"4 Market St","phone":"0431-222","approved":false},
	{"id":"c3","name":"Corner Books","address":"9 Hill Lane","phone":"0431-333"}
]}`

// directoryAPI stands in for the four Directory API gateways.
type directoryAPI struct {
	mu       sync.Mutex
	listBody string
	status   map[string]int
	bodies   map[string][]map[string]any
}

func newDirectoryAPI(listBody string) *directoryAPI {
	return &directoryAPI{listBody: listBody, status: map[string]int{}, bodies: map[string][]map[string]any{}}
}

func (d *directoryAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code := d.status[r.URL.Path]; code != 0 {
		w.WriteHeader(code)
		_, _ = io.WriteString(w, "boom")
		return
	}
	if r.URL.Path == "/view" {
		_, _ = io.WriteString(w, d.listBody)
		return
	}
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	d.bodies[r.URL.Path] = append(d.bodies[r.URL.Path], body)
	_, _ = io.WriteString(w, `{"ok":true}`)
}

func (d *directoryAPI) fail(path string, code int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status[path] = code
}

func (d *directoryAPI) calls(path string) []map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]map[string]any(nil), d.bodies[path]...)
}

type scheduled struct {
	delay time.Duration
	id    string
}

type recordingScheduler struct {
	mu    sync.Mutex
	calls []scheduled
}

func (s *recordingScheduler) ScheduleRefresh(_ context.Context, delay time.Duration, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, scheduled{delay: delay, id: id})
	return nil
}

func (s *recordingScheduler) all() []scheduled {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scheduled(nil), s.calls...)
}

type memoryStore struct {
	mu        sync.Mutex
	decisions []audit.Decision
}

func (m *memoryStore) InsertDecision(_ context.Context, d audit.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, d)
	return nil
}

func (m *memoryStore) RecentDecisions(_ context.Context, limit int) ([]audit.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]audit.Decision, 0, len(m.decisions))
	for i := len(m.decisions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.decisions[i])
	}
	return out, nil
}

// searchProvider is a ready map provider that resolves a fixed set of places.
type searchProvider map[string]location.Point

func (searchProvider) Ready(context.Context) error { return nil }

func (s searchProvider) Search(_ context.Context, q string) (location.Point, error) {
	if pt, ok := s[strings.ToLower(q)]; ok {
		return pt, nil
	}
	return location.Point{}, location.ErrNoPlace
}

type testEnv struct {
	t         *testing.T
	router    http.Handler
	api       *directoryAPI
	guard     *shared.RedisGuard
	scheduler *recordingScheduler
	history   *memoryStore
	sessions  *shared.SessionManager
	sessionID string
}

type envOption func(*business.Deps)

func newTestEnv(t *testing.T, listBody string, opts ...envOption) *testEnv {
	t.Helper()
	api := newDirectoryAPI(listBody)
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	templates, err := view.NewEngine()
	require.NoError(t, err)

	env := &testEnv{
		t:         t,
		api:       api,
		guard:     shared.NewRedisGuard(client, time.Minute),
		scheduler: &recordingScheduler{},
		history:   &memoryStore{},
		sessions:  shared.NewSessionManager(client, "test_session", "secret", time.Hour, false),
	}

	deps := business.Deps{
		Templates: templates,
		CSRF:      shared.NewCSRFManager("csrf"),
		Directory: directory.NewClient(directory.Endpoints{
			List:     srv.URL + "/view",
			Create:   srv.URL + "/insert",
			Update:   srv.URL + "/update",
			Approval: srv.URL + "/validation",
		}),
		Guard:        env.guard,
		Scheduler:    env.scheduler,
		History:      audit.NewRecorder(env.history, nil),
		RefreshDelay: time.Second,
		MapWait:      50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	r := chi.NewRouter()
	r.Use(env.sessionMiddleware)
	business.NewHandler(deps).MountRoutes(r)
	env.router = r

	sess, err := env.sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, env.sessions.Commit(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), sess))
	env.sessionID = sess.ID
	return env
}

// sessionMiddleware loads the shared test session and persists it once the
// handler returns.
func (e *testEnv) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := e.sessions.Load(r.Context(), r)
		require.NoError(e.t, err)
		ctx := shared.ContextWithSession(r.Context(), sess)
		next.ServeHTTP(w, r.WithContext(ctx))
		require.NoError(e.t, e.sessions.Commit(ctx, httptest.NewRecorder(), r, sess))
	})
}

func (e *testEnv) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	e.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.AddCookie(&http.Cookie{Name: "test_session", Value: e.sessionID})
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) doJSON(method, path, payload string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "test_session", Value: e.sessionID})
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func validForm() url.Values {
	return url.Values{
		"businessName":   {"Temple Flowers"},
		"address":        {"3 Temple St"},
		"phone":          {"0431-444"},
		"workingHours":   {"6 AM - 8 PM"},
		"specialization": {"Jasmine garlands"},
		"whyVisit":       {"Fresh every morning"},
	}
}
