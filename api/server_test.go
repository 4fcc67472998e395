package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/models"
	"gorm.io/gorm"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "correct horse battery staple"
)

type testEnv struct {
	t       *testing.T
	handler http.Handler
	db      database.Database
	gormDB  *gorm.DB
	token   string
}

func newTestAuthenticator(t *testing.T) *auth.Authenticator {
	t.Helper()
	hash, err := auth.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	a, err := auth.New(testAdminEmail, hash, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	return a
}

// newTestEnv serves the full router over a fresh in-memory database with an
// admin authenticator configured
func newTestEnv(t *testing.T, c map[string]string, opts ...Option) *testEnv {
	t.Helper()

	a := newTestAuthenticator(t)
	env := newBareTestEnv(t, c, append([]Option{WithAuthenticator(a)}, opts...)...)

	token, _, err := a.Issue(testAdminEmail)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	env.token = token
	return env
}

// newBareTestEnv serves the router with only the given options
func newBareTestEnv(t *testing.T, c map[string]string, opts ...Option) *testEnv {
	t.Helper()

	gormDB, err := database.Open(map[string]string{
		"DB_TYPE":      "sqlite",
		"DATABASE_URL": ":memory:",
		"DB_LOG_LEVEL": "silent",
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(gormDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if c == nil {
		c = map[string]string{}
	}
	db := database.New(gormDB)
	opts = append([]Option{withConfig(c), withStartupTime(time.Now())}, opts...)

	return &testEnv{
		t:       t,
		handler: newRouter(db, opts...),
		db:      db,
		gormDB:  gormDB,
	}
}

// do sends a request; body may be nil, a string, []byte or a value to encode
func (e *testEnv) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	e.t.Helper()

	var payload []byte
	switch b := body.(type) {
	case nil:
	case string:
		payload = []byte(b)
	case []byte:
		payload = b
	default:
		var err error
		payload, err = json.Marshal(b)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// admin sends a request carrying the admin bearer token
func (e *testEnv) admin(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	return e.do(method, path, body, map[string]string{"Authorization": "Bearer " + e.token})
}

func (e *testEnv) seedUpload(name string) *models.Upload {
	e.t.Helper()
	upload := &models.Upload{
		Name: name,
		URL:  "https://cdn.example.com/" + name,
		Key:  fmt.Sprintf("uploads/%s/%s", uuid.NewString(), name),
		Size: "2048",
	}
	if err := e.db.UploadRepo().Add(context.Background(), upload); err != nil {
		e.t.Fatalf("add upload: %v", err)
	}
	return upload
}

func (e *testEnv) seedTechnology(name string, category models.TechnologyCategory) *models.Technology {
	e.t.Helper()
	image := e.seedUpload(name + ".svg")
	technology, err := e.db.TechnologyRepo().Add(context.Background(), database.TechnologyInput{
		Name:     name,
		Category: category,
		ImageID:  image.ID,
	})
	if err != nil {
		e.t.Fatalf("add technology: %v", err)
	}
	return technology
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, nil)
	id := uuid.NewString()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/project"},
		{http.MethodPut, "/project/" + id},
		{http.MethodDelete, "/project/" + id},
		{http.MethodPost, "/technology"},
		{http.MethodPut, "/technology/" + id},
		{http.MethodDelete, "/technology/" + id},
		{http.MethodGet, "/messages"},
		{http.MethodGet, "/message/" + id},
		{http.MethodDelete, "/message/" + id},
		{http.MethodPost, "/upload"},
		{http.MethodPost, "/uploads/presign"},
		{http.MethodGet, "/dashboard/stats"},
		{http.MethodGet, "/auth/session"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rec := env.do(route.method, route.path, "{}", nil)
			expectStatus(t, rec, http.StatusUnauthorized)

			body := decodeJSON[ErrorResponse](t, rec)
			if body.Field != "authorization" {
				t.Errorf("field = %q, want authorization", body.Field)
			}
		})
	}
}

func TestProtectedRouteRejectsForeignToken(t *testing.T) {
	env := newTestEnv(t, nil)

	other, err := auth.New(testAdminEmail, "", "another-secret", time.Hour)
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	token, _, err := other.Issue(testAdminEmail)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := env.do(http.MethodGet, "/messages", nil, map[string]string{"Authorization": "Bearer " + token})
	expectStatus(t, rec, http.StatusUnauthorized)
	if body := decodeJSON[ErrorResponse](t, rec); body.Error != "invalid access token" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestPublicReadsNeedNoToken(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{
		"/projects",
		"/projects/featured",
		"/projects/status/Live",
		"/projects/search?q=anything",
		"/technologies",
		"/technologies/category/Backend",
		"/technologies/search?q=Go",
		"/uploads",
	} {
		t.Run(path, func(t *testing.T) {
			rec := env.do(http.MethodGet, path, nil, nil)
			expectStatus(t, rec, http.StatusOK)
			if got := rec.Body.String(); got != "[]" {
				t.Errorf("body = %s, want []", got)
			}
		})
	}
}

func TestAdminRoutesUnavailableWithoutAuthenticator(t *testing.T) {
	env := newBareTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/messages", nil, map[string]string{"Authorization": "Bearer whatever"})
	expectStatus(t, rec, http.StatusServiceUnavailable)

	rec = env.do(http.MethodPost, "/auth/login", map[string]string{"email": testAdminEmail, "password": "x"}, nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)
}

func TestLoginAndSession(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    testAdminEmail,
		"password": "wrong",
	}, nil)
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = env.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    testAdminEmail,
		"password": testAdminPassword,
	}, nil)
	expectStatus(t, rec, http.StatusOK)
	login := decodeJSON[loginResponse](t, rec)
	if login.Token == "" || !login.ExpiresAt.After(time.Now()) {
		t.Fatalf("unexpected login response: %+v", login)
	}

	rec = env.do(http.MethodGet, "/auth/session", nil, map[string]string{"Authorization": "Bearer " + login.Token})
	expectStatus(t, rec, http.StatusOK)
	if session := decodeJSON[sessionResponse](t, rec); session.Email != testAdminEmail {
		t.Errorf("session email = %q", session.Email)
	}
}

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (l *stubLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allowed, l.err
}

func (l *stubLimiter) Window() time.Duration { return 90 * time.Second }

func TestContactFormRateLimited(t *testing.T) {
	limiter := &stubLimiter{allowed: false}
	env := newTestEnv(t, nil, func(r *router) { r.contactLimiter = limiter })

	rec := env.do(http.MethodPost, "/messages", map[string]string{
		"name":    "Ada",
		"email":   "ada@example.com",
		"message": "hello",
	}, nil)
	expectStatus(t, rec, http.StatusTooManyRequests)

	if got := rec.Header().Get("Retry-After"); got != "90" {
		t.Errorf("Retry-After = %q, want 90", got)
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "192.0.2.1" {
		t.Errorf("limiter keys = %v", limiter.keys)
	}

	messages, err := env.db.MessageRepo().FindAll(context.Background())
	if err != nil {
		t.Fatalf("find messages: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("stored %d messages while limited", len(messages))
	}
}

func TestRateLimiterFailureLetsRequestThrough(t *testing.T) {
	limiter := &stubLimiter{err: fmt.Errorf("redis down")}
	env := newTestEnv(t, nil, func(r *router) { r.contactLimiter = limiter })

	rec := env.do(http.MethodPost, "/messages", map[string]string{
		"name":    "Ada",
		"email":   "ada@example.com",
		"message": "hello",
	}, nil)
	expectStatus(t, rec, http.StatusCreated)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/healthz", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	if body := decodeJSON[healthResponse](t, rec); body.Status != "ok" {
		t.Errorf("status = %q", body.Status)
	}

	sqlDB, _ := env.gormDB.DB()
	sqlDB.Close()

	rec = env.do(http.MethodGet, "/healthz", nil, nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(http.MethodGet, "/projects", nil, nil)

	rec := env.do(http.MethodGet, "/metrics", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	if !bytes.Contains(rec.Body.Bytes(), []byte("http_request_duration_seconds")) {
		t.Errorf("metrics output does not contain the request histogram")
	}
}

// countingLimiter allows one request per key
type countingLimiter struct {
	hits map[string]int
}

func (l *countingLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.hits == nil {
		l.hits = map[string]int{}
	}
	l.hits[key]++
	return l.hits[key] <= 1, nil
}

func (l *countingLimiter) Window() time.Duration { return time.Minute }

func TestLoginLimitIgnoresForwardedHeadersFromClients(t *testing.T) {
	limiter := &countingLimiter{}
	env := newTestEnv(t, nil, func(r *router) { r.loginLimiter = limiter })

	credentials := map[string]string{"email": testAdminEmail, "password": "wrong"}
	forged := []map[string]string{
		{"X-Forwarded-For": "198.51.100.1"},
		{"X-Forwarded-For": "198.51.100.2", "X-Real-IP": "198.51.100.3"},
		{"X-Real-IP": "198.51.100.4"},
	}

	rec := env.do(http.MethodPost, "/auth/login", credentials, forged[0])
	expectStatus(t, rec, http.StatusUnauthorized)

	for _, headers := range forged[1:] {
		rec = env.do(http.MethodPost, "/auth/login", credentials, headers)
		expectStatus(t, rec, http.StatusTooManyRequests)
	}

	if len(limiter.hits) != 1 || limiter.hits["192.0.2.1"] != 3 {
		t.Errorf("limiter hits = %v, want only the socket peer", limiter.hits)
	}
}

func TestTrustedProxyForwardsClientAddress(t *testing.T) {
	limiter := &stubLimiter{allowed: false}
	env := newTestEnv(t, map[string]string{"TRUSTED_PROXIES": "192.0.2.0/24, not-an-ip"},
		func(r *router) { r.loginLimiter = limiter })

	tests := []struct {
		name    string
		headers map[string]string
		wantKey string
	}{
		{"rightmost untrusted hop", map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.7"}, "203.0.113.7"},
		{"skips trusted hops", map[string]string{"X-Forwarded-For": "203.0.113.8, 192.0.2.10"}, "203.0.113.8"},
		{"real ip header", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
		{"no headers", nil, "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter.keys = nil
			rec := env.do(http.MethodPost, "/auth/login", map[string]string{"email": testAdminEmail, "password": "x"}, tt.headers)
			expectStatus(t, rec, http.StatusTooManyRequests)
			if len(limiter.keys) != 1 || limiter.keys[0] != tt.wantKey {
				t.Errorf("limiter keys = %v, want %s", limiter.keys, tt.wantKey)
			}
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	trusted := parseTrustedProxies([]string{"10.0.0.0/8", "127.0.0.1", "::1", "bogus", "300.0.0.0/8"})
	if len(trusted) != 3 {
		t.Fatalf("parsed %d networks, want 3", len(trusted))
	}

	for addr, want := range map[string]bool{
		"10.20.30.40": true,
		"127.0.0.1":   true,
		"127.0.0.2":   false,
		"::1":         true,
		"192.0.2.1":   false,
		"garbage":     false,
	} {
		if got := trusted.contains(addr); got != want {
			t.Errorf("contains(%s) = %v, want %v", addr, got, want)
		}
	}
}

func TestServerStartAndShutdown(t *testing.T) {
	db := database.New(newBareTestEnv(t, nil).gormDB)
	server, err := NewServer(db, map[string]string{"PORT": "0"})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	errChannel := make(chan error, 2)
	go server.Start(errChannel)

	time.Sleep(50 * time.Millisecond)
	server.ShutdownGracefully(time.Second)

	select {
	case err := <-errChannel:
		if err != http.ErrServerClosed {
			t.Errorf("Start returned %v, want %v", err, http.ErrServerClosed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after shutdown")
	}
}
