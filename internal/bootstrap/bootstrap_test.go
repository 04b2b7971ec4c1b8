package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"chirp-go/internal/api/handler"
	"chirp-go/internal/config"
	"chirp-go/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type app struct {
	engine   *gin.Engine
	services *Services
}

func newApp(t *testing.T) *app {
	t.Helper()

	cfg := &config.Config{
		App: config.AppConfig{Name: "chirp-go", Version: "test"},
		Session: config.SessionConfig{
			Secret:     "test-secret",
			CookieName: "chirp_session",
			TTLHours:   1,
		},
	}
	rdb, _ := testutil.CreateTempRedis(t)
	services := NewServices(Deps{
		DB:      testutil.CreateTempDB(t),
		Redis:   rdb,
		Session: cfg.Session,
		Issuer:  cfg.App.Name,
	})

	engine, err := NewEngine(services, cfg)
	require.NoError(t, err)
	return &app{engine: engine, services: services}
}

// browser 保存 cookie 的简易客户端
type browser struct {
	t       *testing.T
	app     *app
	cookies map[string]*http.Cookie
}

func (a *app) browser(t *testing.T) *browser {
	return &browser{t: t, app: a, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	b.app.engine.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, nil)
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, path, form)
}

func (b *browser) login(name string) {
	b.t.Helper()
	w := b.post("/login/", url.Values{"email": {name + "@x.com"}, "password": {"pw-" + name}})
	require.Equal(b.t, http.StatusFound, w.Code, w.Body.String())
}

func (a *app) mustUser(t *testing.T, name string, admin bool) {
	t.Helper()
	_, err := a.services.Auth.CreateUser(context.Background(), name, name+"@x.com", "pw-"+name, admin)
	require.NoError(t, err)
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, location, w.Header().Get("Location"))
}

func TestLoginRequired(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)

	for _, path := range []string{"/stream/", "/post_form", "/follow/alice/", "/unfollow/alice/", "/logout/", "/avatar/"} {
		w := b.get(path)
		assertRedirect(t, w, "/login/?next="+url.QueryEscape(path))
	}

	w := b.get("/login/?next=%2Fstream%2F")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Please log in to access this page.")
	assert.Contains(t, w.Body.String(), `value="/stream/"`)

	// 闪现消息只展示一次
	w = b.get("/login/")
	assert.NotContains(t, w.Body.String(), "Please log in")
}

func TestTamperedSessionIsAnonymous(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)
	b.cookies["chirp_session"] = &http.Cookie{Name: "chirp_session", Value: "not-a-token"}

	w := b.get("/stream/")
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestRegister(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)

	w := b.get("/register/")
	require.Equal(t, http.StatusOK, w.Code)

	form := url.Values{
		"username":  {"alice"},
		"email":     {"alice@x.com"},
		"password":  {"secret"},
		"password2": {"secret"},
	}
	assertRedirect(t, b.post("/register/", form), "/")
	assert.Contains(t, b.get("/").Body.String(), "Yay! you registered!")

	w = b.post("/register/", form)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "User with that name already exists.")

	form.Set("username", "alice2")
	w = b.post("/register/", form)
	assert.Contains(t, w.Body.String(), "User with that email already exists.")

	w = b.post("/register/", url.Values{
		"username":  {"bad name"},
		"email":     {"not-an-email"},
		"password":  {"secret"},
		"password2": {"other"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "letters, numbers, and underscores only")
	assert.Contains(t, body, "Invalid email address.")
	assert.Contains(t, body, "Passwords must match.")

	// 注册后可以直接登录
	b.post("/login/", url.Values{"email": {"alice@x.com"}, "password": {"secret"}})
	assert.Equal(t, http.StatusOK, b.get("/stream/").Code)
}

func TestLoginLogout(t *testing.T) {
	a := newApp(t)
	a.mustUser(t, "alice", false)
	b := a.browser(t)

	for _, form := range []url.Values{
		{"email": {"alice@x.com"}, "password": {"wrong"}},
		{"email": {"nobody@x.com"}, "password": {"pw-alice"}},
	} {
		w := b.post("/login/", form)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Your email or password doesn&#39;t match")
		assert.NotContains(t, b.cookies, "chirp_session")
	}

	w := b.post("/login/", url.Values{"email": {"alice@x.com"}, "password": {"pw-alice"}, "next": {"/stream/"}})
	assertRedirect(t, w, "/stream/")
	assert.Contains(t, b.cookies, "chirp_session")

	w = b.get("/stream/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "You&#39;ve been logged in!")

	assertRedirect(t, b.get("/logout/"), "/login/")
	assert.NotContains(t, b.cookies, "chirp_session")
	assert.Contains(t, b.get("/login/").Body.String(), "You&#39;ve been logged out! Come back soon.")
	assert.Equal(t, http.StatusFound, b.get("/stream/").Code)
}

func TestLoginIgnoresForeignNext(t *testing.T) {
	a := newApp(t)
	a.mustUser(t, "alice", false)

	for _, next := range []string{"https://evil.example/", "//evil.example/", "stream/"} {
		b := a.browser(t)
		w := b.post("/login/", url.Values{"email": {"alice@x.com"}, "password": {"pw-alice"}, "next": {next}})
		assertRedirect(t, w, "/")
	}
}

func TestPostForm(t *testing.T) {
	a := newApp(t)
	a.mustUser(t, "alice", false)
	b := a.browser(t)
	b.login("alice")

	require.Equal(t, http.StatusOK, b.get("/post_form").Code)

	w := b.post("/post_form", url.Values{"content": {"   "}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "This field is required.")

	w = b.post("/post_form", url.Values{"content": {strings.Repeat("x", 1001)}})
	assert.Contains(t, w.Body.String(), "Post is too long.")

	assertRedirect(t, b.post("/post_form", url.Values{"content": {"  hello world  "}}), "/")
	body := b.get("/").Body.String()
	assert.Contains(t, body, "Message posted! Thanks!")
	assert.Contains(t, body, "<p class=\"content\">hello world</p>")

	// 匿名用户也能看到全站流与单个帖子
	anon := a.browser(t)
	assert.Contains(t, anon.get("/").Body.String(), "hello world")
	assert.Contains(t, anon.get("/post/1/").Body.String(), "hello world")
}

func TestFollowUnfollow(t *testing.T) {
	a := newApp(t)
	a.mustUser(t, "alice", false)
	a.mustUser(t, "bob", false)

	bob := a.browser(t)
	bob.login("bob")
	bob.post("/post_form", url.Values{"content": {"bob here"}})

	alice := a.browser(t)
	alice.login("alice")
	alice.get("/")

	assert.NotContains(t, alice.get("/stream/").Body.String(), "bob here")

	assertRedirect(t, alice.get("/follow/bob/"), "/stream/bob/")
	w := alice.get("/stream/bob/")
	assert.Contains(t, w.Body.String(), "You&#39;re now following bob!")
	assert.Contains(t, w.Body.String(), "/unfollow/bob/")
	assert.Contains(t, alice.get("/stream/").Body.String(), "bob here")

	// 重复关注不再提示
	assertRedirect(t, alice.get("/follow/bob/"), "/stream/bob/")
	assert.NotContains(t, alice.get("/stream/bob/").Body.String(), "now following")

	assertRedirect(t, alice.get("/unfollow/bob/"), "/stream/bob/")
	assert.Contains(t, alice.get("/stream/bob/").Body.String(), "You&#39;ve unfollowed bob!")

	assertRedirect(t, alice.get("/unfollow/bob/"), "/stream/bob/")
	assert.NotContains(t, alice.get("/stream/bob/").Body.String(), "unfollowed")

	assertRedirect(t, alice.get("/follow/alice/"), "/stream/alice/")
	assert.Contains(t, alice.get("/stream/alice/").Body.String(), "follow yourself")

	assert.Equal(t, http.StatusNotFound, alice.get("/follow/nobody/").Code)
	assert.Equal(t, http.StatusNotFound, alice.get("/unfollow/nobody/").Code)
}

func TestNotFoundPages(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)

	for _, path := range []string{"/post/999/", "/post/abc/", "/stream/nobody/", "/no/such/page"} {
		w := b.get(path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), "Not found", path)
	}
}

func TestSearchFallsBackToDatabase(t *testing.T) {
	a := newApp(t)
	a.mustUser(t, "alice", false)
	b := a.browser(t)
	b.login("alice")
	b.post("/post_form", url.Values{"content": {"Gophers unite"}})
	b.post("/post_form", url.Values{"content": {"something else"}})

	w := b.get("/search/?q=gopher")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Gophers unite")
	assert.NotContains(t, w.Body.String(), "something else")

	w = b.get("/search/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "result(s)")
}

func TestAdminReindex(t *testing.T) {
	a := newApp(t)
	a.mustUser(t, "alice", false)
	a.mustUser(t, "root", true)

	alice := a.browser(t)
	alice.login("alice")
	assert.Equal(t, http.StatusNotFound, alice.get("/admin/reindex/").Code)

	root := a.browser(t)
	root.login("root")
	assertRedirect(t, root.get("/admin/reindex/"), "/search/")
	assert.Contains(t, root.get("/search/").Body.String(), "Search index is not configured.")
}

func TestAvatarDisabled(t *testing.T) {
	a := newApp(t)
	a.mustUser(t, "alice", false)
	b := a.browser(t)
	b.login("alice")

	assert.Equal(t, http.StatusNotFound, b.get("/avatar/").Code)
}

func TestHealthz(t *testing.T) {
	a := newApp(t)
	w := a.browser(t).get("/healthz")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "chirp-go", body["app"])
}

func TestHealthzReportsFailedDependency(t *testing.T) {
	r := gin.New()
	r.GET("/healthz", handler.Health("chirp-go", "test",
		handler.HealthCheck{Name: "database", Check: func(context.Context) error { return nil }},
		handler.HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, map[string]string{"database": "up", "redis": "down"}, body.Dependencies)
}
