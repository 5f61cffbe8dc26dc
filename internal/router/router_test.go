package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"boardly/internal/config"
	"boardly/internal/middleware"
	"boardly/internal/models"
	"boardly/internal/testutil"
	"boardly/internal/views"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	db     *gorm.DB
}

func newTestServer(t *testing.T, limits config.RateLimits) *testServer {
	t.Helper()
	conn := testutil.OpenDB(t)
	cfg := config.Config{
		SessionName: "boardly_test",
		SessionKey:  "test-secret",
		SessionTTL:  time.Hour,
		RateLimits:  limits,
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	r.HTMLRender = views.Load("../../web/templates")
	if err := RegisterRoutes(r, conn, cfg); err != nil {
		t.Fatalf("register routes: %v", err)
	}
	return &testServer{t: t, engine: r, db: conn}
}

var generous = config.RateLimits{VotePerMinute: 1000, WritePerMinute: 1000}

func (s *testServer) do(method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			s.t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(email, password string) []*http.Cookie {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, nil)
	if w.Code != http.StatusOK {
		s.t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		s.t.Fatal("login did not set a session cookie")
	}
	return cookies
}

func (s *testServer) loginAs(role models.Role) (*models.User, []*http.Cookie) {
	s.t.Helper()
	u := testutil.CreateUser(s.t, s.db, role)
	return u, s.login(u.Email, testutil.Password)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return m
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, kind string) map[string]any {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, w.Code, w.Body.String())
	}
	m := decode(t, w)
	if m["error"] != kind {
		t.Fatalf("expected error %q, got %v", kind, m["error"])
	}
	if msg, _ := m["message"].(string); msg == "" {
		t.Fatal("error response must carry a message")
	}
	return m
}

func TestSignupLoginPostAndVote(t *testing.T) {
	s := newTestServer(t, generous)
	board := testutil.CreateBoard(t, s.db)

	w := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"email": "alice@example.com", "username": "alice", "password": "secret123",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: %d %s", w.Code, w.Body.String())
	}
	cookies := s.login("alice@example.com", "secret123")

	w = s.do(http.MethodPost, "/api/posts", map[string]string{
		"title": "Hello", "content": "first *post*", "boardSlug": board.Slug,
	}, cookies)
	if w.Code != http.StatusCreated {
		t.Fatalf("create post: %d %s", w.Code, w.Body.String())
	}
	postID := uint(decode(t, w)["post"].(map[string]any)["id"].(float64))

	vote := map[string]any{"targetId": postID, "targetType": "post", "direction": "up"}
	w = s.do(http.MethodPost, "/api/votes", vote, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("vote: %d %s", w.Code, w.Body.String())
	}
	res := decode(t, w)
	agg := res["aggregate"].(map[string]any)
	if res["outcome"] != "registered" || res["message"] != "vote registered" || agg["score"] != float64(1) {
		t.Fatalf("unexpected vote response %v", res)
	}

	// "type" is accepted as the direction.
	w = s.do(http.MethodPost, "/api/votes", map[string]any{"targetId": postID, "targetType": "post", "type": "up"}, cookies)
	if res := decode(t, w); res["outcome"] != "cancelled" {
		t.Fatalf("expected cancel, got %v", res)
	}

	w = s.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", postID), nil, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("detail: %d %s", w.Code, w.Body.String())
	}
	post := decode(t, w)["post"].(map[string]any)
	if post["views"] != float64(1) || post["score"] != float64(0) {
		t.Fatalf("unexpected detail %v", post)
	}
	if !strings.Contains(post["contentHtml"].(string), "<em>post</em>") {
		t.Fatalf("expected rendered markdown, got %v", post["contentHtml"])
	}
	if strings.Contains(w.Body.String(), "alice@example.com") {
		t.Fatal("post detail must not expose author email")
	}

	w = s.do(http.MethodGet, "/api/posts?board="+board.Slug, nil, nil)
	list := decode(t, w)
	if list["total"] != float64(1) || list["page"] != float64(1) {
		t.Fatalf("unexpected list %v", list)
	}
}

func TestAnonymousWriteIs401(t *testing.T) {
	s := newTestServer(t, generous)
	w := s.do(http.MethodPost, "/api/votes", map[string]any{"targetId": 1, "targetType": "post", "direction": "up"}, nil)
	expectError(t, w, http.StatusUnauthorized, "authentication_required")

	w = s.do(http.MethodGet, "/api/profile", nil, nil)
	expectError(t, w, http.StatusUnauthorized, "authentication_required")
}

func TestValidationAndNotFoundShapes(t *testing.T) {
	s := newTestServer(t, generous)
	_, cookies := s.loginAs(models.RoleUser)

	w := s.do(http.MethodPost, "/api/votes", map[string]any{"targetId": 1, "targetType": "post", "direction": "sideways"}, cookies)
	m := expectError(t, w, http.StatusBadRequest, "validation_error")
	if m["field"] != "direction" {
		t.Fatalf("expected field direction, got %v", m["field"])
	}

	w = s.do(http.MethodPost, "/api/votes", map[string]any{"targetId": 999, "targetType": "comment", "direction": "up"}, cookies)
	expectError(t, w, http.StatusNotFound, "not_found")

	w = s.do(http.MethodGet, "/api/posts/abc", nil, nil)
	expectError(t, w, http.StatusBadRequest, "validation_error")

	w = s.do(http.MethodGet, "/api/nothing-here", nil, nil)
	expectError(t, w, http.StatusNotFound, "not_found")
}

func TestDuplicateSignupIs409(t *testing.T) {
	s := newTestServer(t, generous)
	body := map[string]string{"email": "dup@example.com", "username": "dup", "password": "secret123"}
	if w := s.do(http.MethodPost, "/api/auth/signup", body, nil); w.Code != http.StatusCreated {
		t.Fatalf("first signup: %d", w.Code)
	}
	body["username"] = "dup2"
	m := expectError(t, s.do(http.MethodPost, "/api/auth/signup", body, nil), http.StatusConflict, "conflict")
	if m["field"] != "email" {
		t.Fatalf("expected email conflict, got %v", m["field"])
	}
}

func TestOwnershipOverHTTP(t *testing.T) {
	s := newTestServer(t, generous)
	owner, ownerCookies := s.loginAs(models.RoleUser)
	_, otherCookies := s.loginAs(models.RoleUser)
	_, adminCookies := s.loginAs(models.RoleAdmin)
	post := testutil.CreatePost(t, s.db, owner, testutil.CreateBoard(t, s.db))
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	w := s.do(http.MethodPatch, path, map[string]string{"title": "pwned", "content": "x"}, otherCookies)
	expectError(t, w, http.StatusForbidden, "authorization_denied")
	w = s.do(http.MethodPatch, path, map[string]string{"title": "pwned", "content": "x"}, adminCookies)
	expectError(t, w, http.StatusForbidden, "authorization_denied")

	var stored models.Post
	s.db.First(&stored, post.ID)
	if stored.Title != post.Title {
		t.Fatal("denied edit changed the post")
	}

	if w := s.do(http.MethodPatch, path, map[string]string{"title": "mine", "content": "y"}, ownerCookies); w.Code != http.StatusOK {
		t.Fatalf("owner edit: %d %s", w.Code, w.Body.String())
	}
	expectError(t, s.do(http.MethodDelete, path, nil, otherCookies), http.StatusForbidden, "authorization_denied")
	if w := s.do(http.MethodDelete, path, nil, adminCookies); w.Code != http.StatusOK {
		t.Fatalf("admin delete: %d %s", w.Code, w.Body.String())
	}
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, generous)
	user, userCookies := s.loginAs(models.RoleUser)
	admin, adminCookies := s.loginAs(models.RoleAdmin)

	expectError(t, s.do(http.MethodGet, "/api/admin/stats", nil, userCookies), http.StatusForbidden, "authorization_denied")
	expectError(t, s.do(http.MethodGet, "/api/admin/stats", nil, nil), http.StatusUnauthorized, "authentication_required")

	w := s.do(http.MethodGet, "/api/admin/stats", nil, adminCookies)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: %d %s", w.Code, w.Body.String())
	}
	if stats := decode(t, w)["stats"].(map[string]any); stats["users"] != float64(2) {
		t.Fatalf("unexpected stats %v", stats)
	}

	w = s.do(http.MethodPost, "/api/admin/boards", map[string]any{"name": "News", "slug": "news"}, adminCookies)
	if w.Code != http.StatusCreated {
		t.Fatalf("create board: %d %s", w.Code, w.Body.String())
	}
	expectError(t, s.do(http.MethodPost, "/api/admin/boards", map[string]any{"name": "Again", "slug": "news"}, adminCookies),
		http.StatusConflict, "conflict")

	self := fmt.Sprintf("/api/admin/users/%d", admin.ID)
	expectError(t, s.do(http.MethodDelete, self, nil, adminCookies), http.StatusForbidden, "authorization_denied")

	w = s.do(http.MethodPatch, fmt.Sprintf("/api/admin/users/%d", user.ID), map[string]string{"role": "admin"}, adminCookies)
	if w.Code != http.StatusOK {
		t.Fatalf("set role: %d %s", w.Code, w.Body.String())
	}
	if w := s.do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", user.ID), nil, adminCookies); w.Code != http.StatusOK {
		t.Fatalf("delete user: %d %s", w.Code, w.Body.String())
	}

	// The deleted user's session no longer resolves.
	expectError(t, s.do(http.MethodGet, "/api/profile", nil, userCookies), http.StatusUnauthorized, "authentication_required")
}

func TestVoteRateLimit(t *testing.T) {
	s := newTestServer(t, config.RateLimits{VotePerMinute: 2, WritePerMinute: 1000})
	author, cookies := s.loginAs(models.RoleUser)
	post := testutil.CreatePost(t, s.db, author, testutil.CreateBoard(t, s.db))
	vote := map[string]any{"targetId": post.ID, "targetType": "post", "direction": "up"}

	for i := 0; i < 2; i++ {
		if w := s.do(http.MethodPost, "/api/votes", vote, cookies); w.Code != http.StatusOK {
			t.Fatalf("vote %d: %d", i, w.Code)
		}
	}
	w := s.do(http.MethodPost, "/api/votes", vote, cookies)
	expectError(t, w, http.StatusTooManyRequests, "rate_limited")
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestHTMLPages(t *testing.T) {
	s := newTestServer(t, generous)
	author := testutil.CreateUser(t, s.db, models.RoleUser)
	board := testutil.CreateBoard(t, s.db)
	post := testutil.CreatePost(t, s.db, author, board)

	w := s.do(http.MethodGet, "/", nil, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), post.Title) {
		t.Fatalf("home: %d", w.Code)
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatal("expected a request id header")
	}

	w = s.do(http.MethodGet, "/b/"+board.Slug, nil, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), board.Name) {
		t.Fatalf("board page: %d", w.Code)
	}

	w = s.do(http.MethodGet, fmt.Sprintf("/p/%d", post.ID), nil, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), post.Content) {
		t.Fatalf("post page: %d", w.Code)
	}
	var stored models.Post
	s.db.First(&stored, post.ID)
	if stored.Views != 1 {
		t.Fatalf("expected the page view to count, got %d", stored.Views)
	}

	if w := s.do(http.MethodGet, "/p/99999", nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing post page: %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/b/missing", nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing board page: %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, generous)
	w := s.do(http.MethodGet, "/healthz", nil, nil)
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", w.Code, w.Body.String())
	}
}
