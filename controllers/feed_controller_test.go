package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sannylab/minifeed/identity"
	"github.com/sannylab/minifeed/models"
	"github.com/sannylab/minifeed/routes"
	"github.com/sannylab/minifeed/store"
	"github.com/sannylab/minifeed/utils"
)

func TestMain(m *testing.M) {
	// Config is loaded lazily on first use; the secret must be in place first.
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("GIN_MODE", "test")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	resolver := identity.NewResolver([]string{"Arfaa", "Sanny"})
	return routes.SetupRouter(store.NewMemory(), nil, nil, resolver)
}

func sessionToken(t *testing.T, name string) string {
	t.Helper()
	resolver := identity.NewResolver([]string{"Arfaa", "Sanny"})
	token, err := utils.GenerateToken(name, string(resolver.Resolve(name)), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, w.Body.String())
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v (body %s)", err, w.Body.String())
	}
}

func createPost(t *testing.T, r *gin.Engine, token, content, category string) models.Post {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/posts", token, gin.H{"content": content, "category": category})
	if w.Code != http.StatusOK {
		t.Fatalf("create post: status %d body %s", w.Code, w.Body.String())
	}
	var data struct {
		Post models.Post `json:"post"`
	}
	decodeData(t, w, &data)
	return data.Post
}

func listPosts(t *testing.T, r *gin.Engine, token, search string) []models.Post {
	t.Helper()
	path := "/api/v1/posts"
	if search != "" {
		path += "?search=" + search
	}
	w := doJSON(t, r, http.MethodGet, path, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list posts: status %d body %s", w.Code, w.Body.String())
	}
	var data struct {
		Items []models.Post `json:"items"`
	}
	decodeData(t, w, &data)
	return data.Items
}

func TestSessionRequired(t *testing.T) {
	r := newRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/posts", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unidentified list: status %d, want 401", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/api/v1/posts", "", gin.H{"content": "hi"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unidentified create: status %d, want 401", w.Code)
	}
}

func TestOpenSession(t *testing.T) {
	r := newRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/session", "", gin.H{"name": "Sanny"})
	if w.Code != http.StatusOK {
		t.Fatalf("open session: status %d body %s", w.Code, w.Body.String())
	}
	var data struct {
		Token string `json:"token"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	}
	decodeData(t, w, &data)
	if data.Token == "" {
		t.Error("expected a session token")
	}
	if data.Role != "admin" {
		t.Errorf("role: got %q, want admin", data.Role)
	}

	// A blank name never opens a session.
	w = doJSON(t, r, http.MethodPost, "/api/v1/session", "", gin.H{"name": "   "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank name: status %d, want 400", w.Code)
	}
}

func TestCreateAndListPosts(t *testing.T) {
	r := newRouter(t)
	token := sessionToken(t, "Bob")

	post := createPost(t, r, token, "Hello world", "Life")
	if post.Author != "Bob" {
		t.Errorf("author: got %q, want Bob", post.Author)
	}
	if post.Likes != 0 {
		t.Errorf("likes: got %d, want 0", post.Likes)
	}
	if post.Category != "Life" {
		t.Errorf("category: got %q, want Life", post.Category)
	}

	second := createPost(t, r, token, "Second post", "")
	if second.Category != "uncategorized" {
		t.Errorf("default category: got %q", second.Category)
	}

	posts := listPosts(t, r, token, "")
	if len(posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(posts))
	}
	if posts[0].ID != second.ID {
		t.Error("newest post should be listed first")
	}
}

func TestCreatePostValidation(t *testing.T) {
	r := newRouter(t)
	token := sessionToken(t, "Bob")

	for _, body := range []gin.H{
		{"content": ""},
		{"content": "   "},
		{"content": string(bytes.Repeat([]byte("x"), 281))},
		{"content": "ok", "category": "Gossip"},
	} {
		w := doJSON(t, r, http.MethodPost, "/api/v1/posts", token, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %v: status %d, want 400", body, w.Code)
		}
	}

	if got := listPosts(t, r, token, ""); len(got) != 0 {
		t.Errorf("rejected posts leaked into the feed: %d", len(got))
	}
}

func TestContentStoredVerbatim(t *testing.T) {
	r := newRouter(t)
	token := sessionToken(t, "Bob")

	// 280 ampersands are exactly at the length limit; the count must apply
	// to the text the user wrote, not an entity-escaped form of it.
	edge := strings.Repeat("&", 280)
	post := createPost(t, r, token, edge, "")
	if post.Content != edge {
		t.Errorf("post content mangled: got %d chars", len(post.Content))
	}

	markup := `fish & <chips> "mushy peas"`
	w := doJSON(t, r, http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", token, gin.H{"content": markup})
	if w.Code != http.StatusOK {
		t.Fatalf("comment: status %d body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/posts/"+post.ID, token, nil)
	var detail struct {
		Post models.Post `json:"post"`
	}
	decodeData(t, w, &detail)
	if detail.Post.Content != edge {
		t.Error("post content did not round-trip unchanged")
	}
	if len(detail.Post.Comments) != 1 || detail.Post.Comments[0].Content != markup {
		t.Errorf("comment content did not round-trip: %+v", detail.Post.Comments)
	}
}

func TestSearchFilter(t *testing.T) {
	r := newRouter(t)
	token := sessionToken(t, "Bob")

	createPost(t, r, token, "Going for a walk", "")
	createPost(t, r, token, "WALKing the dog", "")
	createPost(t, r, token, "At my desk", "")

	posts := listPosts(t, r, token, "walk")
	if len(posts) != 2 {
		t.Errorf("filter walk: got %d posts, want 2", len(posts))
	}
}

func TestLikePost(t *testing.T) {
	r := newRouter(t)
	token := sessionToken(t, "Bob")
	post := createPost(t, r, token, "likeable", "")

	for want := 1; want <= 2; want++ {
		w := doJSON(t, r, http.MethodPost, "/api/v1/posts/"+post.ID+"/like", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("like: status %d body %s", w.Code, w.Body.String())
		}
		var data struct {
			Post models.Post `json:"post"`
		}
		decodeData(t, w, &data)
		if data.Post.Likes != want {
			t.Errorf("after like %d: got %d likes", want, data.Post.Likes)
		}
	}

	w := doJSON(t, r, http.MethodPost, "/api/v1/posts/missing/like", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("like missing: status %d, want 404", w.Code)
	}
}

func TestDeletePostAuthorization(t *testing.T) {
	r := newRouter(t)
	author := sessionToken(t, "Bob")
	stranger := sessionToken(t, "Mallory")
	admin := sessionToken(t, "Sanny")

	post := createPost(t, r, author, "contested", "")

	w := doJSON(t, r, http.MethodDelete, "/api/v1/posts/"+post.ID, stranger, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("stranger delete: status %d, want 403", w.Code)
	}

	w = doJSON(t, r, http.MethodDelete, "/api/v1/posts/"+post.ID, author, nil)
	if w.Code != http.StatusOK {
		t.Errorf("author delete: status %d body %s", w.Code, w.Body.String())
	}

	// Admin can delete someone else's post too.
	other := createPost(t, r, author, "second", "")
	w = doJSON(t, r, http.MethodDelete, "/api/v1/posts/"+other.ID, admin, nil)
	if w.Code != http.StatusOK {
		t.Errorf("admin delete: status %d body %s", w.Code, w.Body.String())
	}

	// Deleting a deleted post reports not-found.
	w = doJSON(t, r, http.MethodDelete, "/api/v1/posts/"+other.ID, admin, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("repeat delete: status %d, want 404", w.Code)
	}
}

func TestComments(t *testing.T) {
	r := newRouter(t)
	author := sessionToken(t, "Bob")
	commenter := sessionToken(t, "Carol")
	admin := sessionToken(t, "Sanny")

	post := createPost(t, r, author, "talk to me", "")

	w := doJSON(t, r, http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", commenter, gin.H{"content": "first!"})
	if w.Code != http.StatusOK {
		t.Fatalf("comment: status %d body %s", w.Code, w.Body.String())
	}
	var created struct {
		Comment models.Comment `json:"comment"`
	}
	decodeData(t, w, &created)
	if created.Comment.ID == "" {
		t.Fatal("expected a stable comment id")
	}
	if created.Comment.Author != "Carol" {
		t.Errorf("comment author: got %q", created.Comment.Author)
	}

	// Blank comments are rejected.
	w = doJSON(t, r, http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", commenter, gin.H{"content": " "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank comment: status %d, want 400", w.Code)
	}

	// The comment shows up appended on the post detail.
	w = doJSON(t, r, http.MethodGet, "/api/v1/posts/"+post.ID, commenter, nil)
	var detail struct {
		Post models.Post `json:"post"`
	}
	decodeData(t, w, &detail)
	if len(detail.Post.Comments) != 1 || detail.Post.Comments[0].Content != "first!" {
		t.Fatalf("unexpected comments: %+v", detail.Post.Comments)
	}

	commentPath := fmt.Sprintf("/api/v1/posts/%s/comments/%s", post.ID, created.Comment.ID)

	// Non-admins cannot moderate, the post author included.
	w = doJSON(t, r, http.MethodDelete, commentPath, author, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("author comment delete: status %d, want 403", w.Code)
	}

	w = doJSON(t, r, http.MethodDelete, commentPath, admin, nil)
	if w.Code != http.StatusOK {
		t.Errorf("admin comment delete: status %d body %s", w.Code, w.Body.String())
	}

	// A stale comment id reports not-found.
	w = doJSON(t, r, http.MethodDelete, commentPath, admin, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("stale comment delete: status %d, want 404", w.Code)
	}
}

// TestFeedScenario walks the canonical end-to-end flow: post, list, like
// twice, guest delete refused, admin delete succeeds.
func TestFeedScenario(t *testing.T) {
	r := newRouter(t)
	sanny := sessionToken(t, "Sanny")
	guest := sessionToken(t, "Guest")

	post := createPost(t, r, sanny, "Hello world", "Life")

	posts := listPosts(t, r, sanny, "")
	if len(posts) != 1 || posts[0].ID != post.ID || posts[0].Likes != 0 {
		t.Fatalf("unexpected listing: %+v", posts)
	}

	for i := 0; i < 2; i++ {
		if w := doJSON(t, r, http.MethodPost, "/api/v1/posts/"+post.ID+"/like", guest, nil); w.Code != http.StatusOK {
			t.Fatalf("like: status %d", w.Code)
		}
	}
	posts = listPosts(t, r, guest, "")
	if posts[0].Likes != 2 {
		t.Errorf("likes: got %d, want 2", posts[0].Likes)
	}

	if w := doJSON(t, r, http.MethodDelete, "/api/v1/posts/"+post.ID, guest, nil); w.Code != http.StatusForbidden {
		t.Errorf("guest delete: status %d, want 403", w.Code)
	}

	if w := doJSON(t, r, http.MethodDelete, "/api/v1/posts/"+post.ID, sanny, nil); w.Code != http.StatusOK {
		t.Errorf("admin delete: status %d", w.Code)
	}

	if posts = listPosts(t, r, sanny, ""); len(posts) != 0 {
		t.Errorf("feed should be empty, got %d posts", len(posts))
	}
}
