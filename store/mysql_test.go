package store

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/sannylab/minifeed/models"
)

func TestEscapeLike(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`c:\dir`, `c:\\dir`},
		{`%_\`, `\%\_\\`},
	}
	for _, c := range cases {
		if got := escapeLike(c.in); got != c.want {
			t.Errorf("escapeLike(%q): got %q, want %q", c.in, got, c.want)
		}
	}
}

// testMySQL connects to the database named by MYSQL_TEST_DSN. The MySQL
// store tests need a real server; without one they are skipped.
func testMySQL(t *testing.T) *MySQL {
	t.Helper()
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set, skipping MySQL store tests")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("connect test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Post{}, &models.Comment{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return NewMySQL(db)
}

// newMySQLPost creates a post whose rows are removed again when the test
// ends, so tests can share one database.
func newMySQLPost(t *testing.T, s *MySQL, content string) *models.Post {
	t.Helper()
	p, err := s.CreatePost(context.Background(), NewPost{Content: content, Author: "test-" + uuid.NewString()[:8]})
	if err != nil {
		t.Fatalf("CreatePost(%q): %v", content, err)
	}
	t.Cleanup(func() {
		s.db.Where("post_id = ?", p.ID).Delete(&models.Comment{})
		s.db.Where("id = ?", p.ID).Delete(&models.Post{})
	})
	return p
}

func TestMySQLLikePostAtomic(t *testing.T) {
	s := testMySQL(t)
	ctx := context.Background()
	p := newMySQLPost(t, s, "contended "+uuid.NewString())

	for i := 1; i <= 3; i++ {
		got, err := s.LikePost(ctx, p.ID)
		if err != nil {
			t.Fatalf("LikePost #%d: %v", i, err)
		}
		if got.Likes != i {
			t.Errorf("after %d likes: got %d", i, got.Likes)
		}
	}

	const k = 16
	var wg sync.WaitGroup
	wg.Add(k)
	for i := 0; i < k; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.LikePost(ctx, p.ID); err != nil {
				t.Errorf("LikePost: %v", err)
			}
		}()
	}
	wg.Wait()

	fresh, err := s.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if fresh.Likes != 3+k {
		t.Errorf("lost updates: got %d likes, want %d", fresh.Likes, 3+k)
	}

	if _, err := s.LikePost(ctx, uuid.NewString()); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("like missing post: got %v, want ErrPostNotFound", err)
	}
}

func TestMySQLDeletePostIdempotent(t *testing.T) {
	s := testMySQL(t)
	ctx := context.Background()
	p := newMySQLPost(t, s, "doomed "+uuid.NewString())

	if _, err := s.AddComment(ctx, p.ID, "Carol", "soon gone"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	deleted, err := s.DeletePost(ctx, p.ID)
	if err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if deleted.ID != p.ID {
		t.Errorf("deleted wrong post: %s", deleted.ID)
	}

	if _, err := s.GetPost(ctx, p.ID); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("GetPost after delete: got %v, want ErrPostNotFound", err)
	}
	if _, err := s.DeletePost(ctx, p.ID); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("second delete: got %v, want ErrPostNotFound", err)
	}

	var orphans int64
	if err := s.db.Model(&models.Comment{}).Where("post_id = ?", p.ID).Count(&orphans).Error; err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if orphans != 0 {
		t.Errorf("comment rows survived the post: %d", orphans)
	}
}

func TestMySQLListFilterLiteral(t *testing.T) {
	s := testMySQL(t)
	ctx := context.Background()

	// Token-unique contents keep these posts distinguishable in a shared
	// database.
	token := uuid.NewString()
	match := newMySQLPost(t, s, token+" progress 100% done")
	newMySQLPost(t, s, token+" progress 1000 done")

	// A literal "100%" must not act as a wildcard and catch "1000".
	posts, err := s.ListPosts(ctx, token+" progress 100%")
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != match.ID {
		t.Fatalf("metacharacter filter: got %d posts, want exactly the literal match", len(posts))
	}

	// Containment is case-insensitive.
	posts, err = s.ListPosts(ctx, strings.ToUpper(token)+" PROGRESS")
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 2 {
		t.Errorf("case-insensitive filter: got %d posts, want 2", len(posts))
	}
}

func TestMySQLCommentLifecycle(t *testing.T) {
	s := testMySQL(t)
	ctx := context.Background()
	p := newMySQLPost(t, s, "thread "+uuid.NewString())

	first, err := s.AddComment(ctx, p.ID, "Carol", "one")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	second, err := s.AddComment(ctx, p.ID, "Dave", "two")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	fresh, err := s.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if len(fresh.Comments) != 2 {
		t.Fatalf("got %d comments, want 2", len(fresh.Comments))
	}
	if fresh.Comments[0].ID != first.ID || fresh.Comments[1].ID != second.ID {
		t.Error("comments not in insertion order")
	}

	if err := s.DeleteComment(ctx, p.ID, first.ID); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if err := s.DeleteComment(ctx, p.ID, first.ID); !errors.Is(err, ErrCommentNotFound) {
		t.Errorf("stale comment id: got %v, want ErrCommentNotFound", err)
	}
	if err := s.DeleteComment(ctx, uuid.NewString(), second.ID); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("missing post: got %v, want ErrPostNotFound", err)
	}
}
