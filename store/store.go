// Package store owns the post collection and the comment sub-store behind a
// single interface so the API layer works identically against the ephemeral
// in-memory variant and the persisted MySQL variant.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sannylab/minifeed/models"
)

var (
	// ErrPostNotFound is returned when an operation targets a missing post.
	ErrPostNotFound = errors.New("post not found")
	// ErrCommentNotFound is returned when a comment ID does not exist on the post.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrUnavailable wraps failures reaching the backing persistence. It is
	// the only transient, retry-worthy failure in the taxonomy.
	ErrUnavailable = errors.New("store unavailable")
)

// ValidationError reports rejected input. Validation failures are permanent
// for the given input; callers must not retry unchanged.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NewPost carries the caller-supplied fields for post creation. The store
// assigns ID, timestamp, and the zero like count.
type NewPost struct {
	Content  string
	Author   string
	Category string
	Image    string
}

// PostStore is the injected storage abstraction for posts and their comments.
//
// Implementations must guarantee the concurrency contracts of the feed:
// LikePost applies an atomic increment against the authoritative stored value
// (no lost updates under concurrent likes), AddComment appends without ever
// rewriting the whole comment list, and deleting an already-deleted entity
// reports not-found rather than failing hard.
type PostStore interface {
	// CreatePost validates and persists a post, making it visible to
	// subsequent ListPosts calls ahead of all older posts.
	CreatePost(ctx context.Context, np NewPost) (*models.Post, error)
	// ListPosts returns posts newest first. A non-empty filter keeps only
	// posts whose content contains it case-insensitively.
	ListPosts(ctx context.Context, filter string) ([]models.Post, error)
	// GetPost returns one post with its comments in insertion order.
	GetPost(ctx context.Context, id string) (*models.Post, error)
	// LikePost atomically increments the like counter and returns the post
	// with the fresh count.
	LikePost(ctx context.Context, id string) (*models.Post, error)
	// DeletePost removes the post and its comments, returning the deleted
	// post so the caller can release its image blob.
	DeletePost(ctx context.Context, id string) (*models.Post, error)
	// AddComment appends a comment to the post's comment sequence.
	AddComment(ctx context.Context, postID, author, content string) (*models.Comment, error)
	// DeleteComment removes exactly the comment with the given stable ID.
	DeleteComment(ctx context.Context, postID, commentID string) error
}

// validateNewPost normalizes and checks caller input shared by both store
// implementations.
func validateNewPost(np *NewPost) error {
	np.Content = strings.TrimSpace(np.Content)
	if np.Content == "" {
		return &ValidationError{Field: "content", Reason: "cannot be empty"}
	}
	if utf8.RuneCountInString(np.Content) > models.MaxContentRunes {
		return &ValidationError{Field: "content", Reason: fmt.Sprintf("exceeds %d characters", models.MaxContentRunes)}
	}
	np.Author = strings.TrimSpace(np.Author)
	if np.Author == "" {
		return &ValidationError{Field: "author", Reason: "cannot be empty"}
	}
	if np.Category == "" || np.Category == models.CategoryNone {
		np.Category = models.CategoryNone
	} else if !models.ValidCategory(np.Category) {
		return &ValidationError{Field: "category", Reason: "unknown category"}
	}
	return nil
}

func validateComment(author, content string) (string, string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", "", &ValidationError{Field: "content", Reason: "cannot be empty"}
	}
	author = strings.TrimSpace(author)
	if author == "" {
		return "", "", &ValidationError{Field: "author", Reason: "cannot be empty"}
	}
	return author, content, nil
}

// matchesFilter implements the read-time case-insensitive substring filter.
func matchesFilter(content, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(content), strings.ToLower(filter))
}
