package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sannylab/minifeed/models"
)

// Memory is the ephemeral store variant: all state lives in the process and
// is gone on exit. A single RWMutex covers every operation, so increments and
// appends are atomic under concurrent handler goroutines.
type Memory struct {
	mu    sync.RWMutex
	posts []*models.Post // newest first
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) CreatePost(ctx context.Context, np NewPost) (*models.Post, error) {
	if err := validateNewPost(&np); err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:        uuid.NewString(),
		Content:   np.Content,
		Author:    np.Author,
		Category:  np.Category,
		Image:     np.Image,
		Likes:     0,
		CreatedAt: time.Now(),
		Comments:  []models.Comment{},
	}

	m.mu.Lock()
	// Prepend: the slice stays ordered newest first.
	m.posts = append([]*models.Post{post}, m.posts...)
	m.mu.Unlock()

	return copyPost(post), nil
}

func (m *Memory) ListPosts(ctx context.Context, filter string) ([]models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		if matchesFilter(p.Content, filter) {
			out = append(out, *copyPost(p))
		}
	}
	return out, nil
}

func (m *Memory) GetPost(ctx context.Context, id string) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := m.find(id)
	if p == nil {
		return nil, ErrPostNotFound
	}
	return copyPost(p), nil
}

func (m *Memory) LikePost(ctx context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.find(id)
	if p == nil {
		return nil, ErrPostNotFound
	}
	p.Likes++
	return copyPost(p), nil
}

func (m *Memory) DeletePost(ctx context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.posts {
		if p.ID == id {
			m.posts = append(m.posts[:i], m.posts[i+1:]...)
			return copyPost(p), nil
		}
	}
	return nil, ErrPostNotFound
}

func (m *Memory) AddComment(ctx context.Context, postID, author, content string) (*models.Comment, error) {
	author, content, err := validateComment(author, content)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.find(postID)
	if p == nil {
		return nil, ErrPostNotFound
	}
	c := models.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		Author:    author,
		Content:   content,
		CreatedAt: time.Now(),
	}
	p.Comments = append(p.Comments, c)
	return &c, nil
}

func (m *Memory) DeleteComment(ctx context.Context, postID, commentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.find(postID)
	if p == nil {
		return ErrPostNotFound
	}
	for i, c := range p.Comments {
		if c.ID == commentID {
			p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
			return nil
		}
	}
	return ErrCommentNotFound
}

// find must be called with the mutex held.
func (m *Memory) find(id string) *models.Post {
	for _, p := range m.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// copyPost returns a snapshot detached from store-owned state so callers
// never alias the slice the store keeps mutating.
func copyPost(p *models.Post) *models.Post {
	cp := *p
	cp.Comments = make([]models.Comment, len(p.Comments))
	copy(cp.Comments, p.Comments)
	return &cp
}
