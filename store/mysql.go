package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sannylab/minifeed/models"
)

// MySQL is the persisted store variant, shared by independent server
// processes. The lost-update hazards of a shared store are handled here:
// likes are incremented in SQL against the stored value, and each comment is
// its own row so appends never rewrite the list.
type MySQL struct {
	db *gorm.DB
}

// NewMySQL wraps an initialized gorm connection.
func NewMySQL(db *gorm.DB) *MySQL {
	return &MySQL{db: db}
}

func (s *MySQL) CreatePost(ctx context.Context, np NewPost) (*models.Post, error) {
	if err := validateNewPost(&np); err != nil {
		return nil, err
	}

	post := models.Post{
		ID:        uuid.NewString(),
		Content:   np.Content,
		Author:    np.Author,
		Category:  np.Category,
		Image:     np.Image,
		Likes:     0,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, storeErr("create post", err)
	}
	post.Comments = []models.Comment{}
	return &post, nil
}

func (s *MySQL) ListPosts(ctx context.Context, filter string) ([]models.Post, error) {
	var posts []models.Post
	q := s.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Order("created_at DESC, id DESC")
	if filter != "" {
		// LOWER on both sides keeps the case-insensitivity contract
		// independent of column collation.
		q = q.Where("LOWER(content) LIKE ?", "%"+escapeLike(strings.ToLower(filter))+"%")
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, storeErr("list posts", err)
	}
	for i := range posts {
		if posts[i].Comments == nil {
			posts[i].Comments = []models.Comment{}
		}
	}
	return posts, nil
}

func (s *MySQL) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, storeErr("get post", err)
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	return &post, nil
}

func (s *MySQL) LikePost(ctx context.Context, id string) (*models.Post, error) {
	// Increment in SQL, never read-modify-write: two concurrent likes from
	// different processes must both land.
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("likes", gorm.Expr("likes + ?", 1))
	if res.Error != nil {
		return nil, storeErr("like post", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrPostNotFound
	}
	return s.GetPost(ctx, id)
}

func (s *MySQL) DeletePost(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another client deleted it between the load and this point.
			return ErrPostNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, storeErr("delete post", err)
	}
	return post, nil
}

func (s *MySQL) AddComment(ctx context.Context, postID, author, content string) (*models.Comment, error) {
	author, content, err := validateComment(author, content)
	if err != nil {
		return nil, err
	}
	if err := s.postExists(ctx, postID); err != nil {
		return nil, err
	}
	comment := models.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		Author:    author,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, storeErr("add comment", err)
	}
	return &comment, nil
}

func (s *MySQL) DeleteComment(ctx context.Context, postID, commentID string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND post_id = ?", commentID, postID).
		Delete(&models.Comment{})
	if res.Error != nil {
		return storeErr("delete comment", res.Error)
	}
	if res.RowsAffected == 0 {
		if err := s.postExists(ctx, postID); err != nil {
			return err
		}
		return ErrCommentNotFound
	}
	return nil
}

func (s *MySQL) postExists(ctx context.Context, id string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return storeErr("check post", err)
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters so the filter is a literal
// substring match, the same containment the in-memory variant applies.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// storeErr classifies driver failures as the one transient error kind the
// caller may retry.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
