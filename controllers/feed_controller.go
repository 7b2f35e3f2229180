package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sannylab/minifeed/blob"
	"github.com/sannylab/minifeed/identity"
	"github.com/sannylab/minifeed/middleware"
	"github.com/sannylab/minifeed/store"
	"github.com/sannylab/minifeed/utils"
)

const maxUploadSize = 50 * 1024 * 1024

// FeedController exposes the feed operations: create/list/like/delete posts,
// add/delete comments, upload images. Authorization decisions are made here
// from the asserted identity before any store mutation.
type FeedController struct {
	store    store.PostStore
	blobs    blob.Store    // nil when uploads are disabled
	cleaner  *blob.Cleaner // nil when uploads are disabled
	resolver *identity.Resolver
}

// NewFeedController creates a FeedController. blobs and cleaner may be nil;
// the feed then serves image-less posts only.
func NewFeedController(st store.PostStore, blobs blob.Store, cleaner *blob.Cleaner, resolver *identity.Resolver) *FeedController {
	return &FeedController{store: st, blobs: blobs, cleaner: cleaner, resolver: resolver}
}

// CreatePost publishes a new post authored by the session identity.
func (f *FeedController) CreatePost(ctx *gin.Context) {
	var req struct {
		Content  string `json:"content" binding:"required"`
		Category string `json:"category"`
		Image    string `json:"image"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	author, ok := requesterName(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post, err := f.store.CreatePost(ctx.Request.Context(), store.NewPost{
		Content:  req.Content,
		Author:   author,
		Category: strings.TrimSpace(req.Category),
		Image:    strings.TrimSpace(req.Image),
	})
	if err != nil {
		respondStoreError(ctx, err)
		return
	}

	// The image now belongs to a post; the orphan cleaner must leave it alone.
	if f.cleaner != nil {
		f.cleaner.Claim(post.Image)
	}

	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Success(ctx, gin.H{"post": post})
}

// ListPosts returns all posts newest first, optionally filtered by a
// case-insensitive substring over content.
func (f *FeedController) ListPosts(ctx *gin.Context) {
	search := strings.TrimSpace(ctx.Query("search"))

	// Cache only the unfiltered listing to avoid cache key explosion.
	const cacheKey = "cache:posts:list:all"
	if search == "" {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(200, "application/json", b)
			return
		}
	}

	posts, err := f.store.ListPosts(ctx.Request.Context(), search)
	if err != nil {
		respondStoreError(ctx, err)
		return
	}

	payload := gin.H{"items": posts, "total": len(posts)}
	if search == "" {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	}
	utils.Success(ctx, payload)
}

// GetPost returns a single post with its comments.
func (f *FeedController) GetPost(ctx *gin.Context) {
	postID := ctx.Param("id")

	if b, ok := utils.CacheGetBytes("cache:post:detail:" + postID); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	post, err := f.store.GetPost(ctx.Request.Context(), postID)
	if err != nil {
		respondStoreError(ctx, err)
		return
	}

	payload := gin.H{"post": post}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON("cache:post:detail:"+postID, wrapper, time.Hour)
	utils.Success(ctx, payload)
}

// LikePost increments the like counter and returns the post with the fresh
// count. Any identified user may like any post, any number of times.
func (f *FeedController) LikePost(ctx *gin.Context) {
	postID := ctx.Param("id")

	post, err := f.store.LikePost(ctx.Request.Context(), postID)
	if err != nil {
		respondStoreError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:post:detail:" + postID)

	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes a post. Allowed for the post's author and for admins.
func (f *FeedController) DeletePost(ctx *gin.Context) {
	postID := ctx.Param("id")

	post, err := f.store.GetPost(ctx.Request.Context(), postID)
	if err != nil {
		respondStoreError(ctx, err)
		return
	}

	requester, ok := requesterName(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}
	if !f.resolver.CanDeletePost(requester, post.Author) {
		utils.Error(ctx, http.StatusForbidden, 40302, "you can only delete your own posts")
		return
	}

	deleted, err := f.store.DeletePost(ctx.Request.Context(), postID)
	if err != nil {
		respondStoreError(ctx, err)
		return
	}

	// Release the image blob; losing this is tolerable, the orphan is gone
	// from every listing either way.
	if f.blobs != nil && deleted.Image != "" {
		if err := f.blobs.Delete(ctx.Request.Context(), deleted.Image); err != nil && utils.Sugar != nil {
			utils.Sugar.Warnf("release image failed post=%s ref=%s err=%v", postID, deleted.Image, err)
		}
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:post:detail:" + postID)

	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// CreateComment appends a comment to a post.
func (f *FeedController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	author, ok := requesterName(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	postID := ctx.Param("id")
	comment, err := f.store.AddComment(ctx.Request.Context(), postID, author, req.Content)
	if err != nil {
		respondStoreError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + postID)
	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Success(ctx, gin.H{"comment": comment})
}

// DeleteComment removes one comment by its stable ID. Admin only.
func (f *FeedController) DeleteComment(ctx *gin.Context) {
	postID := ctx.Param("id")
	commentID := strings.TrimSpace(ctx.Param("commentId"))
	if commentID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40070, "missing comment id")
		return
	}

	requester, ok := requesterName(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}
	if !f.resolver.CanModerateComment(requester) {
		utils.Error(ctx, http.StatusForbidden, 40320, "only admins can delete comments")
		return
	}

	if err := f.store.DeleteComment(ctx.Request.Context(), postID, commentID); err != nil {
		respondStoreError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + postID)
	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

// UploadImage stores an image and returns the reference to attach to a post.
func (f *FeedController) UploadImage(ctx *gin.Context) {
	if f.blobs == nil {
		utils.Error(ctx, http.StatusNotImplemented, 50130, "image uploads are disabled")
		return
	}

	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		utils.Error(ctx, http.StatusBadRequest, 40032, "file size exceeds 50MB")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		utils.Error(ctx, http.StatusBadRequest, 40033, "only image uploads are accepted")
		return
	}

	// Enforce the limit even when the declared size lies.
	lr := &io.LimitedReader{R: file, N: maxUploadSize + 1}
	ref, err := f.blobs.Save(ctx.Request.Context(), header.Filename, contentType, lr)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to save file")
		return
	}
	if lr.N == 0 {
		_ = f.blobs.Delete(ctx.Request.Context(), ref)
		utils.Error(ctx, http.StatusBadRequest, 40032, "file size exceeds 50MB")
		return
	}

	// Self-destructs unless a post claims it.
	if f.cleaner != nil {
		f.cleaner.Track(ref)
	}

	utils.Success(ctx, gin.H{"image": ref, "url": f.blobs.URL(ref)})
}

func requesterName(ctx *gin.Context) (string, bool) {
	value, exists := ctx.Get(middleware.ContextNameKey)
	if !exists {
		return "", false
	}
	name, ok := value.(string)
	if !ok || strings.TrimSpace(name) == "" {
		return "", false
	}
	return name, true
}

// respondStoreError maps the store error taxonomy onto HTTP responses.
func respondStoreError(ctx *gin.Context, err error) {
	var ve *store.ValidationError
	switch {
	case errors.As(err, &ve):
		utils.Error(ctx, http.StatusBadRequest, 40021, ve.Error())
	case errors.Is(err, store.ErrPostNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
	case errors.Is(err, store.ErrCommentNotFound):
		utils.Error(ctx, http.StatusNotFound, 40420, "comment not found")
	case errors.Is(err, store.ErrUnavailable):
		utils.Error(ctx, http.StatusServiceUnavailable, 50301, "store unavailable, retry later")
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50020, "internal error")
	}
}
