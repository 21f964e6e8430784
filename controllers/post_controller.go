package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ripplefeed/ripple/config"
	"github.com/ripplefeed/ripple/middleware"
	"github.com/ripplefeed/ripple/models"
	"github.com/ripplefeed/ripple/repository"
	"github.com/ripplefeed/ripple/utils"
)

// PostController manages CRUD operations for posts and their like records.
type PostController struct {
	posts PostStore
	users UserStore
}

// NewPostController creates a new PostController instance.
func NewPostController(posts PostStore, users UserStore) *PostController {
	return &PostController{posts: posts, users: users}
}

// CreatePost allows authenticated users to create new posts. The author's
// name and avatar are denormalized onto the post at creation time.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required,min=1,max=5000"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, utils.BindErrors(err))
		return
	}

	text := utils.SanitizeText(strings.TrimSpace(req.Text))
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "text cannot be empty")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	author, err := p.users.FindByID(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to load author")
		return
	}

	post := &models.Post{
		UserID:    userID,
		Name:      author.Username,
		AvatarURL: author.AvatarURL,
		Text:      text,
	}

	if err := p.posts.Create(ctx.Request.Context(), post); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to create post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:user:" + userID.Hex() + ":posts:")

	utils.Success(ctx, gin.H{"post": post})
}

// ListPosts returns paginated posts, newest first.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	cacheKey := fmt.Sprintf("cache:posts:list:page=%d:size=%d", page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	posts, total, err := p.posts.List(ctx.Request.Context(), page, pageSize)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return
	}

	payload := gin.H{
		"items": posts,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, 5*time.Minute)
	utils.Success(ctx, payload)
}

// GetPost returns a single post with its likes and comments.
func (p *PostController) GetPost(ctx *gin.Context) {
	idStr := ctx.Param("id")
	if b, ok := utils.CacheGetBytes("cache:post:detail:" + idStr); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	id, ok := paramObjectID(ctx, "id")
	if !ok {
		return
	}

	post, err := p.posts.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	payload := gin.H{"post": post}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON("cache:post:detail:"+idStr, wrapper, time.Hour)
	utils.Success(ctx, payload)
}

// UpdatePost allows the author to replace the text of their post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required,min=1,max=5000"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, utils.BindErrors(err))
		return
	}

	text := utils.SanitizeText(strings.TrimSpace(req.Text))
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "text cannot be empty")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	id, ok := paramObjectID(ctx, "id")
	if !ok {
		return
	}

	post, err := p.posts.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}
	if post.UserID != userID {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "you can only edit your own post")
		return
	}

	updated, err := p.posts.UpdateText(ctx.Request.Context(), id, text)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to update post")
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + id.Hex())
	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Success(ctx, gin.H{"post": updated})
}

// DeletePost removes a post. Only the author may delete it; a configured
// admin may as well when moderation is enabled.
func (p *PostController) DeletePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	id, ok := paramObjectID(ctx, "id")
	if !ok {
		return
	}

	post, err := p.posts.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}
	if post.UserID != userID && !canModerate(ctx) {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "you can only delete your own post")
		return
	}

	if err := p.posts.Delete(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to delete post")
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + id.Hex())
	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:user:" + post.UserID.Hex() + ":posts:")

	utils.Success(ctx, gin.H{"message": "post removed"})
}

// LikePost records a like by the current user. A second like from the
// same user is rejected.
func (p *PostController) LikePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	id, ok := paramObjectID(ctx, "id")
	if !ok {
		return
	}

	post, err := p.posts.Like(ctx.Request.Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		case errors.Is(err, repository.ErrAlreadyLiked):
			utils.Error(ctx, http.StatusBadRequest, 40030, "post already liked")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to like post")
		}
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + id.Hex())

	utils.Success(ctx, gin.H{"likes": post.Likes})
}

// UnlikePost removes the current user's like. Unliking a post the user
// never liked is rejected.
func (p *PostController) UnlikePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	id, ok := paramObjectID(ctx, "id")
	if !ok {
		return
	}

	post, err := p.posts.Unlike(ctx.Request.Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		case errors.Is(err, repository.ErrNotLiked):
			utils.Error(ctx, http.StatusBadRequest, 40031, "post has not yet been liked")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to unlike post")
		}
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + id.Hex())

	utils.Success(ctx, gin.H{"likes": post.Likes})
}

// ListUserPosts returns posts created by a specific user (public).
func (p *PostController) ListUserPosts(ctx *gin.Context) {
	author, ok := paramObjectID(ctx, "id")
	if !ok {
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	cacheKey := fmt.Sprintf("cache:user:%s:posts:page=%d:size=%d", author.Hex(), page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	posts, total, err := p.posts.ListByAuthor(ctx.Request.Context(), author, page, pageSize)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to list user posts")
		return
	}

	payload := gin.H{
		"items": posts,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	utils.Success(ctx, payload)
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 20
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func getUserID(ctx *gin.Context) (primitive.ObjectID, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return primitive.NilObjectID, false
	}

	hexID, ok := value.(string)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// paramObjectID parses a path parameter as an object id, writing the 400
// response itself when the value is malformed.
func paramObjectID(ctx *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(ctx.Param(name))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40002, "malformed "+name+" parameter")
		return primitive.NilObjectID, false
	}
	return id, true
}

func isAdmin(ctx *gin.Context) bool {
	unameVal, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return false
	}
	uname, _ := unameVal.(string)
	if uname == "" {
		return false
	}
	return isAdminUsername(uname)
}

// canModerate reports whether the current user may delete other users'
// content. Admin deletion must be switched on explicitly in config.
func canModerate(ctx *gin.Context) bool {
	return config.Get().AdminDeleteEnabled && isAdmin(ctx)
}
