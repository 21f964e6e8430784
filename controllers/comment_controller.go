package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ripplefeed/ripple/models"
	"github.com/ripplefeed/ripple/repository"
	"github.com/ripplefeed/ripple/utils"
)

// CommentController manages the comment sub-documents embedded in posts.
type CommentController struct {
	posts PostStore
	users UserStore
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(posts PostStore, users UserStore) *CommentController {
	return &CommentController{posts: posts, users: users}
}

// CreateComment appends a comment to a post. The newest comment always
// lands at the head of the comment list.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required,min=1,max=2000"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, utils.BindErrors(err))
		return
	}

	text := utils.SanitizeText(strings.TrimSpace(req.Text))
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "text cannot be empty")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	postID, ok := paramObjectID(ctx, "id")
	if !ok {
		return
	}

	author, err := c.users.FindByID(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load author")
		return
	}

	now := time.Now()
	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Text:      text,
		Name:      author.Username,
		AvatarURL: author.AvatarURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	post, err := c.posts.AddComment(ctx.Request.Context(), postID, comment)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to create comment")
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + postID.Hex())

	utils.Success(ctx, gin.H{"comments": post.Comments})
}

// UpdateComment replaces the text of a comment. Only the comment's author
// may edit it.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required,min=1,max=2000"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, utils.BindErrors(err))
		return
	}

	text := utils.SanitizeText(strings.TrimSpace(req.Text))
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "text cannot be empty")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	postID, ok := paramObjectID(ctx, "id")
	if !ok {
		return
	}
	commentID, ok := paramObjectID(ctx, "cid")
	if !ok {
		return
	}

	post, err := c.posts.Get(ctx.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	comment := post.Comment(commentID)
	if comment == nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
		return
	}
	if comment.UserID != userID {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "you can only edit your own comment")
		return
	}

	updated, err := c.posts.UpdateComment(ctx.Request.Context(), postID, commentID, text)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		case errors.Is(err, repository.ErrCommentNotFound):
			utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to update comment")
		}
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + postID.Hex())

	utils.Success(ctx, gin.H{"comments": updated.Comments})
}

// DeleteComment removes a comment. Only its author may delete it; a
// configured admin may as well when moderation is enabled.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	postID, ok := paramObjectID(ctx, "id")
	if !ok {
		return
	}
	commentID, ok := paramObjectID(ctx, "cid")
	if !ok {
		return
	}

	post, err := c.posts.Get(ctx.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	comment := post.Comment(commentID)
	if comment == nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
		return
	}
	if comment.UserID != userID && !canModerate(ctx) {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "you can only delete your own comment")
		return
	}

	updated, err := c.posts.RemoveComment(ctx.Request.Context(), postID, commentID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		case errors.Is(err, repository.ErrCommentNotFound):
			utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to delete comment")
		}
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + postID.Hex())

	utils.Success(ctx, gin.H{"comments": updated.Comments})
}
