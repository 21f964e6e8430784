package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ripplefeed/ripple/repository"
	"github.com/ripplefeed/ripple/utils"
)

// StatsController provides site statistics such as counts and daily page views.
type StatsController struct {
	posts PostStore
	users UserStore
	views PageViewStore
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(posts PostStore, users UserStore, views PageViewStore) *StatsController {
	return &StatsController{posts: posts, users: users, views: views}
}

// GetStats returns aggregate statistics for the site.
func (s *StatsController) GetStats(ctx *gin.Context) {
	const cacheKey = "cache:stats:site"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	reqCtx := ctx.Request.Context()

	userCount, err := s.users.Count(reqCtx)
	if err != nil {
		// Fallback to 0 instead of failing the whole endpoint
		userCount = 0
	}

	postCount, err := s.posts.Count(reqCtx)
	if err != nil {
		postCount = 0
	}

	commentCount, err := s.posts.CommentCount(reqCtx)
	if err != nil {
		commentCount = 0
	}

	dailyActive, err := s.views.TodayTotal(reqCtx)
	if err != nil {
		dailyActive = 0
	}

	payload := gin.H{
		"user_count":         userCount,
		"post_count":         postCount,
		"comment_count":      commentCount,
		"daily_active_count": dailyActive,
	}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, time.Minute)
	utils.Success(ctx, payload)
}

// GetPostStats returns page views plus like and comment counts for a post.
func (s *StatsController) GetPostStats(ctx *gin.Context) {
	id, ok := paramObjectID(ctx, "id")
	if !ok {
		return
	}

	post, err := s.posts.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load post")
		return
	}

	idStr := id.Hex()
	pv, err := s.views.PathTotal(ctx.Request.Context(), "/post/"+idStr, "/posts/"+idStr)
	if err != nil {
		pv = 0
	}

	utils.Success(ctx, gin.H{
		"pv":             pv,
		"likes_count":    len(post.Likes),
		"comments_count": len(post.Comments),
	})
}
