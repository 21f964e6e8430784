package controllers

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ripplefeed/ripple/middleware"
	"github.com/ripplefeed/ripple/models"
	"github.com/ripplefeed/ripple/utils"
)

func newAuthRouter(ac *AuthController) *gin.Engine {
	r := gin.New()
	g := r.Group("/api/v1/auth")
	g.POST("/register", ac.Register)
	g.POST("/login", ac.Login)
	g.POST("/logout", middleware.AuthRequired(), ac.Logout)
	g.GET("/oauth/:provider/login", ac.OAuthRedirect)
	g.GET("/oauth/:provider/callback", ac.OAuthCallback)
	r.GET("/api/v1/users/:id", ac.GetUser)
	return r
}

func TestRegister(t *testing.T) {
	users := &fakeUserStore{}
	r := newAuthRouter(NewAuthController(users))

	w := performJSON(t, r, http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 0, env.Code)
	assert.NotEmpty(t, env.Data["token"])

	user, ok := env.Data["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, "local", user["provider"])
	assert.Equal(t, false, user["is_admin"])
	assert.Contains(t, user["avatar_url"], "gravatar.com/avatar/")

	require.Len(t, users.users, 1)
	stored := users.users[0]
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.True(t, utils.CheckPassword(stored.PasswordHash, "secret123"))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	users := &fakeUserStore{}
	seedUser(t, users, "alice")
	r := newAuthRouter(NewAuthController(users))

	w := performJSON(t, r, http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "alice",
		"password": "secret123",
	})

	require.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 40901, env.Code)
	assert.Len(t, users.users, 1)
}

func TestRegisterValidation(t *testing.T) {
	users := &fakeUserStore{}
	r := newAuthRouter(NewAuthController(users))

	w := performJSON(t, r, http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "alice",
		"password": "nope",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 40001, env.Code)
	errs := env.Data["errors"].([]any)
	require.NotEmpty(t, errs)
	assert.Equal(t, "password", errs[0].(map[string]any)["field"])
	assert.Empty(t, users.users)
}

func TestRegisterRejectsBadUsernameChars(t *testing.T) {
	users := &fakeUserStore{}
	r := newAuthRouter(NewAuthController(users))

	w := performJSON(t, r, http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "bad name!",
		"password": "secret123",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 40001, env.Code)
	errs := env.Data["errors"].([]any)
	require.NotEmpty(t, errs)
	assert.Equal(t, "username", errs[0].(map[string]any)["field"])
}

func TestRegisterRejectsOverlongPasswordBytes(t *testing.T) {
	users := &fakeUserStore{}
	r := newAuthRouter(NewAuthController(users))

	// 30 runes but 90 bytes, over bcrypt's byte limit.
	w := performJSON(t, r, http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "alice",
		"password": strings.Repeat("密", 30),
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 40001, env.Code)
	errs := env.Data["errors"].([]any)
	require.NotEmpty(t, errs)
	assert.Equal(t, "password", errs[0].(map[string]any)["field"])
}

func TestLogin(t *testing.T) {
	users := &fakeUserStore{}
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	u := &models.User{Username: "alice", PasswordHash: hash, Provider: "local"}
	require.NoError(t, users.Create(context.Background(), u))
	r := newAuthRouter(NewAuthController(users))

	w := performJSON(t, r, http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "alice",
		"password": "secret123",
	})

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	token, ok := env.Data["token"].(string)
	require.True(t, ok)

	claims, err := utils.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	users := &fakeUserStore{}
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &models.User{Username: "alice", PasswordHash: hash}))
	r := newAuthRouter(NewAuthController(users))

	w := performJSON(t, r, http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "alice",
		"password": "wrong",
	})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 40106, env.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	users := &fakeUserStore{}
	r := newAuthRouter(NewAuthController(users))

	w := performJSON(t, r, http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "ghost",
		"password": "whatever",
	})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 40106, env.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	users := &fakeUserStore{}
	alice := seedUser(t, users, "alice")
	r := newAuthRouter(NewAuthController(users))

	token, err := utils.GenerateToken(alice.ID.Hex(), alice.Username, time.Hour)
	require.NoError(t, err)

	unauth := performJSON(t, r, http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusUnauthorized, unauth.Code)

	w := performAuthed(t, r, http.MethodPost, "/api/v1/auth/logout", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, utils.IsTokenBlacklisted(token))

	// The same token is rejected from now on
	w = performAuthed(t, r, http.MethodPost, "/api/v1/auth/logout", token)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 40104, env.Code)
}

func TestMe(t *testing.T) {
	users := &fakeUserStore{}
	alice := seedUser(t, users, "alice")
	ac := NewAuthController(users)
	r := gin.New()
	r.GET("/api/v1/auth/me", identity(alice.ID, alice.Username), ac.Me)

	w := performJSON(t, r, http.MethodGet, "/api/v1/auth/me", nil)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "alice", env.Data["username"])
	assert.Equal(t, "alice@example.com", env.Data["email"])
}

func TestUpdateProfile(t *testing.T) {
	users := &fakeUserStore{}
	alice := seedUser(t, users, "alice")
	ac := NewAuthController(users)
	r := gin.New()
	r.PATCH("/api/v1/auth/profile", identity(alice.ID, alice.Username), ac.UpdateProfile)

	w := performJSON(t, r, http.MethodPatch, "/api/v1/auth/profile", gin.H{
		"signature": "hello there",
	})

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "hello there", env.Data["signature"])

	stored, err := users.FindByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello there", stored.Signature)
	// Untouched fields keep their values
	assert.Equal(t, "alice@example.com", stored.Email)
}

func TestUpdateProfileInvalidAvatarURL(t *testing.T) {
	users := &fakeUserStore{}
	alice := seedUser(t, users, "alice")
	ac := NewAuthController(users)
	r := gin.New()
	r.PATCH("/api/v1/auth/profile", identity(alice.ID, alice.Username), ac.UpdateProfile)

	w := performJSON(t, r, http.MethodPatch, "/api/v1/auth/profile", gin.H{
		"avatar_url": "not a url",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 40001, env.Code)
}

func TestGetUserPublicProjection(t *testing.T) {
	users := &fakeUserStore{}
	alice := seedUser(t, users, "alice")
	r := newAuthRouter(NewAuthController(users))

	w := performJSON(t, r, http.MethodGet, "/api/v1/users/"+alice.ID.Hex(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "alice", env.Data["username"])
	_, hasEmail := env.Data["email"]
	assert.False(t, hasEmail, "public profile must not expose email")
	_, hasAdmin := env.Data["is_admin"]
	assert.False(t, hasAdmin)
}

func TestGetUserNotFound(t *testing.T) {
	users := &fakeUserStore{}
	r := newAuthRouter(NewAuthController(users))

	w := performJSON(t, r, http.MethodGet, "/api/v1/users/"+primitive.NewObjectID().Hex(), nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 40403, env.Code)
}

func TestOAuthRedirectUnconfigured(t *testing.T) {
	users := &fakeUserStore{}
	r := newAuthRouter(NewAuthController(users))

	w := performJSON(t, r, http.MethodGet, "/api/v1/auth/oauth/github/login", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 40004, env.Code)
}

func TestOAuthRedirectUnknownProvider(t *testing.T) {
	users := &fakeUserStore{}
	r := newAuthRouter(NewAuthController(users))

	w := performJSON(t, r, http.MethodGet, "/api/v1/auth/oauth/gitlab/login", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 40004, env.Code)
}

func TestOAuthCallbackMissingParams(t *testing.T) {
	users := &fakeUserStore{}
	r := newAuthRouter(NewAuthController(users))

	w := performJSON(t, r, http.MethodGet, "/api/v1/auth/oauth/github/callback", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 40005, env.Code)
}

func TestOAuthCallbackBadState(t *testing.T) {
	users := &fakeUserStore{}
	r := newAuthRouter(NewAuthController(users))

	w := performJSON(t, r, http.MethodGet, "/api/v1/auth/oauth/github/callback?code=abc&state=unknown", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 40006, env.Code)
}

func TestEnsureUniqueUsername(t *testing.T) {
	users := &fakeUserStore{}
	seedUser(t, users, "octo")
	seedUser(t, users, "octo_1")
	ac := NewAuthController(users)

	name, err := ac.ensureUniqueUsername(context.Background(), "Octo", "github", "42")
	require.NoError(t, err)
	assert.Equal(t, "octo_2", name)

	name, err = ac.ensureUniqueUsername(context.Background(), "", "github", "42")
	require.NoError(t, err)
	assert.Equal(t, "github_42", name)
}
