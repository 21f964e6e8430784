package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ripplefeed/ripple/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("RATE_LIMIT_PER_MINUTE", "4")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.GET("/protected", AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  c.GetString(ContextUserIDKey),
			"username": c.GetString(ContextUsernameKey),
		})
	})
	return r
}

func get(r http.Handler, target, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func responseCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var body struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestAuthRequiredMissingHeader(t *testing.T) {
	w := get(protectedRouter(), "/protected", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40101, responseCode(t, w))
}

func TestAuthRequiredWrongScheme(t *testing.T) {
	w := get(protectedRouter(), "/protected", "Token abc")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40102, responseCode(t, w))
}

func TestAuthRequiredEmptyToken(t *testing.T) {
	w := get(protectedRouter(), "/protected", "Bearer ")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40103, responseCode(t, w))
}

func TestAuthRequiredGarbageToken(t *testing.T) {
	w := get(protectedRouter(), "/protected", "Bearer not.a.jwt")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40105, responseCode(t, w))
}

func TestAuthRequiredExpiredToken(t *testing.T) {
	uid := primitive.NewObjectID().Hex()
	token, err := utils.GenerateToken(uid, "alice", -time.Minute)
	require.NoError(t, err)

	w := get(protectedRouter(), "/protected", "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40105, responseCode(t, w))
}

func TestAuthRequiredValidToken(t *testing.T) {
	uid := primitive.NewObjectID().Hex()
	token, err := utils.GenerateToken(uid, "alice", time.Hour)
	require.NoError(t, err)

	w := get(protectedRouter(), "/protected", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uid, body.UserID)
	assert.Equal(t, "alice", body.Username)
}

func TestAuthRequiredRevokedToken(t *testing.T) {
	uid := primitive.NewObjectID().Hex()
	token, err := utils.GenerateToken(uid, "alice", time.Hour)
	require.NoError(t, err)
	utils.BlacklistToken(token, time.Now().Add(time.Hour))

	w := get(protectedRouter(), "/protected", "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40104, responseCode(t, w))
}
