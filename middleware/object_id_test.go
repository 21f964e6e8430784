package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func idRouter() *gin.Engine {
	r := gin.New()
	r.GET("/posts/:id", RequireObjectID("id"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	r.GET("/posts/:id/:cid", RequireObjectID("id", "cid"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})
	return r
}

func TestRequireObjectIDPassesValid(t *testing.T) {
	id := primitive.NewObjectID().Hex()
	w := get(idRouter(), "/posts/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id)
}

func TestRequireObjectIDRejectsMalformed(t *testing.T) {
	w := get(idRouter(), "/posts/12345", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40002, responseCode(t, w))
	assert.Contains(t, w.Body.String(), "malformed id parameter")
}

func TestRequireObjectIDChecksEveryParam(t *testing.T) {
	id := primitive.NewObjectID().Hex()
	w := get(idRouter(), "/posts/"+id+"/nope", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "malformed cid parameter")
}
