package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ripplefeed/ripple/utils"
)

// RequireObjectID rejects requests whose named path parameters are not
// well-formed object ids, so handlers never see a malformed id.
func RequireObjectID(params ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		for _, name := range params {
			if _, err := primitive.ObjectIDFromHex(ctx.Param(name)); err != nil {
				utils.Error(ctx, http.StatusBadRequest, 40002, "malformed "+name+" parameter")
				ctx.Abort()
				return
			}
		}
		ctx.Next()
	}
}
