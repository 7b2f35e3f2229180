package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sannylab/minifeed/utils"
)

const (
	// ContextNameKey is the key used to store the asserted display name in
	// the Gin context.
	ContextNameKey = "name"
	// ContextRoleKey stores the resolved role inside the Gin context.
	ContextRoleKey = "role"
)

// IdentityRequired ensures the request carries a session token. The token
// proves nothing beyond "this caller asserted this display name earlier";
// without one, every feed operation is refused.
func IdentityRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			ctx.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "invalid token")
			ctx.Abort()
			return
		}
		if strings.TrimSpace(claims.Name) == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "token carries no identity")
			ctx.Abort()
			return
		}

		ctx.Set(ContextNameKey, claims.Name)
		ctx.Set(ContextRoleKey, claims.Role)
		ctx.Next()
	}
}
