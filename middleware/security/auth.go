package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"PingSpace/tools/errs"
	jwtsec "PingSpace/tools/security"
)

// CtxUserIDKey is where the middleware stores the authenticated user ID;
// handlers read it back with UserID(c).
const CtxUserIDKey = "userID"

type Options struct {
	JWT jwtsec.Options
}

// Middleware rejects requests without a valid bearer token and stores the
// subject user ID in the gin context.
func Middleware(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenExpired)
			return
		}
		userID, err := jwtsec.Verify(opts.JWT, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenExpired)
			return
		}
		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user for the request, set by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

func bearerToken(c *gin.Context) string {
	// Cookie first (browser clients), then Authorization: Bearer.
	if tok, err := c.Cookie("jwt"); err == nil && tok != "" {
		return tok
	}
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if authz == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return ""
}
