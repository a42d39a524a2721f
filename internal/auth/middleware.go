package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/headless-pm/team-collab/internal/models"
	jwtauth "github.com/headless-pm/team-collab/pkg/auth"
)

const (
	userKey      = "user"
	actingForKey = "acting_for"
)

// UserLookup loads the user a token was issued for.
type UserLookup interface {
	GetUser(id string) (*models.User, error)
}

// AuthMiddleware validates the bearer token and stores the acting user in the
// request context. The user is reloaded on every request so a role change
// takes effect without reissuing tokens.
func AuthMiddleware(jwtManager *jwtauth.JWTManager, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Missing authentication token",
			})
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := jwtManager.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		user, err := users.GetUser(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Unknown user",
			})
			c.Abort()
			return
		}

		c.Set(userKey, *user)
		if claims.ActingFor != "" {
			c.Set(actingForKey, claims.ActingFor)
		}

		c.Next()
	}
}

// CurrentUser returns the user set by AuthMiddleware.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

// ActingFor returns the id of the admin who switched into the current user,
// if any.
func ActingFor(c *gin.Context) string {
	return c.GetString(actingForKey)
}
