package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/playtube/playtube-backend/auth"
	"github.com/playtube/playtube-backend/models"
)

const userKey = "user"

// Auth resolves the access token from the accessToken cookie or an
// Authorization Bearer header, authenticates it, and attaches the user
// snapshot to the request context. Expired access tokens are rejected here;
// renewing them is the refresh endpoint's job.
func Auth(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("accessToken")
		if token == "" {
			header := c.GetHeader("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimPrefix(header, "Bearer ")
			}
		}

		user, err := svc.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrPersistenceFailure) {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "connection failed"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the user attached by Auth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	val, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := val.(*models.User)
	return user, ok
}
