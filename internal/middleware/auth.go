package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/projectpulse/tracker/internal/constants"
	apierrors "github.com/projectpulse/tracker/internal/errors"
	"github.com/projectpulse/tracker/internal/models"
	"github.com/projectpulse/tracker/internal/services"
)

// RequireAuth resolves the bearer token from the Authorization header and
// stores the authenticated user in the request context. Missing, malformed,
// expired, and orphaned tokens are rejected with distinct messages.
func RequireAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			apierrors.Unauthorized(c, "You are not logged in. Please log in to get access.")
			c.Abort()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")

		user, err := authService.ResolveToken(token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				apierrors.Unauthorized(c, "Your token has expired. Please log in again.")
			case errors.Is(err, services.ErrTokenUserGone):
				apierrors.Unauthorized(c, "The user belonging to this token no longer exists.")
			default:
				apierrors.Unauthorized(c, "Invalid token. Please log in again.")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

// GetCurrentUser retrieves the authenticated user from the request context.
func GetCurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}

	user, ok := value.(*models.User)
	if !ok {
		return nil, false
	}
	return user, true
}
