package middleware

import (
	"net/http"

	"boardly/internal/models"
	"boardly/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CheckUserKey   = "user"
	IdentityKey    = "identity"
	SessionUserKey = "user_id"
)

// LoadUser resolves the session to the current user and stores both the
// user (for templates) and its Identity (for services) in the context.
// A session pointing at a deleted account is cleared.
func LoadUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(SessionUserKey).(uint)
		if ok && userID != 0 {
			user, err := users.Get(c.Request.Context(), userID)
			if err == nil {
				c.Set(CheckUserKey, user)
				c.Set(IdentityKey, &services.Identity{ID: user.ID, Role: user.Role})
			} else if services.KindOf(err) == services.KindNotFound {
				session.Delete(SessionUserKey)
				_ = session.Save()
			}
		}
		c.Next()
	}
}

// CurrentIdentity returns the caller, or nil for anonymous requests.
func CurrentIdentity(c *gin.Context) *services.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if id, ok := v.(*services.Identity); ok {
			return id
		}
	}
	return nil
}

func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// AuthRequired rejects anonymous API calls with 401.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentIdentity(c) == nil {
			AbortJSON(c, http.StatusUnauthorized, string(services.KindAuthRequired), "authentication required")
			return
		}
		c.Next()
	}
}

// AdminRequired rejects non-admins with 403 (401 when anonymous).
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := CurrentIdentity(c)
		if id == nil {
			AbortJSON(c, http.StatusUnauthorized, string(services.KindAuthRequired), "authentication required")
			return
		}
		if !services.IsAdmin(id) {
			AbortJSON(c, http.StatusForbidden, string(services.KindDenied), "permission denied")
			return
		}
		c.Next()
	}
}

func AbortJSON(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": kind, "message": message})
}
