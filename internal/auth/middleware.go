package auth

import (
	"github.com/babytracker/internal/db"
	"github.com/gin-gonic/gin"
)

const userContextKey = "__auth_user"

// UserLookup loads an account by email; nil, nil when absent.
type UserLookup interface {
	FindUser(email string) (*db.User, error)
}

// Identify resolves the ticket on every request and stores the matching user in the context.
// Missing or invalid tickets leave the request anonymous; a ticket naming a deleted account is
// dropped.
func (t *Tickets) Identify(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := fromRequest(c.Request)
		if raw == "" {
			c.Next()
			return
		}

		email, err := t.Verify(raw)
		if err != nil {
			t.Forget(c)
			c.Next()
			return
		}

		user, err := users.FindUser(email)
		if err != nil {
			c.Error(err)
			c.Next()
			return
		}
		if user == nil {
			t.Forget(c)
			c.Next()
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *db.User {
	if v, ok := c.Get(userContextKey); ok {
		if user, ok := v.(*db.User); ok {
			return user
		}
	}
	return nil
}

// CurrentEmail returns the authenticated email, or "" for anonymous requests.
func CurrentEmail(c *gin.Context) string {
	if user := CurrentUser(c); user != nil {
		return user.Email
	}
	return ""
}

// SetCurrentUser replaces the authenticated user for the rest of the request, after a login
// or logout.
func SetCurrentUser(c *gin.Context, user *db.User) {
	c.Set(userContextKey, user)
}
