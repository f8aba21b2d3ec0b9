package middleware

import (
	"net/http"

	"livecart/internal/auth"

	"github.com/gin-gonic/gin"
)

// context keys set by RequireSession
const (
	CtxSession = "currentSession"
	CtxUser    = "currentUser"
)

// RequireSession gates protected routes. A missing or expired session is
// a recoverable outcome answered with a redirect to the login page, never
// an error response. Each pass through the gate renews the session's idle
// timeout.
func RequireSession(svc *auth.Service, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		session, err := svc.SessionFromToken(c.Request.Context(), token)
		if err != nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		user, err := svc.UserForSession(c.Request.Context(), session)
		if err != nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Set(CtxSession, session)
		c.Set(CtxUser, user)
		c.Next()
	}
}
