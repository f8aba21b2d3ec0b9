package handler

import (
	"net/http"

	"livecart/internal/middleware"
	"livecart/internal/models"
	"livecart/internal/util"

	"github.com/gin-gonic/gin"
)

// GetData returns the authenticated user's public profile plus the
// session's visit counter. Password hashes and internal IDs stay out of
// the payload.
func GetData(c *gin.Context) {
	user, session, ok := currentIdentity(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	util.Success(c, util.Response{
		"user": gin.H{
			"username": user.Username,
			"email":    user.Email,
		},
		"counter": session.Counter,
	})
}

// currentIdentity pulls the records RequireSession stashed on the context.
func currentIdentity(c *gin.Context) (*models.User, *models.Session, bool) {
	uv, ok := c.Get(middleware.CtxUser)
	if !ok {
		return nil, nil, false
	}
	user, ok := uv.(*models.User)
	if !ok || user == nil {
		return nil, nil, false
	}

	sv, ok := c.Get(middleware.CtxSession)
	if !ok {
		return nil, nil, false
	}
	session, ok := sv.(*models.Session)
	if !ok || session == nil {
		return nil, nil, false
	}
	return user, session, true
}
