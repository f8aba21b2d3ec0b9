package handler

import (
	"errors"
	"net/http"
	"time"

	"livecart/internal/auth"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves the register/login/logout routes. Failures redirect
// to dedicated failure views, mirroring the page-driven flow the forms
// post into; no JSON errors leak out of these routes.
type AuthHandler struct {
	Auth       *auth.Service
	CookieName string
}

func NewAuthHandler(svc *auth.Service, cookieName string) *AuthHandler {
	return &AuthHandler{Auth: svc, CookieName: cookieName}
}

type registerForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
	Email    string `form:"email"`
}

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		c.Redirect(http.StatusFound, "/failregister")
		return
	}

	if _, err := h.Auth.Register(c.Request.Context(), form.Username, form.Password, form.Email); err != nil {
		if !errors.Is(err, auth.ErrDuplicateUser) {
			// duplicate usernames are the expected failure; anything
			// else is only visible in the log
			_ = c.Error(err)
		}
		c.Redirect(http.StatusFound, "/failregister")
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		c.Redirect(http.StatusFound, "/faillogin")
		return
	}

	_, token, err := h.Auth.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			_ = c.Error(err)
		}
		c.Redirect(http.StatusFound, "/faillogin")
		return
	}

	c.SetCookie(h.CookieName, token, int((24 * time.Hour).Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, "/datos")
}

// Logout destroys the session unconditionally and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(h.CookieName); err == nil && token != "" {
		if session, err := h.Auth.SessionFromToken(c.Request.Context(), token); err == nil {
			_ = h.Auth.Logout(c.Request.Context(), session.ID)
		}
	}

	c.SetCookie(h.CookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}
