package handler

import (
	"net/http"

	"livecart/internal/auth"

	"github.com/gin-gonic/gin"
)

// PageHandler serves the thin HTML shell around the realtime channel.
type PageHandler struct {
	Auth       *auth.Service
	CookieName string
}

func NewPageHandler(svc *auth.Service, cookieName string) *PageHandler {
	return &PageHandler{Auth: svc, CookieName: cookieName}
}

// Home redirects to the main page; the session gate on /datos decides
// whether the visitor ends up at the login form instead.
func (h *PageHandler) Home(c *gin.Context) {
	c.Redirect(http.StatusFound, "/datos")
}

// Login shows the login form, or skips straight to the main page when a
// live session already exists.
func (h *PageHandler) Login(c *gin.Context) {
	if h.hasSession(c) {
		c.Redirect(http.StatusFound, "/datos")
		return
	}
	c.HTML(http.StatusOK, "login.html", gin.H{"title": "livecart - login"})
}

// Register shows the registration form, same short-circuit as Login.
func (h *PageHandler) Register(c *gin.Context) {
	if h.hasSession(c) {
		c.Redirect(http.StatusFound, "/datos")
		return
	}
	c.HTML(http.StatusOK, "register.html", gin.H{"title": "livecart - register"})
}

func (h *PageHandler) FailLogin(c *gin.Context) {
	c.HTML(http.StatusOK, "login-error.html", gin.H{"title": "livecart - login failed"})
}

func (h *PageHandler) FailRegister(c *gin.Context) {
	c.HTML(http.StatusOK, "register-error.html", gin.H{"title": "livecart - registration failed"})
}

// Datos is the protected main page. Each visit bumps the session's visit
// counter; API reads like /get-data report it without incrementing.
func (h *PageHandler) Datos(c *gin.Context) {
	user, session, ok := currentIdentity(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	if err := h.Auth.VisitProtectedPage(c.Request.Context(), session); err != nil {
		_ = c.Error(err)
	}

	c.HTML(http.StatusOK, "datos.html", gin.H{
		"title":    "livecart",
		"username": user.Username,
		"counter":  session.Counter,
	})
}

// hasSession reports whether the request carries a live session. The
// check renews the idle timeout like any other successful gate pass.
func (h *PageHandler) hasSession(c *gin.Context) bool {
	token, err := c.Cookie(h.CookieName)
	if err != nil || token == "" {
		return false
	}
	_, err = h.Auth.SessionFromToken(c.Request.Context(), token)
	return err == nil
}
