package handler

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"livecart/internal/config"
	"livecart/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WSHandler upgrades gated requests into hub connections.
type WSHandler struct {
	Hub      *hub.Hub
	upgrader websocket.Upgrader
	cfg      config.HubConfig
}

func NewWSHandler(h *hub.Hub, srvCfg config.ServerConfig, hubCfg config.HubConfig) *WSHandler {
	allowed := normalizeOrigins(srvCfg.AllowedOrigins)
	return &WSHandler{
		Hub: h,
		cfg: hubCfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(r, allowed)
			},
		},
	}
}

// Connect runs behind RequireSession, so the session cookie has already
// been validated by the time the upgrade happens.
func (h *WSHandler) Connect(c *gin.Context) {
	user, _, ok := currentIdentity(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	conn.SetReadLimit(h.cfg.MaxMessageSize)

	client := hub.NewClient(conn, h.Hub, user.Username, c.ClientIP(), h.cfg.SendBuffer)
	h.Hub.Register(client)
}

// normalizeOrigins lowercases configured origins to scheme://host form.
// An entry of "*" allows everything.
func normalizeOrigins(origins []string) map[string]bool {
	allowed := make(map[string]bool, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			allowed["*"] = true
			continue
		}
		if norm, ok := normalizeOrigin(trimmed); ok {
			allowed[norm] = true
		} else {
			log.Printf("ignoring invalid origin in configuration: %q", origin)
		}
	}
	return allowed
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// originAllowed accepts same-host requests plus anything in the
// configured list. Browsers always send Origin on websocket upgrades;
// non-browser clients that omit it are let through since the session
// gate already ran.
func originAllowed(r *http.Request, allowed map[string]bool) bool {
	originHeader := r.Header.Get("Origin")
	if originHeader == "" {
		return true
	}
	norm, ok := normalizeOrigin(originHeader)
	if !ok {
		return false
	}
	if allowed["*"] || allowed[norm] {
		return true
	}
	if parsed, err := url.Parse(originHeader); err == nil &&
		strings.EqualFold(parsed.Host, r.Host) {
		return true
	}
	log.Printf("blocked websocket connection from disallowed origin %q", originHeader)
	return false
}
