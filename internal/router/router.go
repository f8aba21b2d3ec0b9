package router

import (
	"time"

	"livecart/internal/auth"
	"livecart/internal/config"
	"livecart/internal/handler"
	"livecart/internal/hub"
	"livecart/internal/middleware"
	"livecart/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup configures the Gin engine, templates, the session authenticator,
// and the realtime hub routes. The returned hub is already running.
func Setup(cfg *config.Config, db *gorm.DB) (*gin.Engine, *hub.Hub) {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.Static("/static", "./web/static")
	r.LoadHTMLGlob("web/templates/*")

	users := store.NewCredentialStore(db)
	messages := store.NewMessageLog(db)
	catalog := store.NewCatalogLog(db)

	authSvc := auth.NewService(users, db, cfg.Session.Secret,
		time.Duration(cfg.Session.IdleSeconds)*time.Second)

	h := hub.New(messages, catalog, hub.ParsePolicy(cfg.Hub.PersistPolicy))
	go h.Run()

	pages := handler.NewPageHandler(authSvc, cfg.Session.CookieName)
	authHandler := handler.NewAuthHandler(authSvc, cfg.Session.CookieName)
	wsHandler := handler.NewWSHandler(h, cfg.Server, cfg.Hub)
	exportHandler := handler.NewExportHandler(db)

	// pages and auth flow
	r.GET("/", pages.Home)
	r.GET("/login", pages.Login)
	r.POST("/login", authHandler.Login)
	r.GET("/faillogin", pages.FailLogin)
	r.GET("/register", pages.Register)
	r.POST("/register", authHandler.Register)
	r.GET("/failregister", pages.FailRegister)
	r.GET("/logout", authHandler.Logout)

	// open API
	r.GET("/api/randoms", handler.Randoms)

	// session-gated routes
	protected := r.Group("")
	protected.Use(middleware.RequireSession(authSvc, cfg.Session.CookieName))

	protected.GET("/datos", pages.Datos)
	protected.GET("/get-data", handler.GetData)
	protected.GET("/ws", wsHandler.Connect)
	protected.GET("/export/products.xlsx", exportHandler.ExportProductsXLSX)

	return r, h
}
