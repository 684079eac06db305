package main

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"websiteemas/pkg/config"
	"websiteemas/pkg/goldprice"
	"websiteemas/pkg/logging"
	"websiteemas/pkg/storage"
	"websiteemas/pkg/validate"
)

// server holds the dependencies shared by every handler.
type server struct {
	db        *gorm.DB
	cfg       *config.Config
	log       *logrus.Logger
	store     storage.Store
	poller    *goldprice.Poller
	scheduler *goldprice.Scheduler
	loc       *time.Location
	now       func() time.Time
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validate.Register(v); err != nil {
			panic(err)
		}
	}
}

// newRouter builds the gin engine with middleware and every route.
func (s *server) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(logging.RequestLogger(s.log), gin.CustomRecovery(s.recovered))
	if len(s.cfg.Server.CORSOrigins) > 0 {
		cc := cors.DefaultConfig()
		cc.AllowOrigins = s.cfg.Server.CORSOrigins
		cc.AllowCredentials = true
		cc.AddAllowHeaders("Authorization")
		r.Use(cors.New(cc))
	}
	s.setupRoutes(r)
	return r
}

func (s *server) setupRoutes(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/public/*filepath", s.servePublic)
	r.HEAD("/public/*filepath", s.servePublic)

	api := r.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/login", s.loginHandler)
	auth.POST("/logout", s.logoutHandler)
	auth.POST("/register", s.registerHandler)
	auth.GET("/me", s.meHandler)
	auth.POST("/change-password", s.isAuthenticated, withSession(s.changePasswordHandler))

	users := api.Group("/users", s.isAuthenticated, s.isAdmin)
	users.GET("", s.listUsersHandler)
	users.POST("", s.createUserHandler)
	users.GET("/:id", s.getUserHandler)
	users.PUT("/:id", withSession(s.updateUserHandler))
	users.DELETE("/:id", withSession(s.deleteUserHandler))

	authed := api.Group("", s.isAuthenticated)

	leads := authed.Group("/leads")
	leads.GET("", s.listLeadsHandler)
	leads.POST("", s.createLeadHandler)
	leads.GET("/:id", s.getLeadHandler)
	leads.PUT("/:id", s.updateLeadHandler)
	leads.DELETE("/:id", s.deleteLeadHandler)

	events := authed.Group("/event")
	events.GET("", s.listEventsHandler)
	events.POST("", s.createEventHandler)
	events.GET("/:id", s.getEventHandler)
	events.PUT("/:id", s.updateEventHandler)
	events.DELETE("/:id", s.deleteEventHandler)

	inv := authed.Group("/inventaris")
	inv.GET("", s.listInventarisHandler)
	inv.POST("", s.createInventarisHandler)
	inv.GET("/:id", s.getInventarisHandler)
	inv.PUT("/:id", s.updateInventarisHandler)
	inv.DELETE("/:id", s.deleteInventarisHandler)

	rab := authed.Group("/rab")
	rab.GET("", s.listRABHandler)
	rab.GET("/export", s.exportRABHandler)
	rab.POST("", s.createRABHandler)
	rab.GET("/:id", s.getRABHandler)
	rab.PUT("/:id", s.updateRABHandler)
	rab.DELETE("/:id", s.deleteRABHandler)

	lpj := authed.Group("/laporan")
	lpj.GET("", s.listLPJHandler)
	lpj.GET("/export", s.exportLPJHandler)
	lpj.POST("", s.createLPJHandler)
	lpj.GET("/:id", s.getLPJHandler)
	lpj.PUT("/:id", s.updateLPJHandler)
	lpj.DELETE("/:id", s.deleteLPJHandler)

	// one resource, both spellings the front end has used
	for _, prefix := range []string{"/flyers", "/flyer"} {
		g := authed.Group(prefix)
		g.GET("", s.listFlyersHandler)
		g.POST("", s.createFlyerHandler)
		g.GET("/:id", s.getFlyerHandler)
		g.PUT("/:id", s.updateFlyerHandler)
		g.DELETE("/:id", s.deleteFlyerHandler)
	}

	emas := authed.Group("/emas")
	emas.GET("/latest", s.latestGoldHandler)
	emas.GET("/history", s.goldHistoryHandler)
	emas.POST("/fetch", s.fetchGoldHandler)
	emas.GET("/stats", s.goldStatsHandler)
	emas.GET("/usage", s.goldUsageHandler)
	emas.GET("/manual-refresh-status", s.manualRefreshStatusHandler)
	emas.GET("/scheduler-status", s.schedulerStatusHandler)

	s.setupPages(r)
	r.NoRoute(s.notFound)
}

// servePublic serves /public/uploads/* from the upload store and everything
// else from the static assets directory.
func (s *server) servePublic(c *gin.Context) {
	rel := strings.TrimPrefix(path.Clean("/"+c.Param("filepath")), "/")
	if rel == "" || rel == "." {
		s.notFound(c)
		return
	}
	if after, ok := strings.CutPrefix(rel, "uploads/"); ok {
		local, isLocal := s.store.(*storage.Local)
		if !isLocal {
			s.notFound(c)
			return
		}
		s.serveFile(c, filepath.Join(local.Base, filepath.FromSlash(after)))
		return
	}
	s.serveFile(c, filepath.Join(s.cfg.Server.AssetsDir, filepath.FromSlash(rel)))
}

func (s *server) serveFile(c *gin.Context, full string) {
	fi, err := os.Stat(full)
	if err != nil || fi.IsDir() {
		s.notFound(c)
		return
	}
	c.File(full)
}

func (s *server) notFound(c *gin.Context) {
	if isAPI(c) || c.Request.URL.Path == "/api" {
		c.AbortWithStatusJSON(http.StatusNotFound, envelope{Success: false, Message: "Endpoint tidak ditemukan"})
		return
	}
	body, err := os.ReadFile(filepath.Join(s.cfg.Server.ViewsDir, "404.html"))
	if err != nil {
		body = []byte("<!doctype html><title>404</title><h1>404 - Halaman tidak ditemukan</h1>")
	}
	c.Data(http.StatusNotFound, "text/html; charset=utf-8", body)
	c.Abort()
}

func (s *server) recovered(c *gin.Context, rec any) {
	s.respondServerError(c, "recovery", "Terjadi kesalahan pada server", fmt.Errorf("panic: %v", rec))
}
