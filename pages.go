package main

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

type pageAccess int

const (
	pagePublic pageAccess = iota
	pageGuest
	pageProtected
	pageAdmin
)

type page struct {
	path   string
	file   string
	access pageAccess
}

// pages maps clean URLs to the HTML files in the views directory.
var pages = []page{
	{"/", "index.html", pagePublic},
	{"/login", "authentication-login.html", pageGuest},
	{"/register", "authentication-register.html", pageGuest},
	{"/dashboard", "dashboard.html", pageProtected},
	{"/leads", "lead-management.html", pageProtected},
	{"/event", "calendar-event.html", pageProtected},
	{"/inventaris", "stock-inventaris.html", pageProtected},
	{"/rab", "rab.html", pageProtected},
	{"/laporan", "laporan.html", pageProtected},
	{"/flyer", "flyer.html", pageProtected},
	{"/emas", "gold-dashboard.html", pageProtected},
	{"/simulasi-cicilan", "simulasi-cicilan.html", pageProtected},
	{"/users", "management-users.html", pageAdmin},
}

func (s *server) setupPages(r *gin.Engine) {
	for _, p := range pages {
		var chain []gin.HandlerFunc
		switch p.access {
		case pageGuest:
			chain = append(chain, s.isGuest)
		case pageProtected:
			chain = append(chain, s.isAuthenticated)
		case pageAdmin:
			chain = append(chain, s.isAuthenticated, s.isAdmin)
		}
		chain = append(chain, s.servePage(p.file))
		r.GET(p.path, chain...)
	}
}

func (s *server) servePage(file string) gin.HandlerFunc {
	return func(c *gin.Context) {
		full := filepath.Join(s.cfg.Server.ViewsDir, file)
		if _, err := os.Stat(full); err != nil {
			s.notFound(c)
			return
		}
		c.Header("Cache-Control", "no-store")
		c.File(full)
	}
}
