// Package server is the portfolio web application: the profile picker,
// the engine-start transition, the role landing pages and the admin
// terminal.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/moto-portfolio/internal/contact"
	"github.com/Zachkp/moto-portfolio/internal/content"
	"github.com/Zachkp/moto-portfolio/internal/filetree"
	"github.com/Zachkp/moto-portfolio/internal/gauge"
	"github.com/Zachkp/moto-portfolio/internal/logging"
	"github.com/Zachkp/moto-portfolio/internal/metrics"
	"github.com/Zachkp/moto-portfolio/internal/preview"
	"github.com/Zachkp/moto-portfolio/internal/profile"
	"github.com/Zachkp/moto-portfolio/internal/selector"
	"github.com/Zachkp/moto-portfolio/internal/session"
	"github.com/Zachkp/moto-portfolio/internal/visits"
)

// Options wires the server's collaborators. Catalog, Backend, Tree and
// FilesDir are required; the rest are optional.
type Options struct {
	Catalog  *profile.Catalog
	Backend  session.Backend
	Tree     filetree.Source
	FilesDir string

	Content      content.Content
	Gauge        gauge.Config
	GaugeOptions []gauge.Option

	Mailer         contact.Mailer
	Tracker        *visits.Tracker
	VisitRetention time.Duration
	Admin          AdminCredentials

	StaticDir     string
	AssetsDir     string
	Metrics       bool
	SecureCookies bool
	Logger        *zap.Logger
}

// Server holds the gin engine and all per-session state.
type Server struct {
	engine *gin.Engine
	log    *zap.Logger

	catalog   *profile.Catalog
	backend   session.Backend
	tree      filetree.Source
	renderer  *preview.Renderer
	content   content.Content
	contact   *contact.Service
	tracker   *visits.Tracker
	retention time.Duration

	admin      AdminCredentials
	adminToken string

	gauge     gauge.Config
	gaugeOpts []gauge.Option

	secureCookies bool

	selectors *session.Registry[*selector.Selector]
	terminals *session.Registry[*terminalSession]
}

// terminalSession is the admin terminal of one browser session. The tree
// is fetched once, the first time the terminal is shown.
type terminalSession struct {
	nav  *filetree.Navigator
	once sync.Once
}

// New builds the server and registers its routes.
func New(opts Options) (*Server, error) {
	if opts.Catalog == nil || opts.Backend == nil || opts.Tree == nil {
		return nil, errors.New("server: catalog, session backend and tree source are required")
	}
	renderer, err := preview.New(opts.FilesDir)
	if err != nil {
		return nil, err
	}
	if opts.Gauge == (gauge.Config{}) {
		opts.Gauge = gauge.DefaultConfig()
	}
	if err := opts.Gauge.Validate(); err != nil {
		return nil, err
	}

	log := logging.OrNop(opts.Logger)
	s := &Server{
		log:           log,
		catalog:       opts.Catalog,
		backend:       opts.Backend,
		tree:          opts.Tree,
		renderer:      renderer,
		content:       opts.Content.WithDefaults(),
		tracker:       opts.Tracker,
		retention:     opts.VisitRetention,
		gauge:         opts.Gauge,
		gaugeOpts:     opts.GaugeOptions,
		admin:         opts.Admin,
		secureCookies: opts.SecureCookies,
	}
	if s.loginRequired() {
		if s.adminToken, err = generateAdminToken(); err != nil {
			return nil, err
		}
	}
	if s.retention <= 0 {
		s.retention = visits.DefaultRetention
	}
	if opts.Mailer != nil {
		s.contact = contact.NewService(opts.Mailer, log)
	}

	s.selectors = session.NewRegistry(func(string) *selector.Selector {
		return selector.New(s.catalog, log)
	}, nil)
	s.terminals = session.NewRegistry(func(sid string) *terminalSession {
		tlog := log.With(zap.String("sid", sid))
		return &terminalSession{nav: filetree.NewNavigator(filetree.Hooks{
			OnOpenSection: func(path string) { tlog.Debug("terminal opened section", zap.String("path", path)) },
			OnOpenFile:    func(path string) { tlog.Info("terminal opened file", zap.String("path", path)) },
		})}
	}, nil)

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery(), logging.Middleware(log), s.sessionMiddleware())
	if s.tracker != nil {
		r.Use(s.tracker.Middleware(activeRole))
	}

	if dirExists(opts.StaticDir) {
		r.Static("/static", opts.StaticDir)
	}
	if dirExists(opts.AssetsDir) {
		r.Static("/assets", opts.AssetsDir)
	}
	if opts.Metrics {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	s.engine = r
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.engine

	r.GET("/healthz", s.handleHealth)
	r.GET("/privacy", s.handlePrivacy)
	r.GET("/file-tree.json", s.handleTreeDocument)
	r.GET("/files/*filepath", s.handleFile)

	// Profile picker
	pages := r.Group("", s.restorePage())
	pages.GET("/", s.handleSelector)
	pages.GET("/profile", s.handleSelector)

	r.POST("/profile/choose", s.handleChoose)
	r.POST("/profile/cancel", s.handleCancel)
	r.POST("/profile/confirm", s.handleConfirm)
	r.POST("/profile/activate", s.handleActivate)
	r.GET("/profile/ignite", s.handleIgnite)
	r.POST("/profile/switch", s.handleSwitch)

	// Role landing pages
	pages.GET("/recruiter", s.handleRecruiter)
	pages.GET("/portfolio", s.handlePortfolio)
	pages.GET("/certifications/:slug", s.handleCertification)

	// Contact form fragments
	r.GET("/contact-form", s.handleContactForm)
	r.POST("/contact", s.handleContact)

	// Admin terminal and dashboard
	admin := r.Group("/admin", s.restorePage(), s.requireRole(profile.RoleAdmin))
	admin.GET("", s.handleAdmin)
	admin.POST("/terminal/key", s.handleTerminalKey)
	admin.POST("/terminal/open", s.handleTerminalOpen)
	admin.GET("/terminal/viewer", s.handleTerminalViewer)
	admin.GET("/login", s.handleLoginPage)
	admin.POST("/login", s.handleLogin)
	admin.GET("/logout", s.handleLogout)

	data := admin.Group("", s.requireAdminLogin())
	data.GET("/dashboard", s.handleDashboard)
	data.GET("/api/stats", s.handleStats)
	data.GET("/export/stats", s.handleExportStats)
	data.POST("/privacy/cleanup", s.handlePrivacyCleanup)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Engine exposes the gin engine.
func (s *Server) Engine() *gin.Engine { return s.engine }

// StartBackground sweeps idle session state every interval until ctx is
// done. State untouched for longer than ttl is dropped.
func (s *Server) StartBackground(ctx context.Context, ttl, interval time.Duration) {
	session.StartSweeper(ctx, ttl, interval, s.log, s.backend, s.selectors, s.terminals)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func dirExists(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
