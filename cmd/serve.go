package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zachkp/moto-portfolio/internal/config"
	"github.com/Zachkp/moto-portfolio/internal/contact"
	"github.com/Zachkp/moto-portfolio/internal/db"
	"github.com/Zachkp/moto-portfolio/internal/logging"
	"github.com/Zachkp/moto-portfolio/internal/server"
	"github.com/Zachkp/moto-portfolio/internal/session"
	"github.com/Zachkp/moto-portfolio/internal/visits"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portfolio web server",
	Long: `Starts the portfolio web server. Session profiles are kept in memory or
in SQLite, visits are tracked in SQLite, and the server shuts down
gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if cfg.Server.Mode != "" {
			gin.SetMode(cfg.Server.Mode)
		}

		log, err := logging.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		defer log.Sync()

		return serve(cfg, log)
	},
}

func serve(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := cfg.Catalog()
	if err != nil {
		return fmt.Errorf("building profile catalog: %w", err)
	}

	// Open database.
	var database *db.DB
	if cfg.Session.Driver == config.DriverSQLite || cfg.Visits.Enabled {
		database, err = db.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()
	}

	var backend session.Backend
	switch cfg.Session.Driver {
	case config.DriverSQLite:
		backend = session.NewSQLite(database)
	default:
		backend = session.NewMemory()
	}

	var tracker *visits.Tracker
	if cfg.Visits.Enabled {
		tracker, err = visits.NewTracker(database, cfg.Visits.Salt, log)
		if err != nil {
			return fmt.Errorf("creating visit tracker: %w", err)
		}
		tracker.StartCleanup(ctx, cfg.Visits.Retention, cfg.Visits.CleanupInterval)
		defer tracker.Wait()
	}

	if cfg.Admin.Password == "" {
		log.Warn("no admin password set, visitor data is protected by the admin profile only")
	}
	if !cfg.SMTP.Configured() {
		log.Warn("SMTP credentials not configured, contact messages will fail")
	}

	srv, err := server.New(server.Options{
		Catalog:        catalog,
		Backend:        backend,
		Tree:           treeSource(cfg),
		FilesDir:       cfg.Files.Dir,
		Content:        cfg.Content,
		Gauge:          cfg.Gauge,
		Mailer:         contact.NewSMTPMailer(cfg.SMTP),
		Tracker:        tracker,
		VisitRetention: cfg.Visits.Retention,
		Admin:          server.AdminCredentials{Username: cfg.Admin.Username, Password: cfg.Admin.Password},
		StaticDir:      cfg.Server.StaticDir,
		AssetsDir:      cfg.Server.AssetsDir,
		Metrics:        cfg.Metrics.Enabled,
		SecureCookies:  cfg.Server.SecureCookies,
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.StartBackground(ctx, cfg.Session.TTL, cfg.Session.SweepInterval)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("portfolio server starting",
			zap.String("addr", httpServer.Addr),
			zap.String("version", Version),
			zap.String("session_driver", cfg.Session.Driver),
			zap.String("tree_source", cfg.Tree.Source),
			zap.Int("profiles", catalog.Len()),
		)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "override the listen port")
	rootCmd.AddCommand(serveCmd)
}
