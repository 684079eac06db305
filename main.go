package main

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
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"websiteemas/pkg/cache"
	"websiteemas/pkg/config"
	"websiteemas/pkg/goldprice"
	"websiteemas/pkg/logging"
	"websiteemas/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logg := logging.New(cfg.Log.Level, cfg.IsDevelopment())
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// `./websiteemas migrate` runs migrations and seeding then exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		db, err := openDB(cfg, logg)
		if err != nil {
			logg.WithError(err).Fatal("database connection failed")
		}
		defer closeDB(db)
		if err := migrateAndSeed(db, logg); err != nil {
			logg.WithError(err).Fatal("migration failed")
		}
		fmt.Println("migration and seeding completed")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, logg); err != nil {
		logg.WithError(err).Fatal("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logrus.Logger) error {
	db, err := initDB(cfg, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer closeDB(db)

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	rc, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		// redis only caches and locks; run without it
		logg.WithError(err).Warn("redis unavailable, continuing without cache")
		rc = nil
	}
	defer rc.Close()

	client := goldprice.NewClient(cfg.Gold.APIURL, cfg.Gold.APIKey, cfg.Gold.Timeout)
	s, err := newServer(cfg, logg, db, store, rc, client, time.Now)
	if err != nil {
		return err
	}
	s.scheduler.Start()

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           s.newRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logg.WithFields(logrus.Fields{"port": cfg.Server.Port, "env": cfg.Server.Env}).Info("server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.scheduler.Stop()
		return err
	case <-ctx.Done():
	}

	logg.Info("shutting down")
	s.scheduler.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logg.Info("server stopped")
	return nil
}

// newServer wires the gold poller and scheduler around already opened
// resources. now is the clock for sessions, quotas and the schedule.
func newServer(cfg *config.Config, logg *logrus.Logger, db *gorm.DB, store storage.Store, rc *cache.Redis, source goldprice.Source, now func() time.Time) (*server, error) {
	loc, err := time.LoadLocation(cfg.Gold.Timezone)
	if err != nil {
		return nil, fmt.Errorf("GOLD_TIMEZONE: %w", err)
	}
	quota := goldprice.NewQuota(db, cfg.Gold.ManualLimit, loc, now)
	poller := goldprice.NewPoller(db, source, quota, rc, logg)
	sched, err := goldprice.NewScheduler(poller, goldprice.SchedulerOptions{
		Enabled:  cfg.Gold.Enabled,
		Hours:    cfg.Gold.Hours,
		Location: loc,
		Now:      now,
		Locker:   rc,
	}, logg)
	if err != nil {
		return nil, err
	}
	return &server{
		db:        db,
		cfg:       cfg,
		log:       logg,
		store:     store,
		poller:    poller,
		scheduler: sched,
		loc:       loc,
		now:       now,
	}, nil
}
