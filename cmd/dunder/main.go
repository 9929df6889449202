package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArkLabsHQ/dunder/internal/config"
	"github.com/ArkLabsHQ/dunder/internal/core/application"
	"github.com/ArkLabsHQ/dunder/internal/infrastructure/db"
	"github.com/ArkLabsHQ/dunder/internal/infrastructure/lnd"
	scheduler "github.com/ArkLabsHQ/dunder/internal/infrastructure/scheduler/gocron"
	"github.com/ArkLabsHQ/dunder/internal/interface/web"
	"github.com/getsentry/sentry-go"
	sentrylogrus "github.com/getsentry/sentry-go/logrus"
	log "github.com/sirupsen/logrus"
)

// nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	sentryDsn = ""
)

const lndConnectTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.SetLevel(log.Level(cfg.LogLevel))

	sentryEnabled := !cfg.DisableTelemetry && sentryDsn != ""

	if sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryDsn,
			Environment:      "prod",
			AttachStacktrace: true,
			Release:          version,
		}); err != nil {
			log.Fatal(err)
		}

		sentryLevels := []log.Level{log.ErrorLevel, log.FatalLevel, log.PanicLevel}
		sentryHook, err := sentrylogrus.New(sentryLevels, sentry.ClientOptions{
			Dsn:              sentryDsn,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Fatal(err)
		}

		log.AddHook(sentryHook)

		defer func() {
			sentry.Flush(5 * time.Second)
			sentryHook.Flush(5 * time.Second)
		}()
	}

	log.Info("starting dunder...")

	dbConfig := []any{cfg.Datadir}
	if cfg.DbType == "badger" {
		dbConfig = append(dbConfig, log.StandardLogger())
	}
	dbSvc, err := db.NewService(db.ServiceConfig{
		DbType:   cfg.DbType,
		DbConfig: dbConfig,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to open db")
	}

	lnSvc := lnd.NewService()
	ctx, cancel := context.WithTimeout(context.Background(), lndConnectTimeout)
	err = lnSvc.Connect(ctx, *cfg.GetLnConnectionOpts())
	cancel()
	if err != nil {
		log.WithError(err).Fatal("failed to connect to lnd")
	}

	buildInfo := application.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	appSvc, err := application.NewService(
		buildInfo, cfg.AppConfig(), dbSvc, lnSvc, scheduler.NewScheduler(),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to init application service")
	}
	if err := appSvc.Start(); err != nil {
		log.WithError(err).Fatal("failed to start application service")
	}

	svc, err := web.NewService(web.Config{HTTPPort: cfg.HTTPPort}, appSvc, version, sentryEnabled)
	if err != nil {
		log.WithError(err).Fatal("failed to init interface service")
	}

	stop := func() {
		svc.Stop()
		appSvc.Stop()
		lnSvc.Disconnect()
		dbSvc.Close()
	}
	log.RegisterExitHandler(stop)

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		log.Fatal(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)
}
