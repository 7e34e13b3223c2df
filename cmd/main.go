package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MuchTitan/go-log-transport/internal/config"
	"github.com/MuchTitan/go-log-transport/internal/delivery"
	"github.com/MuchTitan/go-log-transport/internal/history"
	"github.com/MuchTitan/go-log-transport/internal/logging"
	"github.com/MuchTitan/go-log-transport/internal/metrics"
	"github.com/MuchTitan/go-log-transport/internal/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

type FlagOptions struct {
	configPath *string
	once       *bool
}

var opts = FlagOptions{}

func init() {
	opts.configPath = flag.String("cfg", "/app/cfg.yaml", "provided the path to your config file")
	opts.once = flag.Bool("once", false, "run a single transport cycle and exit")
	flag.Parse()
}

func main() {
	cfg, err := config.Load(*opts.configPath)
	if err != nil {
		panic(err)
	}

	logCloser, err := logging.Setup(logrus.StandardLogger(), cfg.System.LoggingOptions())
	if err != nil {
		panic(err)
	}
	defer logCloser.Close()

	client := delivery.NewClient()
	defer client.CloseIdleConnections()

	coordinatorOpts := []transport.Option{transport.WithObserver(metrics.Observer{})}

	var (
		repo    history.Repository
		journal *history.Journal
	)
	if cfg.System.HistoryFile != "" {
		repo, err = openHistory(cfg.System.HistoryFile)
		if err != nil {
			logrus.WithError(err).Fatal("could not open delivery history")
		}
		journal = history.NewJournal(repo)
		coordinatorOpts = append(coordinatorOpts, transport.WithObserver(journal))
	}

	coordinator, err := transport.NewCoordinator(cfg.Settings(), client, coordinatorOpts...)
	if err != nil {
		logrus.WithError(err).Fatal("invalid transport settings")
	}
	prepared := coordinator.Prepare()

	if *opts.once {
		<-prepared
		coordinator.Run()
		closeHistory(repo, journal, cfg.System.HistoryRetentionDays)
		return
	}

	var metricsServer *http.Server
	if cfg.System.MetricsListen != "" {
		metricsServer = startMetrics(cfg.System.MetricsListen)
	}

	scheduler := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(cron.PrintfLogger(logrus.StandardLogger()))),
	)
	if _, err := scheduler.AddJob(cfg.Transport.Schedule, coordinator); err != nil {
		logrus.WithError(err).WithField("schedule", cfg.Transport.Schedule).Fatal("invalid schedule")
	}
	if journal != nil {
		retention := cfg.System.HistoryRetentionDays
		if _, err := scheduler.AddFunc(cfg.System.HistorySchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			journal.Maintain(ctx, retention)
		}); err != nil {
			logrus.WithError(err).WithField("schedule", cfg.System.HistorySchedule).Fatal("invalid history schedule")
		}
	}

	logrus.WithFields(logrus.Fields{
		"server":   cfg.Transport.Server,
		"schedule": cfg.Transport.Schedule,
		"targets":  len(coordinator.Trackers()),
	}).Info("Starting log transport")
	scheduler.Start()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logrus.Info("Stopping log transport")
	// waits for a running cycle to finish
	<-scheduler.Stop().Done()

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(ctx); err != nil {
			logrus.WithError(err).Warn("metrics server shutdown failed")
		}
		cancel()
	}
	closeHistory(repo, journal, cfg.System.HistoryRetentionDays)
}

func openHistory(path string) (history.Repository, error) {
	repo, err := history.NewSQLiteRepository(path)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := repo.CreateTables(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

func closeHistory(repo history.Repository, journal *history.Journal, retentionDays int) {
	if repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	journal.Maintain(ctx, retentionDays)
	if err := repo.Close(); err != nil {
		logrus.WithError(err).Error("could not close db repository")
	}
}

func startMetrics(addr string) *http.Server {
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logrus.WithError(err).Fatal("could not register metrics")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("metrics server stopped")
		}
	}()
	logrus.WithField("addr", addr).Info("Serving metrics")
	return srv
}
