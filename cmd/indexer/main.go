package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hapi-labs/hapi-indexer/config"
	"github.com/hapi-labs/hapi-indexer/db"
	"github.com/hapi-labs/hapi-indexer/indexer"
	"github.com/hapi-labs/hapi-indexer/logging"
	"github.com/hapi-labs/hapi-indexer/push"
	"github.com/hapi-labs/hapi-indexer/repository"
)

func main() {
	logger := logging.New()

	cfg, err := config.ReadConfigFromFile("config.yml")
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
	if err != nil {
		logger.WithError(err).Fatal("can't connect to database and apply migrations")
	}
	defer dbConn.Close()
	repo := repository.NewRepo(dbConn)

	if cfg.Metrics != nil {
		router := chi.NewRouter()
		router.Use(middleware.Recoverer)
		router.Handle("/metrics", promhttp.Handler())
		router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		go func() {
			err := http.ListenAndServe(cfg.Metrics.Host, router)
			if err != nil {
				logger.WithError(err).Fatal("can't start listener for prometheus metrics")
			}
		}()
	}

	client, err := indexer.NewClient(logger.WithField("network", cfg.Indexer.Network), cfg.Indexer)
	if err != nil {
		logger.WithError(err).Fatal("can't initialize network client")
	}
	pusher := push.NewWebhookPusher(logger.WithField("service", "pusher"), cfg.Push)
	ix := indexer.New(logger, client, pusher, repo.Cursors, cfg.Indexer)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		<-c
		logger.Warn("caught CTRL-C, gracefully terminating")
		cancel()
	}()

	if err := ix.Run(ctx); err != nil && err != context.Canceled {
		logger.WithError(err).Fatal("indexing loop terminated")
	}
}
