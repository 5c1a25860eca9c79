/*
 * file: main.go
 * package: main
 * description:
 *     Entry point: loads configuration, establishes the archive database
 *     connection, wires the match coordinator and HTTP/WebSocket routes,
 *     and runs the server until an interrupt signal requests shutdown.
 */

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/juan10024/bombrelay-server/internal/adapters/db"
	"github.com/juan10024/bombrelay-server/internal/adapters/handlers"
	"github.com/juan10024/bombrelay-server/internal/config"
	"github.com/juan10024/bombrelay-server/internal/infra/repository"
	"github.com/juan10024/bombrelay-server/internal/match"
)

func main() {
	log := logrus.NewEntry(logrus.StandardLogger())
	cfg := config.Load()

	dbConn, err := db.Initialize(db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
	})
	var history *repository.GormHistoryRepository
	if err != nil {
		log.WithError(err).Warn("archive database unavailable, running without match history")
	} else {
		history = repository.NewGormHistoryRepository(dbConn)
		log.Info("archive database connection established")
	}

	// Coordinator.Run cycles through matches forever; a nil history is a
	// valid, no-op archival choice, matching the interface's contract.
	var recorder match.HistoryRecorder
	if history != nil {
		recorder = history
	}
	coordinator := match.NewCoordinator(cfg.BombCount, recorder, log)

	ctx, cancel := context.WithCancel(context.Background())
	go coordinator.Run(ctx)

	intakeHandler := handlers.NewIntakeHandler(coordinator.JoinRequests(), log)

	router := mux.NewRouter()
	router.HandleFunc("/ws/join", intakeHandler.Join)
	if history != nil {
		statsHandler := handlers.NewStatsHandler(history, log)
		router.HandleFunc("/api/stats/ranking", statsHandler.GetRanking).Methods(http.MethodGet)
		router.HandleFunc("/api/stats/general", statsHandler.GetGeneralStats).Methods(http.MethodGet)
		router.HandleFunc("/api/history/{matchID}", statsHandler.GetMatchHistory).Methods(http.MethodGet)
	}
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.AssetDir)))

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      corsMiddleware.Handler(router),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr).Info("http server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
