// @title           Base42 Todo API
// @version         1.0
// @description     Todo CRUD API with swappable backing store.
// @host            localhost:8080
// @BasePath        /api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"base42/internal/app"
	"base42/internal/config"
	"base42/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("todo-api", "", "", nil).WithError(err).Fatal("config")
	}
	log := logger.New("todo-api", cfg.Log.Level, cfg.Log.Format, os.Stdout)
	log.WithField("store", cfg.Store.Driver).Info("config loaded")

	application, err := app.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("app init")
	}
	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTP.Port,
		Handler:      application.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Duration(),
	}

	go func() {
		log.WithField("addr", server.Addr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown")
	}

	if err := application.Close(ctx); err != nil {
		log.WithError(err).Error("app close")
	}
}
