package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	app := cli.Setup(log.ComponentApp)
	cfg, logger := app.Config, app.Logger

	// The export queue is optional; without it transactions stay local
	// and the periodic worker scan picks them up later.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without live export", log.FieldError, err.Error())
			amqpClient = nil
		} else {
			logger.Info("AMQP export queue connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, transactions will not be exported")
	}

	ledger := services.NewLedgerService(app.Storage, amqpClient, logger)
	accounts := services.NewAccountService(app.Storage, logger)
	sessions := auth.NewSessions(cfg.SessionKey, cfg.SecureCookies, logger)

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:                   ":" + cfg.Port,
		SessionKey:             cfg.SessionKey,
		LoginRequestsPerMinute: cfg.LoginRequestsPerMinute,
		SecureCookies:          cfg.SecureCookies,
	}, ledger, accounts, sessions, logger)
	if err != nil {
		logger.Error("failed to build HTTP server", log.FieldError, err.Error())
		os.Exit(1)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", log.FieldError, err.Error())
		}
	}()

	logger.Info("listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", log.FieldError, err.Error())
		os.Exit(1)
	}

	if err := ledger.Close(); err != nil {
		logger.Error("cleanup error", log.FieldError, err.Error())
	}
	logger.Info("stopped", log.FieldOperation, log.OpShutdown)
}
