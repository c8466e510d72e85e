// Package main is the entry point for the messaging API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/temitope-ola/ProdTalent-sub003/internal/config"
	"github.com/temitope-ola/ProdTalent-sub003/internal/contact"
	"github.com/temitope-ola/ProdTalent-sub003/internal/conversation"
	"github.com/temitope-ola/ProdTalent-sub003/internal/handler"
	"github.com/temitope-ola/ProdTalent-sub003/internal/middleware"
	"github.com/temitope-ola/ProdTalent-sub003/internal/notify"
	"github.com/temitope-ola/ProdTalent-sub003/internal/service"
	"github.com/temitope-ola/ProdTalent-sub003/internal/store"
	"github.com/temitope-ola/ProdTalent-sub003/pkg/logger"
	"github.com/temitope-ola/ProdTalent-sub003/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting messaging API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "prodtalent-messaging", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the document store.
	st, err := store.Open(cfg.StorePath, log)
	if err != nil {
		log.Error("failed to open store", zap.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	// Connect the notification transport.
	natsClient, err := notify.Connect(notify.ClientConfig{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer natsClient.Close()

	sender := notify.NewNATSSender(natsClient)
	if err := sender.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure notifications stream", zap.Error(err))
		os.Exit(1)
	}

	// Wire the messaging core.
	resolver := contact.NewResolver(st, log)
	tracker := conversation.NewTracker(st, log)
	dispatcher := notify.NewDispatcher(resolver, sender, log)
	messagingSvc := service.NewMessagingService(st, resolver, tracker, dispatcher, log)

	// Handlers.
	healthHandler := handler.NewHealthHandler(st, natsClient)
	messageHandler := handler.NewMessageHandler(messagingSvc, log)
	conversationHandler := handler.NewConversationHandler(messagingSvc, log)
	contactHandler := handler.NewContactHandler(resolver, st, log)

	// Router.
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/messages", messageHandler.Send)

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversationHandler.List)
			r.Post("/seed", conversationHandler.Seed)

			r.Route("/{counterpartyID}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Post("/read", conversationHandler.MarkRead)
			})
		})

		r.Get("/contacts/{id}", contactHandler.Get)

		r.With(middleware.RequireScope("profiles:write")).
			Put("/identities/{partition}/{id}", contactHandler.Upsert)
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	// Let in-flight notification dispatches finish before the transport
	// goes away.
	dispatcher.Wait()

	log.Info("server stopped")
}
