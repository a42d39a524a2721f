package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/headless-pm/team-collab/internal/api"
	"github.com/headless-pm/team-collab/internal/conversation"
	"github.com/headless-pm/team-collab/internal/database"
	"github.com/headless-pm/team-collab/internal/mcp"
	"github.com/headless-pm/team-collab/internal/metrics"
	"github.com/headless-pm/team-collab/internal/models"
	"github.com/headless-pm/team-collab/internal/service"
	"github.com/headless-pm/team-collab/pkg/auth"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	db, err := database.NewDatabase(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// The gauge needs the store and the journal needs the metrics, so the
	// store is reached through a closure.
	var store *conversation.Store
	m := metrics.New(func() int { return store.Partitions() })

	journal := service.NewJournalWorker(db, service.JournalOptions{
		Workers:    cfg.Journal.Workers,
		QueueSize:  cfg.Journal.QueueSize,
		MaxRetries: cfg.Journal.MaxRetries,
		Logger:     logger,
		OnFailure:  m.JournalFailed,
	})
	store = conversation.New(conversation.Options{Journal: journal, Logger: logger})

	persisted, err := db.ListMessages()
	if err != nil {
		return fmt.Errorf("failed to load conversations: %w", err)
	}
	logger.Info("conversations restored", "messages", store.Restore(persisted), "partitions", store.Partitions())

	journal.Start()
	defer journal.Stop()

	tasks := service.NewTaskService(db, logger)
	tasks.OnStatusChange(func(s models.TaskStatus) { m.TaskStatusChanged(string(s)) })

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn("JWT_SECRET not set, using a temporary secret; tokens will not survive a restart")
	}
	jwtManager := auth.NewJWTManager(secret, cfg.Auth.TokenTTL)

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(db, store, tasks, jwtManager, m, logger)
	mcpServer := mcp.NewMCPServer(db, store, tasks, m, logger)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.SetupRouter(handler, mcpServer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr(), "driver", cfg.Database.Driver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
