package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mikeboe/agent-helper/pkg/clients"
	"github.com/mikeboe/agent-helper/pkg/config"
	"github.com/mikeboe/agent-helper/pkg/database"
	"github.com/mikeboe/agent-helper/pkg/report"
	"github.com/mikeboe/agent-helper/pkg/server"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))
	cfg := config.Load()
	ctx := context.Background()

	pipeline, err := clients.ReportPipeline(ctx, cfg)
	if err != nil {
		slog.Error("Failed to init report pipeline", "error", err)
		os.Exit(1)
	}

	graph, closeGraph, err := clients.TripGraph(ctx, cfg)
	if err != nil {
		slog.Error("Failed to init trip planner", "error", err)
		os.Exit(1)
	}
	defer closeGraph()

	// Persistence is optional; without it reports only live in the session registry.
	var db *database.PostgresDB
	if cfg.DatabaseURL != "" {
		db, err = database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.InitSchema(ctx); err != nil {
			slog.Error("Failed to initialize schema", "error", err)
			os.Exit(1)
		}
	}

	sessions := server.NewRegistry(cfg.SessionTTL)
	go sessions.RunJanitor(ctx, max(cfg.SessionTTL/2, time.Second))

	svc := server.NewService(db,
		func(logger *slog.Logger, notify func(string)) server.ReportRunner {
			return pipeline.WithHooks(logger, notify)
		},
		sessions, graph, clients.RouteAssembler(cfg))
	svc.DesiredCount = cfg.DesiredCount
	svc.Window = report.ParseWindow(cfg.Window, report.WindowWeek)
	handler := server.NewHandler(svc)
	go handler.MCP.RunJanitor(ctx, 10*time.Minute)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Mcp-Session-Id"},
		ExposeHeaders: []string{"Content-Length", "Mcp-Session-Id"},
	}))

	handler.RegisterRoutes(r)

	slog.Info("Server starting", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
