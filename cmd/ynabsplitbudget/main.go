package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/dnbasta/ynab-split-budget/internal/adapters/ynab"
	"github.com/dnbasta/ynab-split-budget/internal/core/services"
	"github.com/dnbasta/ynab-split-budget/internal/handlers"
	"github.com/dnbasta/ynab-split-budget/internal/middleware"
	"github.com/dnbasta/ynab-split-budget/internal/repositories/file"
	"github.com/dnbasta/ynab-split-budget/internal/utils"
	"github.com/dnbasta/ynab-split-budget/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path of config YAML to use")
	fetchOnly := flag.Bool("fetch", false, "fetch charges across both budgets without applying")
	process := flag.Bool("process", false, "fetch and process charges across both budgets")
	syncKnowledge := flag.Bool("sync", false, "update server knowledge to current value")
	serve := flag.Bool("serve", false, "run the HTTP API, with scheduled cycles when configured")
	discover := flag.Bool("discover", false, "resolve budget and account ids from their names (reads YSB_TOKEN)")
	budgetName := flag.String("budget", "", "budget name, for -discover")
	accountName := flag.String("account", "", "shared account name, for -discover")
	flag.Parse()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// discovery is a setup helper used before a config file exists
	if *discover {
		token := os.Getenv("YSB_TOKEN")
		if token == "" || *budgetName == "" || *accountName == "" {
			logger.Error("Discovery needs YSB_TOKEN and the -budget and -account names")
			os.Exit(2)
		}
		info, err := ynab.FindSharedAccount(context.Background(), token, *budgetName, *accountName)
		if err != nil {
			logger.Error("Account discovery failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		printJSON(info)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	reconciler := buildReconciler(cfg)
	ctx := middleware.WithLogger(context.Background(), logger)

	switch {
	case *serve:
		runServer(cfg, reconciler, logger)
	case *process:
		result, err := reconciler.Process(ctx)
		if err != nil {
			logger.Error("Process cycle failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		printJSON(result)
	case *fetchOnly:
		result, err := reconciler.Fetch(ctx)
		if err != nil {
			logger.Error("Fetch cycle failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		printJSON(result)
	case *syncKnowledge:
		cursors, err := reconciler.SyncKnowledge(ctx)
		if err != nil {
			logger.Error("Knowledge sync failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Server knowledge updated",
			slog.Int64("user_1", cursors.User1),
			slog.Int64("user_2", cursors.User2))
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func buildReconciler(cfg *config.Config) *services.ReconcileService {
	user1 := cfg.User1.User()
	user2 := cfg.User2.User()

	return services.NewReconcileService(
		user1, user2,
		ynab.NewClient(cfg.User1.Token, user1),
		ynab.NewClient(cfg.User2.Token, user2),
		file.NewCursorRepository(cfg.CursorPath),
		cfg.FlagColor,
		utils.Fingerprint,
	)
}

func runServer(cfg *config.Config, reconciler *services.ReconcileService, logger *slog.Logger) {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	handlers.RegisterRoutes(r, cfg, reconciler, logger)

	if cfg.Schedule != "" {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(cfg.Schedule, func() {
			ctx := middleware.WithLogger(context.Background(), logger.With(slog.String("trigger", "schedule")))
			if _, err := reconciler.Process(ctx); err != nil {
				logger.Error("Scheduled cycle failed", slog.String("error", err.Error()))
			}
		})
		if err != nil {
			logger.Error("Invalid schedule", slog.String("schedule", cfg.Schedule), slog.String("error", err.Error()))
			os.Exit(1)
		}
		scheduler.Start()
		defer scheduler.Stop()
		logger.Info("Scheduler started", slog.String("schedule", cfg.Schedule))
	}

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}
