package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"shopbot/internal/admin"
	"shopbot/internal/bus"
	"shopbot/internal/config"
	"shopbot/internal/convo"
	"shopbot/internal/domain"
	"shopbot/internal/handler"
	"shopbot/internal/metrics"
	"shopbot/internal/notify"
	"shopbot/internal/provider"
	"shopbot/internal/replies"
	"shopbot/internal/store"
	"shopbot/internal/webhook"
)

var (
	version    = "0.3.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "shopbot",
		Short: "Shopbot: commerce chat fulfillment service",
		Long:  "Shopbot serves the chat fulfillment webhook and the admin dashboard API for the shop assistant.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.shopbot/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfig() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
	}
	return cfg
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config and data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the fulfillment webhook and admin API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// .env keeps API keys out of the config file in development.
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded .env file")
	}

	cfg := loadConfig()
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger = newLogger(cfg.General.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := config.ExpandPath(cfg.Store.DBPath)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return err
	}
	catalog, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer catalog.Close()
	if cfg.Store.Seed {
		if err := catalog.Seed(ctx); err != nil {
			return fmt.Errorf("seed store: %w", err)
		}
	}

	contexts, closeContexts, err := buildContextStore(cfg)
	if err != nil {
		return err
	}
	defer closeContexts()

	replyCatalog, err := replies.Load(cfg.Replies.Dir, logger)
	if err != nil {
		return fmt.Errorf("load replies: %w", err)
	}

	m := metrics.New(cfg.Metrics.Namespace)

	fallback, err := provider.BuildChain(cfg, m, logger)
	if err != nil {
		logger.Warn("no fallback providers available", "err", err)
		fallback = nil
	}

	eventBus := bus.New(100, logger)
	defer eventBus.Close()

	dispatcher := handler.New(handler.Deps{
		Catalog:  catalog,
		Contexts: contexts,
		Bus:      eventBus,
		Fallback: fallback,
		Replies:  replyCatalog,
		Metrics:  m,
		Logger:   logger,
	})

	if cfg.Notifications.Enabled {
		notifiers := buildNotifiers(cfg)
		if len(notifiers) > 0 {
			worker := notify.NewWorker(eventBus, catalog, notifiers, m, logger)
			go worker.Run(ctx)
		}
	}

	webhookSrv := webhook.NewServer(webhook.Config{
		Host:    cfg.Webhook.Host,
		Port:    cfg.Webhook.Port,
		Path:    cfg.Webhook.Path,
		Secret:  cfg.Webhook.Secret,
		Logger:  logger,
		Metrics: m,
	}, dispatcher)

	errCh := make(chan error, 2)
	go func() { errCh <- webhookSrv.Start(ctx) }()

	if cfg.Admin.Enabled {
		adminSrv := admin.NewServer(admin.Config{
			Host:    cfg.Admin.Host,
			Port:    cfg.Admin.Port,
			Logger:  logger,
			Metrics: m,
		}, catalog, eventBus)
		go func() { errCh <- adminSrv.Start(ctx) }()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		// Let the servers drain before the deferred closes run.
		time.Sleep(100 * time.Millisecond)
		return nil
	case err := <-errCh:
		return err
	}
}

func buildContextStore(cfg *config.Config) (domain.ContextStore, func(), error) {
	ttl := time.Duration(cfg.Context.TTLSeconds) * time.Second
	switch cfg.Context.Backend {
	case "", "memory":
		return convo.NewMemoryContextStore(ttl), func() {}, nil
	case "redis":
		rs, err := convo.NewRedisContextStore(convo.RedisConfig{
			Addr:     cfg.Context.RedisAddr,
			Password: cfg.Context.RedisPass,
			DB:       cfg.Context.RedisDB,
			TTL:      ttl,
			Logger:   logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return rs, func() { rs.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown context backend %q", cfg.Context.Backend)
	}
}

func buildNotifiers(cfg *config.Config) []domain.Notifier {
	var notifiers []domain.Notifier
	if cfg.Notifications.Email.Enabled {
		notifiers = append(notifiers, notify.NewEmailNotifier(notify.EmailConfig{
			Host:     cfg.Notifications.Email.SMTPHost,
			Port:     cfg.Notifications.Email.SMTPPort,
			Username: cfg.Notifications.Email.Username,
			Password: cfg.Notifications.Email.Password,
			From:     cfg.Notifications.Email.From,
		}))
	}
	if cfg.Notifications.SMS.Enabled {
		notifiers = append(notifiers, notify.NewSMSNotifier(notify.SMSConfig{
			BaseURL: cfg.Notifications.SMS.BaseURL,
			APIKey:  cfg.Notifications.SMS.APIKey,
		}))
	}
	return notifiers
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show system status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Info("config", "path", cfgPath, "loaded", false)
				cfg = config.Defaults()
			} else {
				logger.Info("config", "path", cfgPath, "loaded", true)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			chain, err := provider.BuildChain(cfg, nil, logger)
			if err != nil {
				logger.Info("fallback", "healthy", false, "err", err)
			} else if herr := chain.Healthy(ctx); herr != nil {
				logger.Info("fallback", "name", chain.Name(), "healthy", false, "err", herr)
			} else {
				logger.Info("fallback", "name", chain.Name(), "healthy", true)
			}

			dbPath := config.ExpandPath(cfg.Store.DBPath)
			if _, err := os.Stat(dbPath); err != nil {
				logger.Info("store", "path", dbPath, "exists", false)
			} else {
				logger.Info("store", "path", dbPath, "exists", true)
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("shopbot", version)
		},
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
