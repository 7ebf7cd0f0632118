package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"reviewrouter/internal/billing"
	"reviewrouter/internal/blobstore"
	"reviewrouter/internal/config"
	"reviewrouter/internal/distribute"
	"reviewrouter/internal/document"
	"reviewrouter/internal/generate"
	"reviewrouter/internal/httpapi"
	"reviewrouter/internal/survey"
)

var serveAddr string

// serveCmd runs the HTTP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := blobstore.OpenDB(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := document.NewRepository(blobstore.New(db, blobstore.DefaultNamespace), logger)
	uploads := blobstore.New(db, blobstore.UploadsNamespace)
	subscriptions := blobstore.New(db, blobstore.SubscriptionsNamespace)

	engine := distribute.NewEngine(repo, logger)
	collector := generate.NewCollector(cfg.GetForwardingTimeout(), logger)

	var generator generate.TextGenerator
	switch cfg.AI.Provider {
	case "sdk":
		generator = generate.NewGenAIClient(logger)
	default:
		generator = generate.NewRestClient(cfg.AI.BaseURL, cfg.GetAITimeout(), logger)
	}

	generateSvc := generate.NewService(repo, collector, generator, logger)
	surveySvc := survey.NewService(repo, cfg.GetForwardingTimeout(), logger)
	billingSvc := billing.NewService(billing.Options{
		SecretKey:     cfg.Billing.SecretKey,
		WebhookSecret: cfg.Billing.WebhookSecret,
		PriceBasic:    cfg.Billing.PriceBasicMonthly,
		PricePro:      cfg.Billing.PriceProMonthly,
		TrialDays:     cfg.Billing.TrialDays,
		BaseURL:       cfg.Server.BaseURL,
	}, subscriptions, logger)

	api := httpapi.NewServer(repo, engine, generateSvc, surveySvc, billingSvc, uploads, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.Router(),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("db", cfg.Store.DatabasePath))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})

	// Log level follows the config file without a restart.
	g.Go(func() error {
		return config.Watch(ctx, configPath, logger, func(updated *config.Config) {
			if lvl, err := zapcore.ParseLevel(updated.Logging.Level); err == nil {
				logLevel.SetLevel(lvl)
			}
		})
	})

	return g.Wait()
}
