package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/dharmasync/internal/assistant"
	"github.com/sandeepkv93/dharmasync/internal/auth"
	"github.com/sandeepkv93/dharmasync/internal/httpapi"
	"github.com/sandeepkv93/dharmasync/internal/storage"
	"github.com/sandeepkv93/dharmasync/internal/tasks"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireAuthSecret(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, true)
	if err != nil {
		return err
	}
	defer repo.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	svc := tasks.NewService(repo,
		tasks.WithLocation(loc),
		tasks.WithLogger(logger.Named("tasks")),
	)

	issuer, err := auth.NewIssuer([]byte(cfg.Auth.Secret), cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	if err != nil {
		return err
	}
	deps := httpapi.Deps{
		Tasks:    svc,
		Accounts: auth.NewAccounts(repo, issuer, logger.Named("auth")),
		Issuer:   issuer,
		Logger:   logger.Named("http"),
	}
	if cfg.Assistant.APIKey != "" {
		guide, err := assistant.NewGuide(ctx, cfg.Assistant.APIKey, cfg.Assistant.Model, logger.Named("assistant"))
		if err != nil {
			logger.Warn("assistant disabled", zap.Error(err))
		} else {
			deps.Assistant = guide
		}
	}

	server := httpapi.NewServer(cfg.HTTP, httpapi.NewRouter(deps), logger.Named("http"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown requested")
		return nil
	})
	logger.Info("dharmad started",
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("store", cfg.Store.Driver),
		zap.String("timezone", loc.String()),
		zap.Bool("assistant", deps.Assistant != nil),
	)
	return g.Wait()
}

func openRepository(ctx context.Context, migrate bool) (storage.Repository, error) {
	return storage.Open(ctx, storage.OpenOptions{
		Driver:   cfg.Store.Driver,
		DSN:      cfg.Store.DSN,
		Database: cfg.Store.Database,
		Migrate:  migrate,
	})
}
