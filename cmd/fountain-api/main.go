package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fountain-ink/fountain-backend/internal/auth"
	"github.com/fountain-ink/fountain-backend/internal/chain"
	"github.com/fountain-ink/fountain-backend/internal/config"
	"github.com/fountain-ink/fountain-backend/internal/database"
	"github.com/fountain-ink/fountain-backend/internal/drafts"
	"github.com/fountain-ink/fountain-backend/internal/logging"
	"github.com/fountain-ink/fountain-backend/internal/publish"
	"github.com/fountain-ink/fountain-backend/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "fountain-api",
		Short: "Fountain draft sync and publish backend",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path for cloud drafts")
	cmd.PersistentFlags().String("local-path", defaults.GetString("local.path"), "BoltDB path for guest drafts")
	cmd.PersistentFlags().String("storage-url", defaults.GetString("storage.url"), "Content storage base URL")
	cmd.PersistentFlags().String("ledger-url", defaults.GetString("ledger.url"), "Ledger node base URL")
	cmd.PersistentFlags().String("campaign-url", defaults.GetString("campaign.url"), "Campaign provider base URL")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("session-secret", "", "Session signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "local.path", "local-path")
	bindFlag(cmd, "storage.url", "storage-url")
	bindFlag(cmd, "ledger.url", "ledger-url")
	bindFlag(cmd, "campaign.url", "campaign-url")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "session.signing_secret", "session-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		// An explicitly named config file must exist; without one the env
		// and flag bindings are enough.
		if cfgFile != "" {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	localStore, err := drafts.OpenLocalStore(appConfig.LocalStorePath)
	if err != nil {
		return err
	}
	defer localStore.Close()

	cloudStore, err := drafts.NewCloudStore(db)
	if err != nil {
		return err
	}

	draftService, err := drafts.NewService(drafts.ServiceConfig{
		Local:      localStore,
		Cloud:      cloudStore,
		Clock:      time.Now,
		IDProvider: drafts.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	sessionManager, err := auth.NewSessionManager(auth.SessionManagerConfig{
		SigningSecret: []byte(appConfig.SessionSecret),
		Issuer:        appConfig.SessionIssuer,
	})
	if err != nil {
		return err
	}

	orchestrator, err := publish.NewOrchestrator(publish.OrchestratorConfig{
		Storage:  chain.NewStorageClient(appConfig.StorageURL),
		Ledger:   chain.NewLedgerClient(chain.LedgerClientConfig{BaseURL: appConfig.LedgerURL}),
		Campaign: chain.NewCampaignClient(appConfig.CampaignURL, appConfig.CampaignAPIKey),
		Drafts:   draftService,
		Clock:    time.Now,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Sessions:      sessionManager,
		DraftsService: draftService,
		Publisher:     orchestrator,
		Signers: func(address string) (publish.Signer, error) {
			return chain.NewRemoteSigner(appConfig.LedgerURL, address)
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
