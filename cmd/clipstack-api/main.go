package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipstack/backend/internal/auth"
	"github.com/clipstack/backend/internal/config"
	"github.com/clipstack/backend/internal/database"
	"github.com/clipstack/backend/internal/logging"
	"github.com/clipstack/backend/internal/media"
	"github.com/clipstack/backend/internal/server"
	"github.com/clipstack/backend/internal/users"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clipstack-api",
		Short: "Clipstack user-account backend service",
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
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().Int("access-ttl-minutes", defaults.GetInt("auth.access_ttl_minutes"), "Access token TTL in minutes")
	cmd.PersistentFlags().Int("refresh-ttl-hours", defaults.GetInt("auth.refresh_ttl_hours"), "Refresh token TTL in hours")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("access-secret", "", "Access token signing secret (overrides env)")
	cmd.PersistentFlags().String("refresh-secret", "", "Refresh token signing secret (overrides env)")
	cmd.PersistentFlags().String("media-bucket", defaults.GetString("media.bucket"), "Object storage bucket for uploads")
	cmd.PersistentFlags().String("media-endpoint", defaults.GetString("media.endpoint"), "Object storage endpoint (empty for AWS)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "auth.access_ttl_minutes", "access-ttl-minutes")
	bindFlag(cmd, "auth.refresh_ttl_hours", "refresh-ttl-hours")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.access_secret", "access-secret")
	bindFlag(cmd, "auth.refresh_secret", "refresh-secret")
	bindFlag(cmd, "media.bucket", "media-bucket")
	bindFlag(cmd, "media.endpoint", "media-endpoint")
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
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
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

	identityService, err := users.NewService(users.ServiceConfig{
		Database: db,
	})
	if err != nil {
		return err
	}

	accessIssuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.AccessSecret),
		Issuer:        "clipstack-api",
		TokenTTL:      appConfig.AccessTTL,
	})
	if err != nil {
		return err
	}
	refreshIssuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.RefreshSecret),
		Issuer:        "clipstack-api",
		TokenTTL:      appConfig.RefreshTTL,
	})
	if err != nil {
		return err
	}
	accessVerifier, err := auth.NewTokenVerifier(auth.TokenVerifierConfig{
		SigningSecret: []byte(appConfig.AccessSecret),
	})
	if err != nil {
		return err
	}
	refreshVerifier, err := auth.NewTokenVerifier(auth.TokenVerifierConfig{
		SigningSecret: []byte(appConfig.RefreshSecret),
	})
	if err != nil {
		return err
	}

	sessionManager, err := auth.NewSessionManager(auth.SessionManagerConfig{
		Store:           identityService,
		Hasher:          auth.NewPasswordHasher(),
		AccessIssuer:    accessIssuer,
		RefreshIssuer:   refreshIssuer,
		RefreshVerifier: refreshVerifier,
	})
	if err != nil {
		return err
	}

	uploader, err := media.NewUploader(ctx, media.Config{
		Endpoint:      appConfig.MediaEndpoint,
		Region:        appConfig.MediaRegion,
		Bucket:        appConfig.MediaBucket,
		AccessKey:     appConfig.MediaAccessKey,
		SecretKey:     appConfig.MediaSecretKey,
		PublicBaseURL: appConfig.MediaPublicBaseURL,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Sessions:   sessionManager,
		Tokens:     accessVerifier,
		Identities: identityService,
		Uploader:   uploader,
		Hasher:     auth.NewPasswordHasher(),
		Cookies: server.CookieConfig{
			Secure:        appConfig.SecureCookies,
			AccessMaxAge:  appConfig.AccessTTL,
			RefreshMaxAge: appConfig.RefreshTTL,
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
