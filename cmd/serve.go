package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teemow/szymon/internal/config"
	"github.com/teemow/szymon/internal/google"
	"github.com/teemow/szymon/internal/instrumentation"
	"github.com/teemow/szymon/internal/logging"
	"github.com/teemow/szymon/internal/server"
)

// serveFlags maps each serve flag to the settings key it overrides.
var serveFlags = map[string]string{
	"host":         config.KeyHost,
	"port":         config.KeyPort,
	"debug":        config.KeyDebug,
	"base-url":     config.KeyBaseURL,
	"frontend-url": config.KeyFrontendURL,
	"log-level":    config.KeyLogLevel,
	"log-format":   config.KeyLogFormat,
	"tls-cert":     config.KeyTLSCertFile,
	"tls-key":      config.KeyTLSKeyFile,
	"static-dir":   config.KeyStaticDir,
	"metrics":      config.KeyMetricsEnabled,
	"metrics-addr": config.KeyMetricsAddr,
}

func newServeCmd() *cobra.Command {
	var envFile string
	v := config.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway",
		Long: `Start the HTTP gateway serving the REST API under /api and the built frontend.

Google credentials:
  Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET in .env or the environment.
  Without them the server still starts; every Tasks and Calendar endpoint then
  answers 503. The OAuth redirect URI to register with Google is
  <base-url>/api/tasks/auth/callback.

HTTPS:
  When both --tls-cert and --tls-key point to existing files the server
  listens with TLS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(v, envFile)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), settings)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&envFile, "env-file", config.DefaultEnvFile, "Path to the .env file to load")
	flags.String("host", "0.0.0.0", "Address to listen on. Can also use HOST env var.")
	flags.Int("port", 2137, "Port to listen on. Can also use PORT env var.")
	flags.Bool("debug", true, "Enable debug mode (debug log level unless --log-level is set). Can also use DEBUG env var.")
	flags.String("base-url", "", "Public base URL used for the OAuth redirect. Defaults to http(s)://localhost:<port>. Can also use BASE_URL env var.")
	flags.String("frontend-url", "http://localhost:5173", "Frontend origin allowed by CORS and used after calendar login. Can also use FRONTEND_URL env var.")
	flags.String("log-level", "", "Log level: debug, info, warn or error. Can also use LOG_LEVEL env var.")
	flags.String("log-format", logging.FormatText, "Log format: text or json. Can also use LOG_FORMAT env var.")
	flags.String("tls-cert", "certs/cert.pem", "Path to the TLS certificate (PEM). Can also use TLS_CERT_FILE env var.")
	flags.String("tls-key", "certs/key.pem", "Path to the TLS private key (PEM). Can also use TLS_KEY_FILE env var.")
	flags.String("static-dir", "frontend/dist", "Directory of the built frontend. Can also use STATIC_DIR env var.")
	flags.Bool("metrics", false, "Serve Prometheus metrics on a dedicated port. Can also use METRICS_ENABLED env var.")
	flags.String("metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	if err := bindFlags(v, flags, serveFlags); err != nil {
		panic(err)
	}

	return cmd
}

// bindFlags makes each flag override its settings key when it is set explicitly.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func runServe(ctx context.Context, settings *config.Settings) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logging.New(settings.LogLevel, settings.LogFormat, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if !settings.MetricsEnabled && instrConfig.TracingExporter == instrumentation.ExporterNone {
		instrConfig.Enabled = false
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := provider.Shutdown(flushCtx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	auth, err := newAuthenticator(settings, provider, logger)
	if err != nil {
		return err
	}

	serverContext := server.NewServerContext(shutdownCtx, auth,
		server.WithInstrumentation(provider),
		server.WithContextLogger(logger),
	)
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	healthChecker := server.NewHealthChecker(serverContext)

	handler := server.NewRouter(serverContext, healthChecker, server.RouterConfig{
		Logger:         logger,
		FrontendURL:    settings.FrontendURL,
		AllowedOrigins: settings.AllowedOrigins(),
		RequestTimeout: settings.RequestTimeout,
		RateLimitRPS:   settings.RateLimitRPS,
		RateLimitBurst: settings.RateLimitBurst,
		StaticDir:      settings.StaticDir,
		AssetsDir:      settings.AssetsDir,
		Tracing:        provider.Enabled() && instrConfig.TracingExporter != instrumentation.ExporterNone,
	})

	var metricsServer *server.MetricsServer
	if settings.MetricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    settings.MetricsAddr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", logging.Err(err))
			}
		}()
	}

	httpServer := &http.Server{
		Addr:              settings.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsEnabled := settings.TLSEnabled()
	logger.Info("starting szymon",
		"addr", settings.Addr(),
		"public_url", settings.PublicURL(),
		"tls", tlsEnabled,
		"google_configured", auth != nil,
		"static_dir", settings.StaticDir,
		"version", version)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		var err error
		if tlsEnabled {
			err = httpServer.ListenAndServeTLS(settings.TLSCertFile, settings.TLSKeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	healthChecker.SetReady(false)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer stopCancel()

	if err := httpServer.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("error shutting down HTTP server: %w", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(stopCtx); err != nil {
			logger.Warn("error shutting down metrics server", logging.Err(err))
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}

// newAuthenticator builds the shared credential manager. It returns a nil
// Authenticator, not an error, when no OAuth client is configured.
func newAuthenticator(settings *config.Settings, provider *instrumentation.Provider, logger *slog.Logger) (server.Authenticator, error) {
	manager, err := newManager(settings, google.WithMetrics(provider.Metrics()), google.WithLogger(logger))
	if errors.Is(err, google.ErrNotConfigured) {
		logger.Warn("Google OAuth client is not configured; Tasks and Calendar endpoints will answer 503",
			"hint", "set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET in .env")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return manager, nil
}

func newManager(settings *config.Settings, opts ...google.Option) (*google.Manager, error) {
	return google.NewManager(google.Config{
		ClientID:     settings.GoogleClientID,
		ClientSecret: settings.GoogleClientSecret,
		RedirectURL:  settings.RedirectURL(),
		TokenPath:    settings.GoogleTokenPath,
	}, opts...)
}
