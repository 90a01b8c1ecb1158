package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daleview/pool-finance/internal/config"
	"github.com/daleview/pool-finance/internal/forecast"
	"github.com/daleview/pool-finance/internal/optimizer"
	"github.com/daleview/pool-finance/internal/server"
	"github.com/daleview/pool-finance/pkg/constants"
	"github.com/daleview/pool-finance/pkg/output"
	"github.com/daleview/pool-finance/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pool-finance",
		Short:        "Renovation financing scenarios for a member-owned pool",
		SilenceUsage: true,
	}
	root.AddCommand(newCalculateCmd(), newServeCmd(), newVersionCmd())
	return root
}

type calculateOptions struct {
	configPath   string
	outputFormat string
	logLevel     string
	optimize     bool
}

func newCalculateCmd() *cobra.Command {
	opts := calculateOptions{}
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Evaluate every active scenario in the configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCalculate(cmd.OutOrStdout(), opts, cmd.Flags().Changed("config"))
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	cmd.Flags().StringVar(&opts.outputFormat, "output-format", "", "type of output override: pretty, csv, json")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	cmd.Flags().BoolVar(&opts.optimize, "optimize", false, "search each scenario for break-even dues and assessment")
	return cmd
}

func runCalculate(w io.Writer, opts calculateOptions, explicitConfig bool) error {
	conf, err := loadConfiguration(opts.configPath, explicitConfig)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", opts.configPath, err)
	}

	logger, err := initializeLogger(conf.Logging, opts.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if opts.outputFormat != "" {
		outputFormat = opts.outputFormat
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}

	if err := conf.Validate(); err != nil {
		logger.Error("invalid configuration",
			zap.String("op", "main.calculate"),
			zap.Error(err),
		)
		return err
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.calculate"),
		)
	}

	results, err := forecast.GetForecast(logger, *conf)
	if err != nil {
		logger.Error("failed to compute forecast",
			zap.String("op", "main.calculate"),
			zap.Error(err),
		)
		return err
	}

	if opts.optimize {
		runner, err := optimizer.NewRunner(logger, conf)
		if err != nil {
			return err
		}
		optimizationResult, err := runner.Run()
		if err != nil {
			logger.Error("optimizer execution failed",
				zap.String("op", "main.calculate"),
				zap.Error(err),
			)
			return err
		}
		optimizationResult.Apply(results)
	}

	switch outputFormat {
	case constants.OutputFormatCSV:
		return output.CsvFormat(w, results)
	case constants.OutputFormatJSON:
		return output.JSONFormat(w, results)
	default:
		output.PrettyFormat(w, results)
	}
	return nil
}

// loadConfiguration reads the configuration file. When the path was not given
// explicitly and the default file is absent, the built-in defaults are used.
func loadConfiguration(path string, explicit bool) (*config.Configuration, error) {
	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Defaults(), nil
		}
	}
	return config.LoadConfiguration(path)
}

type serveOptions struct {
	serverConfigPath string
	address          string
	logLevel         string
}

func newServeCmd() *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scenario calculator over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.serverConfigPath, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().StringVar(&opts.address, "address", "", "listen address override")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	serverConf, err := server.LoadConfig(opts.serverConfigPath)
	if err != nil {
		return err
	}
	if opts.address != "" {
		serverConf.Address = opts.address
	}

	logger, err := initializeLogger(serverConf.Logging, opts.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	httpServer := &http.Server{
		Addr:         serverConf.Address,
		Handler:      server.NewHandler(logger, serverConf.UploadSizeBytes(), version),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("op", "main.serve"),
			zap.String("address", serverConf.Address),
			zap.String("version", version),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		logger.Error("server failed",
			zap.String("op", "main.serve"),
			zap.Error(err),
		)
		return err
	case <-ctx.Done():
		logger.Info("shutting down server", zap.String("op", "main.serve"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConf.ShutdownTimeoutDuration())
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown",
			zap.String("op", "main.serve"),
			zap.Error(err),
		)
		return err
	}
	logger.Info("server exited", zap.String("op", "main.serve"))
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
