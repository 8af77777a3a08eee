// Package cli is the command line surface: flag and environment parsing,
// backend construction, and the choice between the interactive browser and
// the headless listing.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/slmtnm/s3nav/internal/config"
	"github.com/slmtnm/s3nav/internal/logging"
	"github.com/slmtnm/s3nav/internal/model"
	"github.com/slmtnm/s3nav/internal/storage"
)

const envPrefix = "S3NAV"

// BackendFactory builds the storage backend for a configuration.
type BackendFactory func(ctx context.Context, cfg config.Config) (storage.Backend, error)

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(NewBackend).ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

// NewRootCommand returns the s3nav command. Each call gets its own viper
// instance.
func NewRootCommand(factory BackendFactory) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "s3nav [bucket[/prefix]]",
		Short: "Browse S3 buckets in the terminal",
		Long: `Browse buckets and prefixes of an S3 compatible store, select objects and
directories, compute recursive sizes and delete in bulk.

Settings come from flags, S3NAV_* environment variables (for example
S3NAV_PROFILE or S3NAV_LOG_FILE) and an s3cmd style .s3cfg file.

Examples:
  s3nav --profile prod
  s3nav --backend minio --endpoint http://localhost:9000 --s3cfg ./.s3cfg
  s3nav --list -o json
  s3nav --list my-bucket/logs/`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd, v, factory, args)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringP("profile", "p", "", "AWS profile")
	f.StringP("region", "r", "", "AWS region (default "+config.DefaultRegion+")")
	f.String("endpoint", "", "Custom S3 endpoint URL")
	f.String("backend", config.BackendAWS, "Storage backend (aws|minio)")
	f.String("access-key", "", "Static access key id")
	f.String("secret-key", "", "Static secret access key")
	f.String("s3cfg", "", "Path to an s3cmd config file (default: search ./.s3cfg, ~/.s3cfg, /etc/s3cfg)")
	f.Bool("path-style", false, "Use path style bucket addressing")
	f.Bool("list", false, "Print the listing as structured output and exit")
	f.StringP("output", "o", config.OutputYAML, "Output format for --list (yaml|json)")
	f.String("log-file", "", "Write diagnostic logs to this file")
	f.String("log-level", "info", "Log level (debug|info|warn|error)")
	f.Float64("rate-limit", 0, "Maximum remote requests per second (0 = unlimited)")
	f.Duration("timeout", 30*time.Second, "Timeout for each remote request")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(f)

	return cmd
}

// loadConfig resolves flags, environment and the s3cmd file into a
// validated configuration.
func loadConfig(v *viper.Viper) (config.Config, error) {
	cfg := config.Default()
	cfg.Backend = v.GetString("backend")
	cfg.Profile = v.GetString("profile")
	cfg.Region = v.GetString("region")
	cfg.Endpoint = v.GetString("endpoint")
	cfg.AccessKey = v.GetString("access-key")
	cfg.SecretKey = v.GetString("secret-key")
	cfg.UsePathStyle = v.GetBool("path-style")
	cfg.S3CfgPath = v.GetString("s3cfg")
	cfg.ListOnly = v.GetBool("list")
	cfg.Output = v.GetString("output")
	cfg.LogFile = v.GetString("log-file")
	cfg.LogLevel = v.GetString("log-level")
	cfg.RateLimit = v.GetFloat64("rate-limit")
	cfg.Timeout = v.GetDuration("timeout")

	s3cfg, err := resolveS3Cfg(cfg)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyS3Cfg(s3cfg)
	cfg.Finalize()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// resolveS3Cfg loads the explicitly named s3cmd file, or searches the
// standard locations when nothing else says where or how to connect.
func resolveS3Cfg(cfg config.Config) (*config.S3Cfg, error) {
	if cfg.S3CfgPath != "" {
		return config.LoadS3Cfg(cfg.S3CfgPath)
	}
	if cfg.Profile != "" || cfg.Endpoint != "" || cfg.AccessKey != "" || cfg.SecretKey != "" {
		return nil, nil
	}
	s3cfg, err := config.FindS3Cfg()
	if errors.Is(err, config.ErrS3CfgNotFound) {
		return nil, nil
	}
	return s3cfg, err
}

// NewBackend builds the backend selected by cfg.
func NewBackend(ctx context.Context, cfg config.Config) (storage.Backend, error) {
	switch cfg.Backend {
	case config.BackendMinio:
		b, err := storage.NewMinioBackend(storage.MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.Secure(),
			Region:    cfg.Region,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		opts := storage.S3Config{
			Profile:      cfg.Profile,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			UsePathStyle: cfg.UsePathStyle,
		}
		if cfg.HasStaticKeys() {
			opts.AccessKeyID = cfg.AccessKey
			opts.SecretAccessKey = cfg.SecretKey
		}
		b, err := storage.NewS3Backend(ctx, opts)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

func run(cmd *cobra.Command, v *viper.Viper, factory BackendFactory, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	backend, err := factory(ctx, cfg)
	if err != nil {
		logger.Error("Failed to create storage backend", zap.Error(err))
		return fmt.Errorf("failed to create storage client: %w", err)
	}

	client := storage.NewClient(backend, storage.Options{
		RequestsPerSecond: cfg.RateLimit,
		Timeout:           cfg.Timeout,
		Logger:            logger,
	})
	logger.Info("Starting",
		zap.String("backend", client.Backend()),
		zap.String("profile", cfg.Profile),
		zap.String("region", cfg.Region),
		zap.String("endpoint", cfg.Endpoint),
		zap.Bool("list", cfg.ListOnly))

	var start model.Path
	if len(args) == 1 {
		start = model.ParsePath(args[0])
	}

	if cfg.ListOnly {
		return runList(ctx, client, start, cfg.Output, cmd.OutOrStdout())
	}
	return runBrowser(ctx, cfg, client, start, logger)
}
