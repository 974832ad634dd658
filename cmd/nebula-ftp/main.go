package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-ftp/pkg/config"
	"github.com/ajitpratap0/nebula-ftp/pkg/connector/ftp"
	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/logger"
	"github.com/ajitpratap0/nebula-ftp/pkg/observability"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote/transport"
)

var version = "0.1.0"

func main() {
	if err := newRootCommand(viper.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	initEnvs(v)

	root := &cobra.Command{
		Use:           "nebula-ftp",
		Short:         "Nebula FTP - file connector for batch synchronization",
		Long:          `Validates FTP (and object store) file connector jobs, enumerates remote files and prints the sub-tasks a runner would execute.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if err := bindFlags(v, root.PersistentFlags()); err != nil {
		panic(err)
	}

	root.AddCommand(
		versionCommand(),
		listCommand(),
		validateCommand(v),
		schemaCommand(v),
		planCommand(v),
		checkCommand(v),
	)
	return root
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Nebula FTP v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// session is the state shared by the commands that operate on a job file.
type session struct {
	settings Settings
	cfg      *config.ConnectorConfig
	fs       remote.FileSystem
	log      *zap.Logger
	out      io.Writer
}

// open loads the job file, installs logging and tracing, and connects to the
// remote. The returned cleanup must always be called.
func open(ctx context.Context, cmd *cobra.Command, v *viper.Viper) (context.Context, *session, func(), error) {
	settings := loadSettings(v)
	noop := func() {}

	if err := logger.Init(logger.Config{Level: settings.LogLevel, Encoding: settings.LogFormat, OutputPaths: []string{"stderr"}}); err != nil {
		return ctx, nil, noop, err
	}
	if settings.Config == "" {
		return ctx, nil, noop, errors.New(errors.ErrorTypeConfig, "--config is required")
	}

	cfg, err := loadJob(settings.Config)
	if err != nil {
		return ctx, nil, noop, err
	}

	jobID := uuid.NewString()
	ctx = logger.ContextWithJob(ctx, jobID)
	ctx = logger.ContextWithConnector(ctx, cfg.Name)
	log := logger.WithContext(ctx).With(zap.String("component", "nebula-ftp-cli"))

	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		_ = logger.Sync()
	}

	if settings.Trace {
		tc := observability.DefaultConfig()
		tc.ServiceVersion = version
		tc.Writer = cmd.ErrOrStderr()
		if err := observability.Initialize(ctx, tc); err != nil {
			return ctx, nil, cleanup, err
		}
		cleanups = append(cleanups, func() {
			if err := observability.Shutdown(context.Background()); err != nil {
				log.Warn("failed to flush traces", zap.Error(err))
			}
		})
	}

	fs, err := transport.Open(ctx, cfg, log)
	if err != nil {
		return ctx, nil, cleanup, err
	}
	cleanups = append(cleanups, func() {
		if err := fs.Close(); err != nil {
			log.Warn("failed to close transport", zap.Error(err))
		}
	})

	log.Debug("job opened",
		zap.String("job_file", settings.Config),
		zap.String("server", cfg.Server.Kind))

	return ctx, &session{
		settings: settings,
		cfg:      cfg,
		fs:       fs,
		log:      log,
		out:      cmd.OutOrStdout(),
	}, cleanup, nil
}

// withSession runs fn against an opened job under the command timeout.
func withSession(v *viper.Viper, fn func(ctx context.Context, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), loadSettings(v).Timeout)
		defer cancel()

		ctx, s, cleanup, err := open(ctx, cmd, v)
		defer cleanup()
		if err != nil {
			return err
		}
		return fn(ctx, s, args)
	}
}

// tag returns the registry tag of the job, ftp unless the file names another.
// workers prefers the command line setting and falls back to the job's
// performance section.
func (s *session) workers() int {
	if s.settings.Workers > 0 {
		return s.settings.Workers
	}
	return s.cfg.Performance.GetWorkers()
}

func (s *session) tag() string {
	if s.cfg.Type != "" {
		return s.cfg.Type
	}
	return ftp.Tag
}

// loadJob reads and checks a job file.
func loadJob(path string) (*config.ConnectorConfig, error) {
	cfg, err := config.LoadConnector(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid job file").WithDetail("path", path)
	}
	return cfg, nil
}
