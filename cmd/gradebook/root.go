package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alem-hub/gradebook/config"
	"github.com/alem-hub/gradebook/internal/application/registry"
	"github.com/alem-hub/gradebook/internal/domain/progress"
	"github.com/alem-hub/gradebook/internal/domain/shared"
	"github.com/alem-hub/gradebook/pkg/logger"
	"github.com/alem-hub/gradebook/pkg/metrics"
	"github.com/alem-hub/gradebook/pkg/timeutil"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	configPath    string
	dataPath      string
	progressPath  string
	ignoreCorrupt bool

	cfg   *config.Config
	log   *logger.Logger
	clock timeutil.Clock
}

func newRootCmd() *cobra.Command {
	a := &app{clock: timeutil.SystemClock}

	root := &cobra.Command{
		Use:           "gradebook",
		Short:         "Keep student records, scores and study progress",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ./gradebook.yaml when present)")
	flags.StringVar(&a.dataPath, "data", "", "records file for the file backend (overrides storage.path)")
	flags.StringVar(&a.progressPath, "progress-file", "", "study progress file (overrides storage.progress_path)")
	flags.BoolVar(&a.ignoreCorrupt, "ignore-corrupt", false, "start empty when stored data cannot be read")

	root.AddCommand(
		newAddCmd(a),
		newRemoveCmd(a),
		newScoreCmd(a),
		newUnscoreCmd(a),
		newShowCmd(a),
		newListCmd(a),
		newStatsCmd(a),
		newDemoCmd(a),
		newProgressCmd(a),
	)
	return root
}

// setup loads configuration and builds the logger. Storage is opened per
// command by withBackend.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dataPath != "" {
		cfg.Storage.Path = a.dataPath
	}
	if a.progressPath != "" {
		cfg.Storage.ProgressPath = a.progressPath
	}
	if err := timeutil.SetLocation(cfg.App.Timezone); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logger.New(loggerOptions(cfg, cmd.ErrOrStderr())).
		WithRunID(uuid.NewString()).
		With(logger.String("app", cfg.App.Name), logger.Operation(cmd.CommandPath()))
	return nil
}

// loggerOptions derives logger settings from the environment: production
// always logs json, development adds caller information.
func loggerOptions(cfg *config.Config, w io.Writer) logger.Options {
	opts := logger.DefaultOptions()
	opts.Output = w
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.Format = cfg.Observability.LogFormat
	opts.AddCaller = cfg.IsDevelopment()
	if cfg.IsProduction() {
		opts.Format = "json"
	}
	return opts
}

// withBackend opens storage for the duration of fn and releases it afterwards.
// The metrics textfile, when configured, is written once fn has returned.
func (a *app) withBackend(fn func(ctx context.Context, cmd *cobra.Command, args []string, b *backend) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logger.WithContext(cmd.Context(), a.log)

		b, err := openBackend(ctx, a.cfg, a.log)
		if err != nil {
			return err
		}
		a.log.Debug("backend opened", logger.Backend(b.name))

		runErr := fn(ctx, cmd, args, b)

		if err := b.close(); err != nil {
			a.log.Warn("closing backend", logger.Backend(b.name), logger.Err(err))
		}
		if path := a.cfg.Observability.MetricsTextfile; path != "" {
			if err := metrics.WriteTextfile(path); err != nil {
				a.log.Warn("writing metrics textfile", logger.Path(path), logger.Err(err))
			}
		}
		_ = a.log.Sync()
		return runErr
	}
}

// openRegistry loads the registry. With --ignore-corrupt a load failure is
// logged and an empty registry is returned; the next save replaces the data.
func (a *app) openRegistry(ctx context.Context, b *backend) (*registry.Registry, error) {
	opts := []registry.Option{registry.WithLogger(a.log), registry.WithClock(a.clock)}

	reg, err := registry.Open(ctx, b.records, opts...)
	if err == nil {
		return reg, nil
	}
	if !a.ignoreCorrupt || !registry.IsLoadError(err) {
		return nil, err
	}
	a.log.Warn("ignoring unreadable records, starting empty", logger.Backend(b.name), logger.Err(err))
	return registry.New(b.records, opts...), nil
}

// openTracker loads study progress over the default curriculum.
func (a *app) openTracker(ctx context.Context, b *backend) (*progress.Tracker, error) {
	stored, err := b.progress.Load(ctx)
	if err != nil {
		if a.ignoreCorrupt && errors.Is(err, shared.ErrMalformedProgress) {
			a.log.Warn("ignoring unreadable progress, starting empty", logger.Err(err))
			return progress.NewTracker(progress.DefaultTopics(), a.clock), nil
		}
		return nil, shared.ErrProgressLoad.Wrap(err)
	}
	return progress.Restore(progress.DefaultTopics(), stored, a.clock), nil
}

func (a *app) saveTracker(ctx context.Context, b *backend, tr *progress.Tracker) error {
	if err := b.progress.Save(ctx, tr.Snapshot()); err != nil {
		return shared.ErrProgressSave.Wrap(err)
	}
	return nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
