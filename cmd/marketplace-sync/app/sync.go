package app

import (
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/marketplace-sync/internal/aggregator"
	"github.com/stacklok/marketplace-sync/internal/catalog"
	"github.com/stacklok/marketplace-sync/internal/config"
	"github.com/stacklok/marketplace-sync/internal/git"
	"github.com/stacklok/marketplace-sync/internal/logging"
	"github.com/stacklok/marketplace-sync/internal/sources"
)

// runSync performs one aggregation run and prints its summary
func runSync(cmd *cobra.Command, v *viper.Viper) error {
	logger, err := newLogger(cmd, v)
	if err != nil {
		return err
	}
	logger = logger.WithValues("run_id", uuid.NewString())
	ctx := logr.NewContext(cmd.Context(), logger)

	cfg, err := config.LoadConfig(config.WithConfigPath(v.GetString(flagConfig)))
	if err != nil {
		return err
	}

	output := v.GetString(flagOutput)
	root := v.GetString(flagRoot)
	if root == "" {
		root = aggregator.DefaultOutputRoot(output)
	}
	logger.Info("Loaded configuration",
		"config", v.GetString(flagConfig),
		"sources", len(cfg.Sources),
		"output", output,
		"root", root)

	agg := aggregator.New(cfg,
		sources.NewSourceHandlerFactory(git.NewDefaultGitClient()),
		catalog.NewFileStorageManager(output),
		aggregator.WithOutputRoot(root),
		aggregator.WithOutputPath(output),
	)

	summary, err := agg.Run(ctx)
	if err != nil {
		return err
	}
	return summary.Render(cmd.OutOrStdout())
}

func newLogger(cmd *cobra.Command, v *viper.Viper) (logr.Logger, error) {
	return logging.New(logging.Options{
		Verbose: v.GetBool(flagVerbose),
		Level:   v.GetString(flagLogLevel),
		Out:     cmd.OutOrStdout(),
		Err:     cmd.ErrOrStderr(),
	})
}
