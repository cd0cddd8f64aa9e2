package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"sprintlens/internal/adapter"
	"sprintlens/internal/config"
	"sprintlens/internal/localstore"
	"sprintlens/internal/logging"
	"sprintlens/internal/mcp"
	"sprintlens/internal/service"
	"sprintlens/internal/tracker"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "sprintlens",
	Short: "SprintLens is a cross-provider project analytics MCP server",
	Long: `An MCP server that normalizes task data from different project trackers
into one canonical model and computes sprint charts (burndown, velocity,
cumulative flow, cycle time and more) on top of it.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("SprintLens starting")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store := localstore.New(cfg.LocalDataDir)
		baselines := adapter.NewBaselineStore(cfg.CacheDir)
		internalAdapter := adapter.New(store, "internal", tracker.ProviderInternal, baselines).
			WithTimeout(cfg.ProviderTimeout)

		svc := service.New(map[string]service.Source{
			"internal": internalAdapter,
		}, cfg.CacheTTL)

		server := mcp.NewServer(svc, "internal", cfg.EnableMermaidCharts, Version)
		return server.Run(ctx)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
