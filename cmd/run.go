package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sarchlab/framesync/config"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the frame loop with a demo workload.",
	Long: "`run` starts producer goroutines that dispatch events and a few " +
		"timers, and drives them frame by frame until interrupted or until " +
		"the frame limit is reached. Settings come from .env files and " +
		"FRAMESYNC_* variables; flags override them.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		envFiles, _ := cmd.Flags().GetStringSlice("env-file")

		cfg, err := config.Load(envFiles...)
		if err != nil {
			return err
		}

		if err := applyFlags(cmd, &cfg); err != nil {
			return err
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		producers, _ := cmd.Flags().GetInt("producers")
		logger := log.New(os.Stderr, "", log.LstdFlags)

		d := newDemo(cfg, producers, logger, cmd.OutOrStdout())

		if cfg.Record {
			d.enableRecording(cfg.RecordPath)
		}

		if cfg.Monitor {
			d.enableMonitor(cfg.MonitorPort, cfg.OpenBrowser, cfg.MonitorAssets)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(),
			os.Interrupt, syscall.SIGTERM)
		defer stop()

		return d.run(ctx)
	},
}

// applyFlags overrides the loaded settings with the flags given on the
// command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("fps") {
		cfg.TargetFPS, _ = flags.GetFloat64("fps")
	}

	if flags.Changed("time-scale") {
		cfg.TimeScale, _ = flags.GetFloat64("time-scale")
	}

	if flags.Changed("max-frames") {
		cfg.MaxFrames, _ = flags.GetUint64("max-frames")
	}

	if flags.Changed("monitor") {
		cfg.Monitor, _ = flags.GetBool("monitor")
	}

	if flags.Changed("port") {
		cfg.MonitorPort, _ = flags.GetInt("port")
	}

	if flags.Changed("monitor-assets") {
		cfg.MonitorAssets, _ = flags.GetString("monitor-assets")
	}

	if flags.Changed("open-browser") {
		cfg.OpenBrowser, _ = flags.GetBool("open-browser")
	}

	if flags.Changed("record") {
		cfg.Record, _ = flags.GetBool("record")
	}

	if flags.Changed("record-path") {
		cfg.RecordPath, _ = flags.GetString("record-path")
		cfg.Record = true
	}

	if flags.Changed("failure-policy") {
		s, _ := flags.GetString("failure-policy")

		policy, err := config.ParseFailurePolicy(s)
		if err != nil {
			return err
		}

		cfg.FailurePolicy = policy
	}

	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringSlice("env-file", nil,
		"Load settings from these .env files instead of ./.env")
	flags.Float64("fps", 60, "Target number of frames per second")
	flags.Float64("time-scale", 1, "Factor applied to the frame delta")
	flags.Uint64("max-frames", 0, "Stop after this many frames, 0 for no limit")
	flags.Bool("monitor", false, "Serve the monitoring page")
	flags.Int("port", 0, "Port of the monitoring page, random if not set")
	flags.String("monitor-assets", "",
		"Serve the monitoring page from this directory")
	flags.Bool("open-browser", false, "Open the monitoring page in a browser")
	flags.Bool("record", false, "Record frames, deliveries and timers")
	flags.String("record-path", "",
		"Database path without extension, implies --record")
	flags.String("failure-policy", "isolate",
		"What to do when a listener fails: isolate or propagate")
	flags.Int("producers", 4, "Number of goroutines dispatching events")
}
