package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"go-attention-agent/internal/config"
	"go-attention-agent/internal/snapshot"
)

var (
	configPath   string
	snapshotPath string
	quiet        bool

	cfg    config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "supervisor",
	Short: "Attention supervisor for multi-task monitoring",
	Long: `supervisor watches a multi-task monitoring environment over Redis,
highlights components that stay out of range while the operator looks
elsewhere, and scores operator performance.`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command until SIGINT or SIGTERM.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var out io.Writer = os.Stdout
	if quiet {
		out = io.Discard
	}
	logger = log.New(out, "", log.LstdFlags)

	var err error
	cfg, err = config.Load(configPath)
	return err
}

func redisOptions() *redis.Options {
	return &redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
}

// loadSnapshot reads the --snapshot file, or the blackboard when none is given.
func loadSnapshot(ctx context.Context, store snapshot.Decoder) (snapshot.Snapshot, error) {
	if snapshotPath != "" {
		return snapshot.LoadFile(snapshotPath)
	}
	return snapshot.Load(ctx, store)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "settings file (default $SUPERVISOR_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&snapshotPath, "snapshot", "", "environment snapshot file instead of the blackboard")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "discard log output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(seedCmd)
}
