package main

import (
	"github.com/spf13/cobra"

	"go-attention-agent/internal/blackboard"
	"go-attention-agent/internal/snapshot"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write an environment snapshot to the blackboard",
	Long: `seed writes the --snapshot file, or the built-in reference snapshot,
to the blackboard so a supervisor can start without a live environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := snapshot.Stub()
		if snapshotPath != "" {
			var err error
			if snap, err = snapshot.LoadFile(snapshotPath); err != nil {
				return err
			}
		}
		store := blackboard.NewRedisStore(redisOptions(), logger)
		defer store.Close()
		if err := snapshot.Save(cmd.Context(), store, snap); err != nil {
			return err
		}
		logger.Printf("seeded %d components into %s", len(snap.Components), cfg.Redis.Addr)
		return nil
	},
}
