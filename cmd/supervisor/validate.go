package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-attention-agent/internal/blackboard"
	"go-attention-agent/internal/registry"
	"go-attention-agent/internal/snapshot"
)

var useStub bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check settings and snapshots by building every agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		var snap snapshot.Snapshot
		var err error
		if useStub {
			snap = snapshot.Stub()
		} else {
			store := blackboard.NewRedisStore(redisOptions(), logger)
			defer store.Close()
			snap, err = loadSnapshot(cmd.Context(), store)
			if err != nil {
				return err
			}
		}
		reg := registry.New(registry.SnapshotFactory{Snapshot: snap, Config: cfg, Logger: logger})
		kinds := append([]string{}, cfg.Agents...)
		kinds = append(kinds, registry.KindOperator)
		if err := reg.SpawnAll(kinds); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok:", reg.AgentIDs())
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&useStub, "stub", false, "validate against the built-in reference snapshot")
}
