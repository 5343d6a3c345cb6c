package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Drop every table, view, index, and trigger in the logical instance",
	Long: `wipe runs wipe_and_recreate: a transactional drop of every catalog
object discovered in the leader's database, leaving the handle itself
valid and ready for fresh schema. Like query, it executes
locally or forwards to the current leader depending on which context
wins the race.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		h, b, err := openHandle(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = b.Close() }()
		defer func() { _ = h.Close() }()

		waitForReady(h, 150*time.Millisecond)

		if err := h.WipeAndRecreate(ctx); err != nil {
			return err
		}
		fmt.Println("wiped")
		return nil
	},
}
