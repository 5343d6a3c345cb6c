package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rainlanguage/sqlite-web/internal/leaderlock"
)

// statusReport is the JSON shape printed by `coordbd status`.
type statusReport struct {
	IsLeader        bool             `json:"is_leader"`
	InstanceID      string           `json:"instance_id"`
	PendingQueries  int              `json:"pending_queries"`
	OpenConnections int              `json:"open_connections,omitempty"`
	InUse           int              `json:"in_use,omitempty"`
	Idle            int              `json:"idle,omitempty"`
	LockHolder      *leaderlock.Info `json:"lock_holder,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report this context's leadership and pending-query state",
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

		stats := h.StorageStats()
		report := statusReport{
			IsLeader:        h.IsLeader(),
			InstanceID:      h.InstanceID(),
			PendingQueries:  h.PendingQueries(),
			OpenConnections: stats.OpenConnections,
			InUse:           stats.InUse,
			Idle:            stats.Idle,
		}
		if holder, err := h.LockHolder(); err == nil {
			report.LockHolder = holder
		}

		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
