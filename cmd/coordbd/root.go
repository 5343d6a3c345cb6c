package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	coordb "github.com/rainlanguage/sqlite-web"
	"github.com/rainlanguage/sqlite-web/internal/bus"
	"github.com/rainlanguage/sqlite-web/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "coordbd",
	Short: "Single logical SQLite instance coordinated across many contexts",
	Long: `coordbd opens one context onto a logical SQLite instance that is shared
across every other context pointed at the same --data-dir: one of them holds
an exclusive lock and executes locally, the rest forward over a NATS subject
and await the leader's response.`,
	SilenceUsage: true,
}

func init() {
	fs := rootCmd.PersistentFlags()
	fs.String("data-dir", ".", "directory holding the database file and lock")
	fs.String("database-name", "", "database file name within --data-dir (default worker.db)")
	fs.Duration("router-timeout", 0, "how long a follower waits for the leader's response (default 5s)")
	fs.String("channel-name", "", "NATS subject used for inter-context coordination (default sqlite-coordination)")
	fs.String("lock-name", "", "name of the exclusive lock contending contexts race for (default sqlite-database)")
	fs.String("nats-url", "", "NATS server URL (default nats://127.0.0.1:4222)")
	fs.String("instance-id", "", "stable identity for this context (default a generated uuid)")

	rootCmd.AddCommand(serveCmd, queryCmd, wipeCmd, statusCmd)
}

// loadConfig merges the recognized defaults, COORDB_ environment variables,
// an optional coordb.yaml, and this invocation's flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cmd.Flags())
}

// dialBus builds the NATSBus every subcommand coordinates over. coordbd
// never uses bus.LocalBus: that implementation only fans out within one
// process, so it cannot carry coordination between separate coordbd
// invocations.
func dialBus(cfg *config.Config) (bus.Bus, error) {
	b, err := bus.NewNATSBus(cfg.NATSURL, cfg.ChannelName)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.NATSURL, err)
	}
	return b, nil
}

// openHandle wires a Handle per the merged Config, opening a fresh NATSBus
// connection the caller must close alongside the Handle.
func openHandle(ctx context.Context, cfg *config.Config) (*coordb.Handle, bus.Bus, error) {
	b, err := dialBus(cfg)
	if err != nil {
		return nil, nil, err
	}

	h, err := coordb.Open(ctx, coordb.Options{
		DataDir:       cfg.DataDir,
		DatabaseName:  cfg.DatabaseName,
		LockName:      cfg.LockName,
		RouterTimeout: cfg.RouterTimeout,
		Bus:           b,
		InstanceID:    cfg.InstanceID,
	})
	if err != nil {
		_ = b.Close()
		return nil, nil, err
	}
	return h, b, nil
}

// waitForReady gives this context a moment to either win the leadership race
// or settle in as a follower able to forward through the bus, so a one-shot
// command like `coordbd query` doesn't race its own Handle's background
// election.
func waitForReady(h *coordb.Handle, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if h.IsLeader() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}
