package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rainlanguage/sqlite-web/internal/logging"
)

var log = logging.New("coordbd")

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Open this context and hold it for the process lifetime",
	Long: `serve opens one context onto the logical instance and blocks until
SIGINT or SIGTERM, the Go-native analogue of a browser tab keeping its
Web Locks API request open for as long as the tab is alive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		h, b, err := openHandle(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = b.Close() }()
		defer func() { _ = h.Close() }()

		log.Infof("context %s serving from %s, waiting for leadership or forwarding through %s", h.InstanceID(), cfg.DataDir, cfg.ChannelName)
		<-ctx.Done()
		log.Infof("context %s shutting down", h.InstanceID())
		return nil
	},
}
