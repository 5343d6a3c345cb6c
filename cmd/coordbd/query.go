package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var queryParams []string

var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run one statement against the logical instance",
	Long: `query opens a context just long enough to run one statement: it
executes locally if this context wins the leadership race, or forwards to
whichever context already holds the lock and waits for the response.

Repeat --param to bind placeholders in order; every value is passed as
text, since the CLI has no way to distinguish "42" the integer from "42"
the string.`,
	Args: cobra.ExactArgs(1),
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

		values := make([]any, len(queryParams))
		for i, p := range queryParams {
			values[i] = p
		}

		res, err := h.Query(ctx, args[0], values...)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	queryCmd.Flags().StringArrayVar(&queryParams, "param", nil, "bind one placeholder value, in order; repeatable")
}
