package main

import (
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

type cliContext struct {
	apiBase string
	apiKey  string
	timeout time.Duration
}

func (c *cliContext) client() *resty.Client {
	cl := resty.New().
		SetBaseURL(strings.TrimRight(c.apiBase, "/")).
		SetTimeout(c.timeout)
	if c.apiKey != "" {
		cl.SetHeader("X-API-Key", c.apiKey)
	}
	return cl
}

func newRootCommand() *cobra.Command {
	ctx := &cliContext{}

	root := &cobra.Command{
		Use:           "alertctl",
		Short:         "Send and inspect emergency alerts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	apiBase := os.Getenv("API_BASE")
	if apiBase == "" {
		apiBase = "http://localhost:5000"
	}
	root.PersistentFlags().StringVar(&ctx.apiBase, "api", apiBase, "Relay base URL (env API_BASE)")
	root.PersistentFlags().StringVar(&ctx.apiKey, "key", os.Getenv("HISTORY_API_KEY"), "API key for history (env HISTORY_API_KEY)")
	root.PersistentFlags().DurationVar(&ctx.timeout, "timeout", 3*time.Minute, "Request timeout")

	root.AddCommand(newSendCommand(ctx))
	root.AddCommand(newHistoryCommand(ctx))
	return root
}
