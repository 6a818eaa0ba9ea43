package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/alertrelay/internal/domain"
)

func newHistoryCommand(ctx *cliContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().R().
				SetContext(cmd.Context()).
				SetQueryParam("limit", strconv.Itoa(limit)).
				Get("/api/history")
			if err != nil {
				return fmt.Errorf("contact relay: %w", err)
			}
			if !resp.IsSuccess() {
				return fmt.Errorf("relay returned %s: %s", resp.Status(), resp.String())
			}
			var recs []domain.AlertRecord
			if err := json.Unmarshal(resp.Body(), &recs); err != nil {
				return fmt.Errorf("decode history: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tLOCATION\tRESULT\tDETAIL")
			for _, r := range recs {
				result, detail := "sent", r.MediaID
				if !r.Success {
					result, detail = "failed@"+r.FailedStage, r.Error
				}
				fmt.Fprintf(tw, "%s\t%s,%s\t%s\t%s\n",
					r.CreatedAt.Local().Format(time.DateTime), r.Latitude, r.Longitude, result, detail)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of alerts to show")
	return cmd
}
