package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hamed0406/alertrelay/internal/domain"
)

func newSendCommand(ctx *cliContext) *cobra.Command {
	var lat, lon, video string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send an emergency alert with a location and a video clip",
		RunE: func(cmd *cobra.Command, args []string) error {
			if video == "" {
				return errors.New("--video is required")
			}
			resp, err := ctx.client().R().
				SetContext(cmd.Context()).
				SetFormData(map[string]string{"latitude": lat, "longitude": lon}).
				SetFile("video", video).
				Post("/send-alert")
			if err != nil {
				return fmt.Errorf("contact relay: %w", err)
			}

			var out domain.AlertOutcome
			if err := json.Unmarshal(resp.Body(), &out); err != nil {
				return fmt.Errorf("relay returned %s: %s", resp.Status(), resp.String())
			}
			if !out.Success {
				return fmt.Errorf("alert failed (%d): %s", resp.StatusCode(), out.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", out.Message, filepath.Base(video))
			return nil
		},
	}
	cmd.Flags().StringVar(&lat, "lat", "", "Latitude")
	cmd.Flags().StringVar(&lon, "lon", "", "Longitude")
	cmd.Flags().StringVar(&video, "video", "", "Path to the video clip (webm, mp4, avi, mov)")
	return cmd
}
