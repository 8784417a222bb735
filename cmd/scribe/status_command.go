package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scribe/internal/store"
)

type daemonStatus struct {
	Documents              store.HealthSummary `json:"documents"`
	QueueDepth             int                 `json:"queue_depth"`
	ArchiveDepth           int                 `json:"archive_depth"`
	TranscriptionsInFlight int                 `json:"transcriptions_in_flight"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := newAPIClient(ctx.cfg)
			var status daemonStatus
			if err := client.get(cmd.Context(), "/api/status", nil, &status); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Pending", strconv.Itoa(status.Documents.Pending)},
				{"Processing", strconv.Itoa(status.Documents.Processing)},
				{"Completed", strconv.Itoa(status.Documents.Completed)},
				{"Error", strconv.Itoa(status.Documents.Errored)},
				{"Total", strconv.Itoa(status.Documents.Total)},
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Documents", "Count"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			fmt.Fprintf(out, "Queue depth: %d (archived: %d)\n", status.QueueDepth, status.ArchiveDepth)
			fmt.Fprintf(out, "Transcriptions in flight: %d\n", status.TranscriptionsInFlight)
			return nil
		},
	}
}
