package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"scribe/internal/jobs"
	"scribe/internal/store"
)

// newEnqueueCommand creates a work item and queues a transcription job for
// it. It talks to the database directly so jobs can be queued while the
// daemon is stopped.
func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var (
		documentID    string
		mediaFormat   string
		language      string
		skipSubtitles bool
	)

	cmd := &cobra.Command{
		Use:   "enqueue <url>",
		Short: "Create a work item and queue a transcription job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(ctx.cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			if documentID == "" {
				documentID = uuid.NewString()
			}
			format := store.FormatVideo
			if mediaFormat == string(store.FormatAudio) {
				format = store.FormatAudio
			}

			doc := &store.Document{
				ID:           documentID,
				CanonicalURL: args[0],
				MediaFormat:  format,
				Language:     language,
			}
			if err := st.CreateDocument(cmd.Context(), doc); err != nil {
				return fmt.Errorf("create work item: %w", err)
			}

			payload := map[string]any{"document_id": documentID}
			if skipSubtitles {
				payload["skip_subtitles"] = true
			}
			msgID, err := st.Send(cmd.Context(), ctx.cfg.Queue.Name, payload)
			if err != nil {
				return fmt.Errorf("queue job: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "queued document %s as message %d\n", documentID, msgID)
			return nil
		},
	}
	cmd.Flags().StringVar(&documentID, "id", "", "work item identifier (generated when empty)")
	cmd.Flags().StringVar(&mediaFormat, "format", string(store.FormatVideo), "media format: video or audio")
	cmd.Flags().StringVar(&language, "lang", "", "language hint for transcription")
	cmd.Flags().BoolVar(&skipSubtitles, "skip-subtitles", false, "skip the subtitle path")
	return cmd
}

// newProcessCommand submits a batch of already-read queue messages to the
// daemon for processing.
func newProcessCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <document-id> [document-id...]",
		Short: "Queue jobs for existing work items and process them via the daemon",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(ctx.cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			batch := jobs.BatchRequest{Queue: ctx.cfg.Queue.Name}
			for _, documentID := range args {
				msgID, err := st.Send(cmd.Context(), ctx.cfg.Queue.Name, map[string]any{"document_id": documentID})
				if err != nil {
					return fmt.Errorf("queue job for %s: %w", documentID, err)
				}
				batch.Jobs = append(batch.Jobs, jobs.JobMessage{
					MsgID:      msgID,
					ReadCt:     1,
					DocumentID: documentID,
				})
			}

			client := newAPIClient(ctx.cfg)
			var response jobs.BatchResponse
			if err := client.post(cmd.Context(), "/api/jobs/process", batch, &response); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(response.Results))
			for _, result := range response.Results {
				rows = append(rows, []string{
					fmt.Sprintf("%d", result.MsgID),
					result.DocumentID,
					result.Status,
					result.Error,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Msg", "Document", "Status", "Error"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "completed %d, retry %d, archived %d, deleted %d (total %d)\n",
				response.Summary.Completed, response.Summary.Retry,
				response.Summary.Archived, response.Summary.Deleted, response.Summary.Total)
			return nil
		},
	}
	return cmd
}
