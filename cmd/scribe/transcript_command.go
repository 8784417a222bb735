package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/store"
	"scribe/internal/subtitles"
)

type transcriptPayload struct {
	DocumentID      string          `json:"document_id"`
	Language        string          `json:"language"`
	Source          string          `json:"source"`
	ConfidenceScore *float64        `json:"confidence_score,omitempty"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
	Segments        []store.Segment `json:"segments"`
}

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "transcript <document-id>",
		Short: "Fetch the stored transcript for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(ctx.cfg)
			var payload transcriptPayload
			if err := client.get(cmd.Context(), "/api/transcriptions/"+args[0], nil, &payload); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(payload)
			}

			fmt.Fprintf(out, "Document: %s (language %s, source %s)\n",
				payload.DocumentID, payload.Language, payload.Source)
			rows := make([][]string, 0, len(payload.Segments))
			for _, seg := range payload.Segments {
				rows = append(rows, []string{
					subtitles.FormatTimestamp(seg.Start),
					subtitles.FormatTimestamp(seg.End),
					seg.Text,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Start", "End", "Text"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit raw JSON instead of a table")
	return cmd
}

func newSubtitlesCommand(ctx *commandContext) *cobra.Command {
	var lang string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "subtitles <url>",
		Short: "Extract subtitles for a URL without queueing a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(ctx.cfg)
			query := map[string][]string{"url": {args[0]}}
			if lang != "" {
				query["lang"] = []string{lang}
			}

			var payload struct {
				Language string          `json:"language"`
				Auto     bool            `json:"auto_captions"`
				Format   string          `json:"format"`
				Segments []store.Segment `json:"segments"`
			}
			if err := client.get(cmd.Context(), "/api/subtitles", query, &payload); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(payload)
			}
			kind := "manual"
			if payload.Auto {
				kind = "auto-generated"
			}
			fmt.Fprintf(out, "Found %d segments (%s, %s captions, format %s)\n",
				len(payload.Segments), payload.Language, kind, payload.Format)
			for _, seg := range payload.Segments {
				fmt.Fprintf(out, "%s --> %s  %s\n",
					subtitles.FormatTimestamp(seg.Start), subtitles.FormatTimestamp(seg.End), seg.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "preferred caption language")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit raw JSON instead of text")
	return cmd
}
