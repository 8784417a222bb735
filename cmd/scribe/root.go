package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/config"
)

// commandContext carries state shared across subcommands.
type commandContext struct {
	configPath string
	cfg        *config.Config
}

func (c *commandContext) loadConfig() error {
	if c.cfg != nil {
		return nil
	}
	cfg, _, _, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg
	return nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	root := &cobra.Command{
		Use:           "scribe",
		Short:         "Control and inspect the scribe transcription daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["skipConfigLoad"] == "true" {
				return nil
			}
			return ctx.loadConfig()
		},
	}
	root.PersistentFlags().StringVar(&ctx.configPath, "config", "", "path to the configuration file")

	root.AddCommand(newStatusCommand(ctx))
	root.AddCommand(newTranscriptCommand(ctx))
	root.AddCommand(newSubtitlesCommand(ctx))
	root.AddCommand(newEnqueueCommand(ctx))
	root.AddCommand(newProcessCommand(ctx))
	root.AddCommand(newConfigCommand())

	return root
}
