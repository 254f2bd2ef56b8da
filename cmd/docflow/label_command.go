package main

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/config"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/infrastructure"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/manifest"
)

func newLabelCommand(ctx *commandContext) *cobra.Command {
	var (
		root      string
		maxLength int
	)

	cmd := &cobra.Command{
		Use:   "label <manifests.json> <log>",
		Short: "Create directories named after IIIF manifest labels",
		Long: "Read a JSON object mapping manifest URLs to prefixes, fetch each manifest, and create a\n" +
			"directory named after its label in kebab case. Each created name is written to the log\n" +
			"as \"prefix -> dir/\".",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withInfrastructure(cmd, func(cfg *config.Config, infra *infrastructure.Infrastructure) error {
				manifests, err := manifest.Load(args[0])
				if err != nil {
					return err
				}

				logFile, err := os.Create(args[1])
				if err != nil {
					return fmt.Errorf("create log: %w", err)
				}
				defer logFile.Close()

				if !cmd.Flags().Changed("max-length") {
					maxLength = cfg.Manifest.MaxLength
				}

				client := manifest.NewClient(cfg.Manifest.TimeoutDuration(), cfg.Manifest.UserAgent, infra.Logger)
				summary, err := client.Process(cmd.Context(), manifests, root, maxLength, logFile)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, dir := range summary.Created {
					fmt.Fprintln(out, successStyle.Render("created  ")+dir)
				}
				for _, dir := range summary.Existing {
					fmt.Fprintln(out, dimStyle.Render("exists   ")+dir)
				}
				for _, url := range slices.Sorted(maps.Keys(summary.Failures)) {
					fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("skipped  ")+describeFailure(summary.Failures[url]))
				}

				if err := logFile.Close(); err != nil {
					return fmt.Errorf("write log: %w", err)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "Directory in which to create the label directories")
	cmd.Flags().IntVar(&maxLength, "max-length", manifest.DefaultMaxLength, "Maximum directory name length")

	return cmd
}
