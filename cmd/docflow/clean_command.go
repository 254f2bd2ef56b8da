package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/alto"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/config"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/infrastructure"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "clean <archive.zip>",
		Short: "Strip directories from ALTO fileName entries inside an archive",
		Long: "Rewrite sourceImageInformation/fileName in every ALTO descriptor of the archive to its\n" +
			"base name. The archive is rebuilt with deflate compression and replaced in place.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withInfrastructure(cmd, func(_ *config.Config, infra *infrastructure.Infrastructure) error {
				bar := newProgress(cmd.ErrOrStderr(), "cleaning", quiet)
				summary, err := alto.CleanArchive(cmd.Context(), args[0], infra.Logger, bar)
				bar.Close()
				if err != nil {
					return err
				}

				if len(summary.Failures) > 0 {
					rows := make([][]string, 0, len(summary.Failures))
					for _, name := range slices.Sorted(maps.Keys(summary.Failures)) {
						rows = append(rows, []string{name, summary.Failures[name].Error()})
					}
					fmt.Fprintln(cmd.ErrOrStderr(), renderTable([]string{"Descriptor", "Error"}, rows, nil))
				}

				line := fmt.Sprintf(
					"cleaned %d of %d descriptors in %s (%d members)",
					summary.Cleaned,
					summary.Descriptors,
					args[0],
					summary.Members,
				)
				style := successStyle
				if len(summary.Failures) > 0 {
					style = warnStyle
				}
				fmt.Fprintln(cmd.OutOrStdout(), style.Render(line))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Disable the progress bar")

	return cmd
}
