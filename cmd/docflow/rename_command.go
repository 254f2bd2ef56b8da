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

func newRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename [dir]",
		Short: "Prefix short image/ALTO pairs with their directory name",
		Long: fmt.Sprintf(
			"Walk dir (default: the current directory). Every image with a same-stem ALTO descriptor\n"+
				"and a stem of at most %d characters is renamed to <parent>_<stem>, and the descriptor's\n"+
				"fileName entries are updated to match.",
			alto.MaxStemLength,
		),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			return ctx.withInfrastructure(cmd, func(_ *config.Config, infra *infrastructure.Infrastructure) error {
				summary, err := alto.RenamePairs(root, infra.Logger)
				if err != nil {
					return err
				}

				if len(summary.Failures) > 0 {
					rows := make([][]string, 0, len(summary.Failures))
					for _, path := range slices.Sorted(maps.Keys(summary.Failures)) {
						rows = append(rows, []string{path, summary.Failures[path].Error()})
					}
					fmt.Fprintln(cmd.ErrOrStderr(), renderTable([]string{"Pair", "Error"}, rows, nil))
				}

				style := successStyle
				if len(summary.Failures) > 0 {
					style = warnStyle
				}
				fmt.Fprintln(cmd.OutOrStdout(), style.Render(fmt.Sprintf(
					"renamed %d pairs, %d left unchanged, %d failed",
					summary.Renamed,
					summary.Skipped,
					len(summary.Failures),
				)))
				return nil
			})
		},
	}
}
