package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/config"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/infrastructure"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/runs"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/formatting"
)

var errLedgerUnavailable = errors.New("run ledger unavailable: enable [database] in configuration and run migrate -up")

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recorded conversion runs, or show one run with its failures",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withInfrastructure(cmd, func(_ *config.Config, infra *infrastructure.Infrastructure) error {
				if infra.Database == nil {
					return errLedgerUnavailable
				}
				ledger := runs.New(infra.Database.Connection(), infra.Logger)
				out := cmd.OutOrStdout()

				if len(args) == 1 {
					id, err := uuid.Parse(args[0])
					if err != nil {
						return fmt.Errorf("invalid run id %q: %w", args[0], err)
					}
					run, err := ledger.Find(cmd.Context(), id)
					if err != nil {
						return err
					}
					if asJSON {
						return writeJSON(out, run)
					}
					fmt.Fprintln(out, renderRun(run))
					return nil
				}

				list, err := ledger.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, list)
				}
				if len(list) == 0 {
					fmt.Fprintln(out, dimStyle.Render("no runs recorded"))
					return nil
				}
				fmt.Fprintln(out, renderRuns(list))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", runs.DefaultListLimit, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write JSON instead of a table")

	return cmd
}

func renderRuns(list []runs.Run) string {
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		rows = append(rows, []string{
			r.ID.String(),
			r.StartedAt.Local().Format(time.DateTime),
			shortName(r.Archive),
			strconv.Itoa(r.Succeeded),
			strconv.Itoa(r.Failed),
			r.Status,
			formatting.FormatBytes(r.OutputBytes, 1),
		})
	}

	return renderTable(
		[]string{"ID", "Started", "Archive", "Pages", "Skipped", "Status", "Size"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight},
	)
}

func renderRun(r *runs.Run) string {
	rows := [][]string{
		{"ID", r.ID.String()},
		{"Status", r.Status},
		{"Archive", r.Archive},
		{"Output", r.Output},
		{"DPI", strconv.Itoa(r.DPI)},
		{"Workers", strconv.Itoa(r.Workers)},
		{"Pages", strconv.Itoa(r.Succeeded)},
		{"Skipped", strconv.Itoa(r.Failed)},
		{"Size", formatting.FormatBytes(r.OutputBytes, 1)},
		{"Started", r.StartedAt.Local().Format(time.DateTime)},
		{"Duration", r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond).String()},
	}
	if r.Error != "" {
		rows = append(rows, []string{"Error", r.Error})
	}

	out := renderTable([]string{"Field", "Value"}, rows, nil)
	if len(r.Failures) == 0 {
		return out
	}

	failures := make([][]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		failures = append(failures, []string{f.Member, f.Error})
	}
	return out + "\n" + renderTable([]string{"Member", "Error"}, failures, nil)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
