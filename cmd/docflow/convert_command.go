package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/config"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/conversion"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/infrastructure"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/runs"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/storage"
)

const pdfContentType = "application/pdf"

type convertFlags struct {
	dpi     int
	workers int
	tempDir string
	publish bool
	quiet   bool
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var flags convertFlags

	cmd := &cobra.Command{
		Use:   "convert <archive.zip> <output.pdf>",
		Short: "Convert an archive of page images into a single PDF",
		Long: "Convert every supported image (tif, tiff, jpg, jpeg, png) in a zip archive into one PDF.\n" +
			"Pages follow the natural order of member names. Unreadable images are skipped and reported.\n" +
			"The archive may be given as " + storage.Scheme + "<key> to read it from blob storage.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withInfrastructure(cmd, func(cfg *config.Config, infra *infrastructure.Infrastructure) error {
				opts := convertOptions(cmd, cfg, flags, args[0], args[1])
				return runConvert(cmd, cfg, infra, opts, flags)
			})
		},
	}

	cmd.Flags().IntVar(&flags.dpi, "dpi", 0, "Resolution recorded for each page (default from config, 600)")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "Concurrent conversions (default: CPUs - 1)")
	cmd.Flags().StringVar(&flags.tempDir, "temp-dir", "", "Directory for the scoped workspace (default: system temp)")
	cmd.Flags().BoolVar(&flags.publish, "publish", false, "Upload the output document to blob storage")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Disable the progress bar")

	return cmd
}

// convertOptions resolves run options: config values first, then any flag
// the user set. An explicit worker count below one clamps to one.
func convertOptions(cmd *cobra.Command, cfg *config.Config, flags convertFlags, archive, output string) conversion.Options {
	opts := conversion.Options{
		Archive:       archive,
		Output:        output,
		DPI:           cfg.Convert.DPI,
		Workers:       cfg.Convert.Workers,
		TempDir:       cfg.Convert.TempDir,
		MaxMemberSize: cfg.Convert.MaxMemberSizeBytes(),
	}
	if opts.Workers == 0 {
		opts.Workers = conversion.DefaultWorkers()
	}

	set := cmd.Flags()
	if set.Changed("dpi") {
		opts.DPI = flags.dpi
	}
	if set.Changed("workers") {
		opts.Workers = conversion.ClampWorkers(flags.workers)
	}
	if set.Changed("temp-dir") {
		opts.TempDir = flags.tempDir
	}
	return opts
}

func runConvert(
	cmd *cobra.Command,
	cfg *config.Config,
	infra *infrastructure.Infrastructure,
	opts conversion.Options,
	flags convertFlags,
) error {
	ctx := cmd.Context()
	logger := infra.Logger

	if flags.publish && infra.Storage == nil {
		return fmt.Errorf("--publish requires storage.enabled in configuration")
	}

	if key, ok := storage.ParseURI(opts.Archive); ok {
		local, cleanup, err := fetchArchive(ctx, infra, key, opts.TempDir)
		if err != nil {
			return err
		}
		defer cleanup()
		opts.Archive = local
	}

	bar := newProgress(cmd.ErrOrStderr(), "converting", flags.quiet)
	pipeline := conversion.NewPipeline(logger, conversion.WithObserver(bar))

	summary, runErr := pipeline.Run(ctx, opts)
	bar.Close()

	if summary != nil {
		recordRun(ctx, infra, summary, runErr)
	}
	if runErr != nil {
		if summary != nil && len(summary.Failures) > 0 {
			printFailures(cmd.ErrOrStderr(), summary.Failures)
		}
		return runErr
	}

	out := cmd.OutOrStdout()
	if len(summary.Failures) > 0 {
		printFailures(cmd.ErrOrStderr(), summary.Failures)
	}
	fmt.Fprintln(out, renderSummary(summary))

	if flags.publish {
		key := storage.PublishKey(cfg.Storage.PublishPrefix, summary.RunID.String(), summary.Output)
		if err := storage.Publish(ctx, infra.Storage, key, summary.Output, pdfContentType); err != nil {
			return fmt.Errorf("publish %s: %w", key, err)
		}
		fmt.Fprintln(out, dimStyle.Render("published "+storage.Scheme+key))
	}

	return nil
}

func fetchArchive(ctx context.Context, infra *infrastructure.Infrastructure, key, tempDir string) (string, func(), error) {
	if infra.Storage == nil {
		return "", nil, fmt.Errorf("%s input requires storage.enabled in configuration", storage.Scheme)
	}

	dir, err := os.MkdirTemp(tempDir, "docflow-fetch-*")
	if err != nil {
		return "", nil, fmt.Errorf("create download directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	local := filepath.Join(dir, filepath.Base(filepath.FromSlash(key)))
	n, err := storage.Fetch(ctx, infra.Storage, key, local)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("%w: %w", conversion.ErrArchiveUnreadable, err)
	}

	infra.Logger.Info("archive downloaded", "key", key, "bytes", n)
	return local, cleanup, nil
}

// recordRun writes the run to the ledger when one is available. Ledger
// failures never change the command's outcome.
func recordRun(ctx context.Context, infra *infrastructure.Infrastructure, summary *conversion.Summary, runErr error) {
	if infra.Database == nil {
		return
	}

	ledger := runs.New(infra.Database.Connection(), infra.Logger)
	if _, err := ledger.Record(context.WithoutCancel(ctx), summary, runErr); err != nil {
		infra.Logger.Warn("run not recorded", "run_id", summary.RunID, "error", err)
	}
}

func printFailures(w io.Writer, failures []conversion.Failure) {
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{f.Member, f.Err.Error()})
	}
	fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d member(s) skipped:", len(failures))))
	fmt.Fprintln(w, renderTable([]string{"Member", "Error"}, rows, nil))
}
