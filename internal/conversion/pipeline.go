// Package conversion turns an archive of page images into one PDF document.
// Pages are converted concurrently by a bounded worker pool; the final page
// order is always the natural-sort order of member names, independent of
// which worker finished first.
package conversion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/archive"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/imaging"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/natsort"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/pdfdoc"
)

const workspacePattern = "docflow-*"

// Options describes one conversion run.
type Options struct {
	Archive       string
	Output        string
	DPI           int
	Workers       int
	TempDir       string
	MaxMemberSize int64
}

func (o Options) validate() error {
	if o.Archive == "" {
		return fmt.Errorf("%w: archive path required", ErrInvalidOptions)
	}
	if o.Output == "" {
		return fmt.Errorf("%w: output path required", ErrInvalidOptions)
	}
	if o.DPI <= 0 {
		return fmt.Errorf("%w: dpi must be positive, got %d", ErrInvalidOptions, o.DPI)
	}
	return nil
}

// OpenFunc opens the source archive for a run.
type OpenFunc func(path string, maxMemberSize int64) (Archive, error)

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithObserver reports task and merge progress to obs.
func WithObserver(obs Observer) PipelineOption {
	return func(p *Pipeline) {
		p.observer = obs
	}
}

// WithNormalizer replaces the image normalizer.
func WithNormalizer(n Normalizer) PipelineOption {
	return func(p *Pipeline) {
		p.normalizer = n
	}
}

// WithMerger replaces the document merger.
func WithMerger(m Merger) PipelineOption {
	return func(p *Pipeline) {
		p.merger = m
	}
}

// WithOpener replaces how the source archive is opened.
func WithOpener(fn OpenFunc) PipelineOption {
	return func(p *Pipeline) {
		p.open = fn
	}
}

// Pipeline orchestrates a conversion run.
type Pipeline struct {
	open       OpenFunc
	normalizer Normalizer
	merger     Merger
	observer   Observer
	logger     *slog.Logger
}

// NewPipeline creates a pipeline backed by the zip archive reader, the
// pdfcpu-based normalizer, and the pdfcpu merger unless overridden.
func NewPipeline(logger *slog.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		open:       openZip,
		normalizer: imaging.New(),
		merger:     pdfdoc.New(),
		observer:   NopObserver{},
		logger:     logger.With("system", "conversion"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run converts the archive to a single document. The scoped workspace is
// removed before Run returns on every path. When the pool ran, the returned
// Summary is populated even if a later fatal error is returned.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Summary, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:     uuid.New(),
		Archive:   opts.Archive,
		Output:    opts.Output,
		DPI:       opts.DPI,
		Workers:   ClampWorkers(opts.Workers),
		StartedAt: time.Now(),
	}
	logger := p.logger.With("run_id", summary.RunID)

	workspace, err := os.MkdirTemp(opts.TempDir, workspacePattern)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workspace); err != nil {
			logger.Error("workspace cleanup failed", "workspace", workspace, "error", err)
		}
	}()

	src, err := p.open(opts.Archive, opts.MaxMemberSize)
	if err != nil {
		return nil, err
	}

	names := qualifying(src.List())
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no supported images in %s", ErrNoPages, filepath.Base(opts.Archive))
	}

	lock, err := lockOutput(opts.Output)
	if err != nil {
		return nil, err
	}
	defer unlockOutput(lock, logger)

	tasks := buildTasks(src.List(), names, workspace, opts.DPI)

	logger.Info(
		"conversion started",
		"archive", opts.Archive,
		"tasks", len(tasks),
		"workers", summary.Workers,
		"dpi", opts.DPI,
	)

	p.observer.Started(len(tasks))
	pool := NewPool(summary.Workers, src, p.normalizer, logger, p.observer)
	outcome, err := pool.Run(ctx, tasks)

	summary.Succeeded = len(outcome.Pages)
	summary.Failed = len(outcome.Failures)
	summary.Failures = outcome.Failures

	if err != nil {
		summary.CompletedAt = time.Now()
		return summary, fmt.Errorf("conversion interrupted: %w", err)
	}

	pages := Order(names, outcome.Pages)
	if len(pages) == 0 {
		summary.CompletedAt = time.Now()
		return summary, fmt.Errorf("%w: all %d conversions failed", ErrNoPages, len(tasks))
	}

	if err := ctx.Err(); err != nil {
		summary.CompletedAt = time.Now()
		return summary, fmt.Errorf("conversion interrupted: %w", err)
	}

	p.observer.Merging(len(pages))
	if err := p.merger.Merge(pages, opts.Output); err != nil {
		summary.CompletedAt = time.Now()
		if !errors.Is(err, ErrMergeWrite) && !errors.Is(err, ErrNoPages) {
			err = fmt.Errorf("%w: %w", ErrMergeWrite, err)
		}
		return summary, err
	}

	if info, err := os.Stat(opts.Output); err == nil {
		summary.OutputBytes = info.Size()
	}
	summary.CompletedAt = time.Now()

	logger.Info(
		"conversion complete",
		"output", opts.Output,
		"pages", summary.Succeeded,
		"failed", summary.Failed,
		"elapsed", summary.Elapsed(),
	)

	return summary, nil
}

// Order returns the page paths of the converted members in natural-sort
// order of their names. Names absent from results are skipped.
func Order(names []string, results ResultSet) []string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	natsort.Sort(sorted)

	pages := make([]string, 0, len(results))
	for _, name := range sorted {
		if path, ok := results[name]; ok {
			pages = append(pages, path)
		}
	}
	return pages
}

// qualifying returns the distinct names of supported members, in archive order.
func qualifying(members []archive.Member) []string {
	seen := make(map[string]struct{}, len(members))
	var names []string
	for _, m := range members {
		if !archive.Supported(m.Name) {
			continue
		}
		if _, dup := seen[m.Name]; dup {
			continue
		}
		seen[m.Name] = struct{}{}
		names = append(names, m.Name)
	}
	return names
}

func buildTasks(members []archive.Member, names []string, workspace string, dpi int) []Task {
	sizes := make(map[string]int64, len(members))
	for _, m := range members {
		if _, ok := sizes[m.Name]; !ok {
			sizes[m.Name] = m.Size
		}
	}

	tasks := make([]Task, len(names))
	for i, name := range names {
		dir := filepath.Join(workspace, fmt.Sprintf("task-%05d", i))
		tasks[i] = Task{
			Member: archive.Member{Name: name, Size: sizes[name]},
			Dir:    dir,
			Output: filepath.Join(dir, "page.pdf"),
			DPI:    dpi,
		}
	}
	return tasks
}

func lockOutput(output string) (*flock.Flock, error) {
	lock := flock.New(output + ".lock")

	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: lock %s: %w", ErrMergeWrite, output, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, output)
	}
	return lock, nil
}

func unlockOutput(lock *flock.Flock, logger *slog.Logger) {
	if err := lock.Unlock(); err != nil {
		logger.Warn("output unlock failed", "lock", lock.Path(), "error", err)
	}
	if err := os.Remove(lock.Path()); err != nil && !os.IsNotExist(err) {
		logger.Warn("lock file removal failed", "lock", lock.Path(), "error", err)
	}
}

func openZip(path string, maxMemberSize int64) (Archive, error) {
	return archive.Open(path, archive.WithMaxMemberSize(maxMemberSize))
}
