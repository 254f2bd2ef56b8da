package runs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/conversion"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/repository"
)

// DefaultListLimit bounds List when a non-positive limit is given.
const DefaultListLimit = 20

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a run ledger backed by db.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "runs"),
	}
}

func (r *repo) Record(ctx context.Context, s *conversion.Summary, runErr error) (*Run, error) {
	run := FromSummary(s, runErr)

	insertRun := `
		INSERT INTO runs(` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	insertFailure := `
		INSERT INTO run_failures(run_id, member, error)
		VALUES ($1, $2, $3)`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx, insertRun,
			run.ID, run.Archive, run.Output, run.DPI, run.Workers,
			run.Succeeded, run.Failed, run.OutputBytes,
			run.Status, run.Error, run.StartedAt, run.CompletedAt,
		); err != nil {
			return struct{}{}, err
		}

		for _, f := range run.Failures {
			if err := repository.ExecExpectOne(ctx, tx, insertFailure, run.ID, f.Member, f.Error); err != nil {
				return struct{}{}, fmt.Errorf("failure %s: %w", f.Member, err)
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("record run %s: %w", run.ID, repository.MapError(err, ErrNotFound, ErrDuplicate))
	}

	r.logger.Debug("run recorded", "run_id", run.ID, "status", run.Status)
	return &run, nil
}

func (r *repo) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	q := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC LIMIT $1`

	list, err := repository.QueryMany(ctx, r.db, q, []any{limit}, scanRun)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return list, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`

	run, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	run.Failures, err = repository.QueryMany(
		ctx, r.db,
		`SELECT member, error FROM run_failures WHERE run_id = $1 ORDER BY member`,
		[]any{id},
		scanFailure,
	)
	if err != nil {
		return nil, fmt.Errorf("find run failures: %w", err)
	}

	return &run, nil
}
