package runs

import (
	"context"

	"github.com/google/uuid"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/conversion"
)

// System defines the run ledger operations.
type System interface {
	// Record stores a run and its failures in one transaction.
	Record(ctx context.Context, s *conversion.Summary, runErr error) (*Run, error)
	// List returns the most recent runs, newest first, without failures.
	List(ctx context.Context, limit int) ([]Run, error)
	// Find returns a run with its failures.
	Find(ctx context.Context, id uuid.UUID) (*Run, error)
}
