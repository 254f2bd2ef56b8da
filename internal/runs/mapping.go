package runs

import "github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/repository"

const runColumns = `id, archive, output, dpi, workers, succeeded, failed, output_bytes,
	status, error, started_at, completed_at`

func scanRun(s repository.Scanner) (Run, error) {
	var r Run
	err := s.Scan(
		&r.ID,
		&r.Archive,
		&r.Output,
		&r.DPI,
		&r.Workers,
		&r.Succeeded,
		&r.Failed,
		&r.OutputBytes,
		&r.Status,
		&r.Error,
		&r.StartedAt,
		&r.CompletedAt,
	)
	return r, err
}

func scanFailure(s repository.Scanner) (Failure, error) {
	var f Failure
	err := s.Scan(&f.Member, &f.Error)
	return f, err
}
