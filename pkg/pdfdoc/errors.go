package pdfdoc

import "errors"

var (
	// ErrNoPages indicates a merge was requested with no input pages.
	ErrNoPages = errors.New("no pages to merge")
	// ErrMergeWrite indicates the merged document could not be written.
	ErrMergeWrite = errors.New("failed to write merged document")
)
