package archive

import "errors"

var (
	// ErrUnreadable indicates the archive could not be opened or is not a valid zip.
	ErrUnreadable = errors.New("archive unreadable")
	// ErrMemberMissing indicates a member could not be found or read from the archive.
	ErrMemberMissing = errors.New("archive member missing")
	// ErrMemberTooLarge indicates a member exceeds the configured uncompressed size limit.
	ErrMemberTooLarge = errors.New("archive member too large")
)
