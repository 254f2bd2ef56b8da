package alto

import "errors"

var (
	// ErrParse indicates a descriptor is not well-formed XML.
	ErrParse = errors.New("unreadable alto descriptor")
	// ErrFileNameMissing indicates a descriptor has no sourceImageInformation/fileName.
	ErrFileNameMissing = errors.New("alto fileName element not found")
	// ErrUnsafePath indicates an archive member would extract outside its directory.
	ErrUnsafePath = errors.New("archive member escapes extraction directory")
)
