package manifest

import "errors"

var (
	// ErrFetch indicates the manifest could not be retrieved.
	ErrFetch = errors.New("manifest fetch failed")
	// ErrInvalid indicates the response is not a JSON manifest.
	ErrInvalid = errors.New("invalid manifest")
	// ErrLabelMissing indicates the manifest carries no usable label.
	ErrLabelMissing = errors.New("label not found in manifest")
)
