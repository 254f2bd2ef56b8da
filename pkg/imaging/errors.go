package imaging

import "errors"

var (
	// ErrUnsupportedFormat indicates the file extension is not a supported raster type.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrDecode indicates the image data is corrupt or cannot be decoded.
	ErrDecode = errors.New("image decode failed")
	// ErrInvalidDPI indicates a non-positive resolution was requested.
	ErrInvalidDPI = errors.New("dpi must be positive")
	// ErrWrite indicates the single-page document could not be written.
	ErrWrite = errors.New("page write failed")
)
