package conversion

import (
	"errors"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/archive"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/pdfdoc"
)

// Fatal errors returned by Pipeline.Run. Per-task errors never surface here;
// they are recorded as Failures in the Summary.
var (
	ErrArchiveUnreadable = archive.ErrUnreadable
	ErrNoPages           = pdfdoc.ErrNoPages
	ErrMergeWrite        = pdfdoc.ErrMergeWrite
	ErrOutputLocked      = errors.New("output is locked by another run")
	ErrInvalidOptions    = errors.New("invalid conversion options")
	ErrTaskPanic         = errors.New("conversion task panicked")
)
