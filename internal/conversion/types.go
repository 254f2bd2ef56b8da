package conversion

import (
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/archive"
)

// Extractor copies one archive member into a directory.
type Extractor interface {
	Extract(name, dir string) (string, error)
}

// Archive is an opened source archive.
type Archive interface {
	Extractor
	List() []archive.Member
}

// Normalizer writes a single-page document for one image.
type Normalizer interface {
	Normalize(src, dst string, dpi int) (string, error)
}

// Merger concatenates ordered single-page documents into output.
type Merger interface {
	Merge(pages []string, output string) error
}

// Task converts one archive member. Dir and Output are unique per task.
type Task struct {
	Member archive.Member
	Dir    string
	Output string
	DPI    int
}

// Result is the message a worker emits for exactly one task.
// Path is empty when Err is set.
type Result struct {
	Member string
	Path   string
	Err    error
}

// ResultSet maps member names to converted page paths. Failed members are absent.
type ResultSet map[string]string

// Failure records a contained task failure.
type Failure struct {
	Member string
	Err    error
}

// Outcome is everything the pool collected for a batch.
type Outcome struct {
	Pages    ResultSet
	Failures []Failure
}

// Summary describes a completed (or fatally stopped) run.
type Summary struct {
	RunID       uuid.UUID
	Archive     string
	Output      string
	DPI         int
	Workers     int
	Succeeded   int
	Failed      int
	Failures    []Failure
	OutputBytes int64
	StartedAt   time.Time
	CompletedAt time.Time
}

// Total returns the number of tasks that were scheduled.
func (s *Summary) Total() int {
	return s.Succeeded + s.Failed
}

// Elapsed returns the wall-clock duration of the run.
func (s *Summary) Elapsed() time.Duration {
	return s.CompletedAt.Sub(s.StartedAt)
}

// ClampWorkers returns n, raised to 1 when it is zero or negative.
func ClampWorkers(n int) int {
	return max(n, 1)
}

// DefaultWorkers leaves one CPU for the collector and the merge, with a floor of 1.
func DefaultWorkers() int {
	return ClampWorkers(runtime.NumCPU() - 1)
}
