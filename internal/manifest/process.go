package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

// Summary reports the outcome of Process.
type Summary struct {
	Created  []string
	Existing []string
	Failures map[string]error
}

// Entry is one processed manifest.
type Entry struct {
	URL    string
	Prefix string
	Dir    string
}

// Load reads a JSON object mapping manifest URLs to name prefixes.
func Load(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifests: %w", err)
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifests %s: %w", path, err)
	}
	return m, nil
}

// Process fetches the label of every manifest, in URL order, creates a
// directory named after it under root, and writes "prefix -> dir/" to log.
// A failing manifest is reported and skipped.
func (c *Client) Process(
	ctx context.Context,
	manifests map[string]string,
	root string,
	maxLen int,
	log io.Writer,
) (Summary, error) {
	summary := Summary{Failures: map[string]error{}}

	for _, url := range slices.Sorted(maps.Keys(manifests)) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		entry, created, err := c.processOne(ctx, url, manifests[url], root, maxLen)
		if err != nil {
			c.logger.Warn("manifest skipped", "url", url, "error", err)
			summary.Failures[url] = err
			continue
		}

		if created {
			summary.Created = append(summary.Created, entry.Dir)
		} else {
			summary.Existing = append(summary.Existing, entry.Dir)
		}

		if _, err := fmt.Fprintf(log, "%s -> %s/\n", entry.Prefix, entry.Dir); err != nil {
			return summary, fmt.Errorf("write log: %w", err)
		}
	}

	return summary, nil
}

func (c *Client) processOne(ctx context.Context, url, prefix, root string, maxLen int) (Entry, bool, error) {
	label, err := c.FetchLabel(ctx, url)
	if err != nil {
		return Entry{}, false, err
	}

	dir := Kebab(label, maxLen)
	if dir == "" {
		return Entry{}, false, fmt.Errorf("%w: %s: label %q has no usable characters", ErrLabelMissing, url, label)
	}

	path := filepath.Join(root, dir)
	_, statErr := os.Stat(path)
	created := os.IsNotExist(statErr)

	if err := os.MkdirAll(path, 0o755); err != nil {
		return Entry{}, false, fmt.Errorf("create %s: %w", path, err)
	}

	c.logger.Debug("manifest directory ready", "url", url, "dir", dir, "created", created)
	return Entry{URL: url, Prefix: prefix, Dir: dir}, created, nil
}
