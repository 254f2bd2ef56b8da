// Package manifest names working directories after IIIF manifest labels.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"
)

// maxManifestBytes caps how much of a response is decoded.
const maxManifestBytes = 32 << 20

// Client fetches IIIF manifests.
type Client struct {
	http      *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewClient creates a Client with the given request timeout and user agent.
func NewClient(timeout time.Duration, userAgent string, logger *slog.Logger) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger.With("system", "manifest"),
	}
}

// FetchLabel retrieves the manifest at url and returns its label.
func (c *Client) FetchLabel(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrFetch, url, err)
	}
	req.Header.Set("Accept", "application/ld+json, application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s: status %d", ErrFetch, url, resp.StatusCode)
	}

	var doc struct {
		Label json.RawMessage `json:"label"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxManifestBytes)).Decode(&doc); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalid, url, err)
	}

	label := ParseLabel(doc.Label)
	if label == "" {
		return "", fmt.Errorf("%w: %s", ErrLabelMissing, url)
	}
	return label, nil
}

// ParseLabel extracts a display label from a manifest label value. IIIF v3
// language maps prefer "en", then "none", then the first language in key
// order; IIIF v2 labels may be a string or a list of strings or @value objects.
func ParseLabel(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var langs map[string][]string
	if err := json.Unmarshal(raw, &langs); err == nil {
		keys := make([]string, 0, len(langs))
		for k := range langs {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		keys = slices.DeleteFunc(keys, func(k string) bool { return k == "en" || k == "none" })
		keys = append([]string{"en", "none"}, keys...)

		for _, k := range keys {
			if v := firstNonEmpty(langs[k]); v != "" {
				return v
			}
		}
		return ""
	}

	if v := valueObject(raw); v != "" {
		return v
	}

	var values []json.RawMessage
	if err := json.Unmarshal(raw, &values); err == nil {
		for _, v := range values {
			if label := ParseLabel(v); label != "" {
				return label
			}
		}
	}
	return ""
}

func valueObject(raw json.RawMessage) string {
	var obj struct {
		Value string `json:"@value"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	return strings.TrimSpace(obj.Value)
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
