// Package search looks up web snippets with the Google Custom Search JSON API.
package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

const (
	// NoResults is returned when the search has no items.
	NoResults = "No results found."

	// MaxQueryBytes bounds the query sent to the API. Email bodies are used
	// as queries and can be arbitrarily long.
	MaxQueryBytes = 2048
)

// Client queries one programmable search engine.
type Client struct {
	svc      *customsearch.Service
	engineID string
}

// NewClient creates a search client for engine engineID authenticated with
// apiKey. Extra options are applied after the key.
func NewClient(ctx context.Context, apiKey, engineID string, opts ...option.ClientOption) (*Client, error) {
	if engineID == "" {
		return nil, fmt.Errorf("search engine id is required")
	}

	allOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, allOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Custom Search service: %w", err)
	}

	return &Client{svc: svc, engineID: engineID}, nil
}

// Search returns the snippet of the first result, or NoResults.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	q := TruncateQuery(strings.TrimSpace(query))
	if q == "" {
		return NoResults, nil
	}

	res, err := c.svc.Cse.List().
		Q(q).
		Cx(c.engineID).
		Num(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to search: %w", err)
	}

	if len(res.Items) == 0 || res.Items[0] == nil {
		return NoResults, nil
	}
	return res.Items[0].Snippet, nil
}

// TruncateQuery cuts q to at most MaxQueryBytes without splitting a rune.
func TruncateQuery(q string) string {
	if len(q) <= MaxQueryBytes {
		return q
	}
	cut := MaxQueryBytes
	for cut > 0 && !utf8.RuneStart(q[cut]) {
		cut--
	}
	return q[:cut]
}
