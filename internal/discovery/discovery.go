// Package discovery resolves a taxid selection to the list of WGS project
// ids currently published for it, via the NCBI BLAST lookup endpoint.
package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is the NCBI taxid-to-WGS lookup service.
const DefaultEndpoint = "https://www.ncbi.nlm.nih.gov/blast/BDB2EZ/taxid2wgs.cgi"

// vdbPrefix is stripped from each response token to obtain the project id.
const vdbPrefix = "WGS_VDB://"

// Options configures the discovery client.
type Options struct {
	// Endpoint is the lookup service URL.
	// Default: DefaultEndpoint
	Endpoint string

	// Timeout for the lookup request.
	// Default: 30s
	Timeout time.Duration
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Endpoint: DefaultEndpoint,
		Timeout:  30 * time.Second,
	}
}

// Client queries the lookup service.
type Client struct {
	http     *http.Client
	endpoint string
}

// NewClient creates a discovery client with the given options.
func NewClient(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		http:     &http.Client{Timeout: opts.Timeout},
		endpoint: opts.Endpoint,
	}
}

// Projects issues one lookup request for the include/exclude taxid pair and
// returns the raw ordered list of project ids. The exclude selector may be
// empty. The response is split on newlines only; no further validation is
// performed.
func (c *Client) Projects(ctx context.Context, include, exclude string) ([]string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("discovery: parse endpoint: %w", err)
	}
	q := url.Values{}
	q.Set("INCLUDE_TAXIDS", include)
	q.Set("EXCLUDE_TAXIDS", exclude)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery: unexpected status: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("discovery: read response: %w", err)
	}

	var projects []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		token := strings.TrimSpace(line)
		if token == "" {
			continue
		}
		projects = append(projects, strings.TrimPrefix(token, vdbPrefix))
	}
	return projects, nil
}
