// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package modelstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Fetcher downloads the content of url into w.
type Fetcher interface {
	Fetch(ctx context.Context, url string, w io.Writer) error
}

// HTTPFetcher fetches archives with a plain GET request.
type HTTPFetcher struct {
	// Client defaults to [http.DefaultClient].
	Client *http.Client
}

// Fetch implements [Fetcher].
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("cannot read response: %w", err)
	}
	return nil
}
