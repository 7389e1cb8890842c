package journal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPRemote talks to a JSON object store speaking the usual
// ETag/If-Match conditional-write convention. The token is the ETag,
// passed through opaquely.
type HTTPRemote struct {
	// URL addresses the single shared journal document.
	URL string
	// Credential is the bearer token for writes. Reads work without
	// one; writes fail with ErrStorageUnavailable.
	Credential string
	Client     *http.Client
}

const maxDocumentBytes = 4 << 20

func (r *HTTPRemote) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return http.DefaultClient
}

// Load fetches the document and its ETag. A 404 means the object has
// never been written; that reads as absent, not as an error.
func (r *HTTPRemote) Load(ctx context.Context) ([]byte, string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, "", false, fmt.Errorf("journal: building fetch request: %w", err)
	}
	if r.Credential != "" {
		req.Header.Set("Authorization", "Bearer "+r.Credential)
	}

	resp, err := r.client().Do(req)
	if err != nil {
		return nil, "", false, fmt.Errorf("journal: fetching remote list: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, "", false, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, "", false, fmt.Errorf("journal: remote fetch returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, "", false, fmt.Errorf("journal: reading remote list: %w", err)
	}
	return data, resp.Header.Get("ETag"), true, nil
}

// Store writes the document conditioned on token. With no token (the
// object did not exist at fetch time) the write requires that it still
// does not, so two first-writers cannot clobber each other.
func (r *HTTPRemote) Store(ctx context.Context, data []byte, token string) (string, error) {
	if r.Credential == "" {
		return "", ErrStorageUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, r.URL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("journal: building store request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.Credential)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("If-Match", token)
	} else {
		req.Header.Set("If-None-Match", "*")
	}

	resp, err := r.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("journal: writing remote list: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode == http.StatusPreconditionFailed:
		return "", ErrStaleVersion
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("journal: remote store returned %s", resp.Status)
	}
	return resp.Header.Get("ETag"), nil
}
