// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrStatus is wrapped by every StatusError so callers can test for any
// non-200 upstream answer with errors.Is.
var ErrStatus = errors.New("unexpected HTTP status")

// StatusError reports a non-200 response from an upstream API.
type StatusError struct {
	API    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned HTTP %d", e.API, e.Code)
}

// Unwrap lets errors.Is(err, ErrStatus) match.
func (e *StatusError) Unwrap() error { return ErrStatus }

// IsNotFound reports whether err is a 404 StatusError.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Request describes a GET against a JSON API.
type Request struct {
	// API names the upstream for error messages (e.g. "ORCID").
	API string

	URL       string
	UserAgent string

	// MaxRetries is forwarded to DoWithRetry.
	MaxRetries int
}

// GetJSON issues the request with 429 retry and decodes a 200 response into v.
// Any other status becomes a *StatusError.
func GetJSON(ctx context.Context, client *http.Client, r Request, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", r.API, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.UserAgent != "" {
		req.Header.Set("User-Agent", r.UserAgent)
	}

	resp, err := DoWithRetry(ctx, client, req, r.MaxRetries)
	if err != nil {
		return fmt.Errorf("%s API request: %w", r.API, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{API: r.API, Code: resp.StatusCode, Status: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing %s response: %w", r.API, err)
	}
	return nil
}
