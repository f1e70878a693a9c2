// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

// Package fetch retrieves deployed bundle assets over HTTP and reports
// the transport metadata the codec negotiation depends on.
//
// The one subtlety is the transport-encoding indicator. When an asset
// is served with a Content-Encoding the HTTP transport understands,
// the transport decodes the body in flight and the fetched bytes are
// already native — the indicator carries the codec name so the caller
// knows not to decode again. When the asset is served as an opaque
// compressed file (no Content-Encoding, or one the transport does not
// speak), the indicator is empty and the bytes are raw. The indicator
// is derived from response metadata only, never from sniffing the
// body. Proxies that partially rewrite encoding headers can defeat
// this; that is an accepted environmental assumption of compressed
// asset delivery, not something this package tries to repair.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// MaxBodySize bounds asset body reads: 1 GB. Exists solely to stop a
// pathological response from exhausting memory; real bundle assets are
// far smaller.
const MaxBodySize int64 = 1 << 30

// Result is the outcome of one successful fetch. It is owned
// exclusively by the caller that issued the fetch.
type Result struct {
	// Body is the response bytes: native when TransportEncoding is
	// set, raw (possibly still compressed) otherwise.
	Body []byte

	// TransportEncoding names the content encoding the transport
	// layer already decoded, or "" when it decoded nothing.
	TransportEncoding string

	// Status is the HTTP status code.
	Status int
}

// Fetcher retrieves a named asset. Implementations do not retry — the
// caller decides what a failure means.
type Fetcher interface {
	Fetch(ctx context.Context, resource string) (*Result, error)
}

// ClientConfig holds configuration for creating an HTTPFetcher.
type ClientConfig struct {
	// BaseURL is the bundle root, e.g. "https://app.example.com/cad".
	// Resource paths are joined beneath it.
	BaseURL string

	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// HTTPFetcher fetches assets by GET from a base URL.
type HTTPFetcher struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPFetcher creates a fetcher for the bundle rooted at
// config.BaseURL.
func NewHTTPFetcher(config ClientConfig) (*HTTPFetcher, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("fetch: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("fetch: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPFetcher{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Fetch GETs resource beneath the base URL and returns the body with
// its transport metadata. A non-2xx status or a network failure is a
// *FetchError; there is no retry.
func (f *HTTPFetcher) Fetch(ctx context.Context, resource string) (*Result, error) {
	requestURL := f.baseURL + "/" + strings.TrimLeft(resource, "/")

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &FetchError{Resource: resource, Err: err}
	}

	response, err := f.httpClient.Do(request)
	if err != nil {
		return nil, &FetchError{Resource: resource, Err: err}
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		// Drain a little of the body for the error message; a partial
		// body is still useful diagnostics.
		detail, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return nil, &FetchError{
			Resource: resource,
			Status:   response.StatusCode,
			Err:      fmt.Errorf("server said: %s", strings.TrimSpace(string(detail))),
		}
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, MaxBodySize+1))
	if err != nil {
		return nil, &FetchError{Resource: resource, Status: response.StatusCode, Err: err}
	}
	if int64(len(body)) > MaxBodySize {
		return nil, &FetchError{
			Resource: resource,
			Status:   response.StatusCode,
			Err:      fmt.Errorf("body exceeds %d byte bound", MaxBodySize),
		}
	}

	// Response.Uncompressed is set when the transport requested gzip
	// and decoded it in flight. That is the only encoding Go's
	// transport speaks, and it mirrors the browser behavior this
	// pipeline was designed around: honored Content-Encoding means
	// the delivered bytes are native.
	transportEncoding := ""
	if response.Uncompressed {
		transportEncoding = "gzip"
	}

	f.logger.Debug("fetched asset",
		"resource", resource,
		"status", response.StatusCode,
		"bytes", len(body),
		"transport_encoding", transportEncoding,
	)

	return &Result{
		Body:              body,
		TransportEncoding: transportEncoding,
		Status:            response.StatusCode,
	}, nil
}

// FetchError reports a failed asset retrieval: network error, bad
// URL, oversized body, or a non-2xx status (Status is zero when no
// response arrived).
type FetchError struct {
	// Resource identifies the asset whose fetch failed.
	Resource string

	// Status is the HTTP status code, or zero if the request never
	// produced a response.
	Status int

	// Err is the underlying cause.
	Err error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: status %d: %v", e.Resource, e.Status, e.Err)
	}
	return fmt.Sprintf("fetching %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
