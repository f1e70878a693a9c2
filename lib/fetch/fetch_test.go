// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFetcher(t *testing.T, handler http.Handler) *HTTPFetcher {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	fetcher, err := NewHTTPFetcher(ClientConfig{
		BaseURL: server.URL,
		Logger:  testLogger(),
	})
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	return fetcher
}

func TestFetchRawBytes(t *testing.T) {
	body := []byte("raw compressed artifact bytes")
	fetcher := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/assets/app.wasm.zst" {
			t.Errorf("path = %q, want /assets/app.wasm.zst", r.URL.Path)
		}
		w.Write(body)
	}))

	result, err := fetcher.Fetch(context.Background(), "assets/app.wasm.zst")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !bytes.Equal(result.Body, body) {
		t.Errorf("body = %q, want %q", result.Body, body)
	}
	if result.TransportEncoding != "" {
		t.Errorf("TransportEncoding = %q, want empty (no Content-Encoding served)", result.TransportEncoding)
	}
	if result.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", result.Status)
	}
}

func TestFetchTransportDecodedGzip(t *testing.T) {
	native := []byte("function start(mount) { /* ... */ }")
	fetcher := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Serve gzip with the header set. The Go transport asks for
		// gzip by default and decodes it in flight, which is exactly
		// the "server decoded the content encoding" case the
		// indicator reports.
		w.Header().Set("Content-Encoding", "gzip")
		writer := gzip.NewWriter(w)
		writer.Write(native)
		writer.Close()
	}))

	result, err := fetcher.Fetch(context.Background(), "app.js.gz")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.TransportEncoding != "gzip" {
		t.Errorf("TransportEncoding = %q, want \"gzip\"", result.TransportEncoding)
	}
	if !bytes.Equal(result.Body, native) {
		t.Errorf("body not transport-decoded: got %d bytes, want %d", len(result.Body), len(native))
	}
}

func TestFetchStatusFailure(t *testing.T) {
	fetcher := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such bundle", http.StatusNotFound)
	}))

	_, err := fetcher.Fetch(context.Background(), "missing.bin")

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("got %v, want *FetchError", err)
	}
	if fetchErr.Status != http.StatusNotFound {
		t.Errorf("FetchError.Status = %d, want 404", fetchErr.Status)
	}
	if fetchErr.Resource != "missing.bin" {
		t.Errorf("FetchError.Resource = %q, want \"missing.bin\"", fetchErr.Resource)
	}
}

func TestFetchNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	serverURL := server.URL
	server.Close() // nothing is listening anymore

	fetcher, err := NewHTTPFetcher(ClientConfig{BaseURL: serverURL, Logger: testLogger()})
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}

	_, err = fetcher.Fetch(context.Background(), "app.js.gz")
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("got %v, want *FetchError", err)
	}
	if fetchErr.Status != 0 {
		t.Errorf("FetchError.Status = %d, want 0 (no response)", fetchErr.Status)
	}
}

func TestFetchContextCancellation(t *testing.T) {
	fetcher := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.Fetch(ctx, "app.js.gz")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled in the chain", err)
	}
}

func TestNewHTTPFetcherValidation(t *testing.T) {
	if _, err := NewHTTPFetcher(ClientConfig{}); err == nil {
		t.Error("empty BaseURL should be rejected")
	}
}

func TestFetchPathJoining(t *testing.T) {
	var seen string
	fetcher := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Path
	}))

	// A leading slash on the resource must not produce a double
	// slash against the trimmed base URL.
	if _, err := fetcher.Fetch(context.Background(), "/nested/app.js.gz"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if seen != "/nested/app.js.gz" {
		t.Errorf("request path = %q, want /nested/app.js.gz", seen)
	}
}
