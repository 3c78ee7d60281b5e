package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestClientHostRequestBuildsUrlOnHost(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		io.WriteString(w, `{"ok":true}`)
	}))
	defer server.Close()

	c := ClientFactoryWithScheme("http", strings.TrimPrefix(server.URL, "http://"), "key", time.Second)

	endpoint := &url.URL{Path: "query", RawQuery: "function=GLOBAL_QUOTE"}
	res, err := c.Connection.Request(context.Background(), endpoint)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer res.Body.Close()

	if gotPath != "/query" {
		t.Errorf("expected path /query, got %s", gotPath)
	}
	if gotQuery != "function=GLOBAL_QUOTE" {
		t.Errorf("expected query to be forwarded, got %s", gotQuery)
	}
}

func TestClientHostRequestFailsOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := ClientFactoryWithScheme("http", strings.TrimPrefix(server.URL, "http://"), "key", time.Second)
	if _, err := c.Connection.Request(context.Background(), &url.URL{Path: "query"}); err == nil {
		t.Fatalf("expected error for non 200 status")
	}
}
