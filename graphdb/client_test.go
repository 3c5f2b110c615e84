// Copyright (c) Graphwise. All rights reserved.

package graphdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/graphwise/ttyg-client/graphdb"
	"github.com/graphwise/ttyg-client/ttyg"
)

type mockTransportFunc func(*http.Request) (*http.Response, error)

func (f mockTransportFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newMockHTTPClient(fn func(*http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{Transport: mockTransportFunc(fn)}
}

func textResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"text/plain;charset=UTF-8"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestExecute(t *testing.T) {
	const args = `{"query":"SELECT * WHERE { ?s ?p ?o } LIMIT 5"}`

	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		if req.Method != "POST" {
			t.Errorf("method = %q", req.Method)
		}
		if got := req.URL.String(); got != "http://localhost:7200/rest/ttyg/agents/asst_1/sparql_query" {
			t.Errorf("url = %q", got)
		}
		if got := req.Header.Get("Content-Type"); got != "text/plain;charset=UTF-8" {
			t.Errorf("Content-Type = %q", got)
		}
		body, _ := io.ReadAll(req.Body)
		if string(body) != args {
			t.Errorf("body = %q", body)
		}
		user, pass, ok := req.BasicAuth()
		if !ok || user != "admin" || pass != "root" {
			t.Errorf("basic auth = %q/%q ok=%v", user, pass, ok)
		}
		return textResponse(200, "s,p,o\nurn:a,urn:b,urn:c"), nil
	})

	// Trailing slash in the base URL must not double up in the path.
	client := graphdb.New("http://localhost:7200/",
		graphdb.WithBasicAuth("admin", "root"),
		graphdb.WithHTTPClient(httpClient),
	)
	out, err := client.Execute(context.Background(), "asst_1", "sparql_query", args)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(out, "s,p,o") {
		t.Errorf("out = %q", out)
	}
}

func TestExecuteAuthHeaderOverridesBasicAuth(t *testing.T) {
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		if got := req.Header.Get("Authorization"); got != "GDB custom-token" {
			t.Errorf("Authorization = %q", got)
		}
		return textResponse(200, "ok"), nil
	})

	client := graphdb.New("http://localhost:7200",
		graphdb.WithBasicAuth("admin", "root"),
		graphdb.WithAuthHeader("GDB custom-token"),
		graphdb.WithHTTPClient(httpClient),
	)
	if _, err := client.Execute(context.Background(), "asst_1", "fts_search", `{"q":"x"}`); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}

func TestExecuteBackendError(t *testing.T) {
	httpClient := newMockHTTPClient(func(*http.Request) (*http.Response, error) {
		return textResponse(400, "MALFORMED QUERY: Lexical error at line 1\n"), nil
	})

	client := graphdb.New("http://localhost:7200", graphdb.WithHTTPClient(httpClient))
	_, err := client.Execute(context.Background(), "asst_1", "sparql_query", `{"query":"SELEC"}`)
	if err == nil {
		t.Fatal("expected an error")
	}

	var svcErr *ttyg.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("err = %T, want *ttyg.ServiceError", err)
	}
	if svcErr.StatusCode != 400 {
		t.Errorf("status = %d", svcErr.StatusCode)
	}
	if !strings.Contains(svcErr.Message, "MALFORMED QUERY") {
		t.Errorf("message = %q", svcErr.Message)
	}
	// A query the backend rejected is not an availability problem.
	if errors.Is(err, ttyg.ErrRemoteUnavailable) {
		t.Error("backend query errors must not map to ErrRemoteUnavailable")
	}
}

func TestExecuteNetworkError(t *testing.T) {
	httpClient := newMockHTTPClient(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})

	client := graphdb.New("http://localhost:7200", graphdb.WithHTTPClient(httpClient))
	_, err := client.Execute(context.Background(), "asst_1", "sparql_query", "{}")
	if !errors.Is(err, ttyg.ErrRemoteUnavailable) {
		t.Fatalf("err = %v, want ErrRemoteUnavailable", err)
	}
}

func TestExecuteUnknownToolForwarded(t *testing.T) {
	var requested string
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		requested = req.URL.Path
		return textResponse(404, "Unknown query method"), nil
	})

	client := graphdb.New("http://localhost:7200", graphdb.WithHTTPClient(httpClient))
	_, err := client.Execute(context.Background(), "asst_1", "no_such_tool", "{}")
	if err == nil {
		t.Fatal("expected an error")
	}
	if requested != "/rest/ttyg/agents/asst_1/no_such_tool" {
		t.Errorf("path = %q, tool names must be forwarded verbatim", requested)
	}
}
