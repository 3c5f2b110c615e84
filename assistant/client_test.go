// Copyright (c) Graphwise. All rights reserved.

package assistant_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/graphwise/ttyg-client/assistant"
	"github.com/graphwise/ttyg-client/ttyg"
)

// mockTransportFunc is a RoundTripper that delegates to a function.
type mockTransportFunc func(*http.Request) (*http.Response, error)

func (f mockTransportFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newMockHTTPClient(fn func(*http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{Transport: mockTransportFunc(fn)}
}

func jsonResponse(status int, body any) *http.Response {
	b, _ := json.Marshal(body)
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(b)),
	}
}

func TestClient_CreateThread(t *testing.T) {
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		if req.Method != "POST" {
			t.Errorf("method = %q", req.Method)
		}
		if req.URL.Path != "/v1/threads" {
			t.Errorf("path = %q", req.URL.Path)
		}
		if got := req.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth = %q", got)
		}
		if got := req.Header.Get("OpenAI-Beta"); got != "assistants=v2" {
			t.Errorf("OpenAI-Beta = %q", got)
		}

		body, _ := io.ReadAll(req.Body)
		var reqBody map[string]any
		json.Unmarshal(body, &reqBody)
		meta, _ := reqBody["metadata"].(map[string]any)
		if meta["graphdb.installationId"] != "inst-1" {
			t.Errorf("metadata = %v", reqBody["metadata"])
		}

		return jsonResponse(200, map[string]any{
			"id":       "thread_abc",
			"metadata": map[string]string{"graphdb.installationId": "inst-1"},
		}), nil
	})

	client := assistant.New("test-key", assistant.WithHTTPClient(httpClient))
	thread, err := client.CreateThread(context.Background(), map[string]string{
		"graphdb.installationId": "inst-1",
	})
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	if thread.ID != "thread_abc" {
		t.Errorf("thread.ID = %q", thread.ID)
	}
}

func TestClient_AzureRequestShape(t *testing.T) {
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		if got := req.URL.Query().Get("api-version"); got != "2024-05-01-preview" {
			t.Errorf("api-version = %q", got)
		}
		// The Azure api-key header replaces bearer authentication.
		if got := req.Header.Get("api-key"); got != "azure-key" {
			t.Errorf("api-key = %q", got)
		}
		if got := req.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want unset", got)
		}
		return jsonResponse(200, map[string]any{"id": "thread_1"}), nil
	})

	client := assistant.New("",
		assistant.WithBaseURL("https://example.openai.azure.com/openai"),
		assistant.WithAPIVersion("2024-05-01-preview"),
		assistant.WithHeaders(map[string]string{"api-key": "azure-key"}),
		assistant.WithHTTPClient(httpClient),
	)
	if _, err := client.RetrieveThread(context.Background(), "thread_1"); err != nil {
		t.Fatalf("RetrieveThread: %v", err)
	}
}

func TestClient_CreateRun_RequiresAction(t *testing.T) {
	apiResp := map[string]any{
		"id":        "run_1",
		"thread_id": "thread_1",
		"status":    "requires_action",
		"required_action": map[string]any{
			"type": "submit_tool_outputs",
			"submit_tool_outputs": map[string]any{
				"tool_calls": []map[string]any{{
					"id":   "call_1",
					"type": "function",
					"function": map[string]any{
						"name":      "sparql_query",
						"arguments": `{"query":"SELECT * WHERE { ?s ?p ?o }"}`,
					},
				}},
			},
		},
	}
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/threads/thread_1/runs" {
			t.Errorf("path = %q", req.URL.Path)
		}
		body, _ := io.ReadAll(req.Body)
		var reqBody map[string]any
		json.Unmarshal(body, &reqBody)
		if reqBody["assistant_id"] != "asst_1" {
			t.Errorf("assistant_id = %v", reqBody["assistant_id"])
		}
		return jsonResponse(200, apiResp), nil
	})

	client := assistant.New("test-key", assistant.WithHTTPClient(httpClient))
	run, err := client.CreateRun(context.Background(), "thread_1", "asst_1")
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if run.Status != ttyg.RunStatusRequiresAction {
		t.Errorf("status = %q", run.Status)
	}
	if len(run.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d", len(run.ToolCalls))
	}
	call := run.ToolCalls[0]
	if call.CallID != "call_1" || call.Name != "sparql_query" {
		t.Errorf("call = %+v", call)
	}
}

func TestClient_SubmitToolOutputs(t *testing.T) {
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/threads/thread_1/runs/run_1/submit_tool_outputs" {
			t.Errorf("path = %q", req.URL.Path)
		}
		body, _ := io.ReadAll(req.Body)
		var reqBody struct {
			ToolOutputs []struct {
				ToolCallID string `json:"tool_call_id"`
				Output     string `json:"output"`
			} `json:"tool_outputs"`
		}
		json.Unmarshal(body, &reqBody)
		if len(reqBody.ToolOutputs) != 1 || reqBody.ToolOutputs[0].ToolCallID != "call_1" {
			t.Errorf("tool_outputs = %+v", reqBody.ToolOutputs)
		}
		return jsonResponse(200, map[string]any{
			"id": "run_1", "thread_id": "thread_1", "status": "in_progress",
		}), nil
	})

	client := assistant.New("test-key", assistant.WithHTTPClient(httpClient))
	run, err := client.SubmitToolOutputs(context.Background(), "thread_1", "run_1", []ttyg.ToolOutput{
		{CallID: "call_1", Output: "42 results"},
	})
	if err != nil {
		t.Fatalf("SubmitToolOutputs: %v", err)
	}
	if run.Status != ttyg.RunStatusInProgress {
		t.Errorf("status = %q", run.Status)
	}
}

func TestClient_ListMessages(t *testing.T) {
	apiResp := map[string]any{
		"data": []map[string]any{{
			"id":   "msg_2",
			"role": "assistant",
			"content": []map[string]any{{
				"type": "text",
				"text": map[string]any{"value": "The graph has 42 nodes."},
			}},
		}},
	}
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/threads/thread_1/messages" {
			t.Errorf("path = %q", req.URL.Path)
		}
		q := req.URL.Query()
		if q.Get("limit") != "1" || q.Get("order") != "desc" {
			t.Errorf("query = %v", q)
		}
		return jsonResponse(200, apiResp), nil
	})

	client := assistant.New("test-key", assistant.WithHTTPClient(httpClient))
	msgs, err := client.ListMessages(context.Background(), "thread_1", 1)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Role != "assistant" || msgs[0].Text != "The graph has 42 nodes." {
		t.Errorf("msgs = %+v", msgs)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     any
		sentinel error
	}{
		{
			name:     "not found",
			status:   404,
			body:     map[string]any{"error": map[string]any{"message": "No thread found with id 'thread_x'."}},
			sentinel: ttyg.ErrNotFound,
		},
		{
			name:     "unauthorized",
			status:   401,
			body:     map[string]any{"error": map[string]any{"message": "Incorrect API key provided.", "code": "invalid_api_key"}},
			sentinel: ttyg.ErrAssistantService,
		},
		{
			name:     "server error",
			status:   500,
			body:     map[string]any{"error": map[string]any{"message": "The server had an error."}},
			sentinel: ttyg.ErrAssistantService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpClient := newMockHTTPClient(func(*http.Request) (*http.Response, error) {
				return jsonResponse(tt.status, tt.body), nil
			})
			client := assistant.New("test-key", assistant.WithHTTPClient(httpClient))

			_, err := client.RetrieveThread(context.Background(), "thread_x")
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("err = %v, want %v", err, tt.sentinel)
			}
			var svcErr *ttyg.ServiceError
			if !errors.As(err, &svcErr) {
				t.Fatalf("err = %T, want *ttyg.ServiceError", err)
			}
			if svcErr.StatusCode != tt.status {
				t.Errorf("status = %d", svcErr.StatusCode)
			}
		})
	}
}

func TestClient_NetworkErrorIsRemoteUnavailable(t *testing.T) {
	httpClient := newMockHTTPClient(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
	client := assistant.New("test-key", assistant.WithHTTPClient(httpClient))

	_, err := client.RetrieveThread(context.Background(), "thread_1")
	if !errors.Is(err, ttyg.ErrRemoteUnavailable) {
		t.Fatalf("err = %v, want ErrRemoteUnavailable", err)
	}
}

func TestClient_ContextCancellationPassesThrough(t *testing.T) {
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return nil, req.Context().Err()
	})
	client := assistant.New("test-key", assistant.WithHTTPClient(httpClient))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.RetrieveThread(ctx, "thread_1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, ttyg.ErrRemoteUnavailable) {
		t.Error("cancellation must not be reported as remote unavailability")
	}
}
