// Copyright (c) Graphwise. All rights reserved.

package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/graphwise/ttyg-client/ttyg"
)

// Client implements [ttyg.AssistantClient] against the Assistants API v2.
// Use [New] to create one.
type Client struct {
	tp transport
}

// Verify interface compliance at compile time.
var _ ttyg.AssistantClient = (*Client)(nil)

// New creates an assistant [Client] with the given API key and options.
//
//	client := assistant.New(cfg.APIKey,
//	    assistant.WithBaseURL(cfg.APIURL),
//	)
func New(apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}
	return &Client{tp: newHTTPTransport(apiKey, cfg)}
}

// newWithTransport creates a Client with a custom transport (for testing).
func newWithTransport(tp transport) *Client {
	return &Client{tp: tp}
}

// CreateThread allocates a new remote conversation handle.
func (c *Client) CreateThread(ctx context.Context, metadata map[string]string) (*ttyg.Thread, error) {
	var raw apiThread
	if err := c.call(ctx, "POST", "/threads", createThreadRequest{Metadata: metadata}, &raw); err != nil {
		return nil, err
	}
	return &ttyg.Thread{ID: raw.ID, Metadata: raw.Metadata}, nil
}

// RetrieveThread fetches an existing thread by ID.
func (c *Client) RetrieveThread(ctx context.Context, threadID string) (*ttyg.Thread, error) {
	var raw apiThread
	if err := c.call(ctx, "GET", "/threads/"+threadID, nil, &raw); err != nil {
		return nil, err
	}
	return &ttyg.Thread{ID: raw.ID, Metadata: raw.Metadata}, nil
}

// UpdateThreadMetadata merges metadata into an existing thread.
func (c *Client) UpdateThreadMetadata(ctx context.Context, threadID string, metadata map[string]string) error {
	return c.call(ctx, "POST", "/threads/"+threadID, updateThreadRequest{Metadata: metadata}, nil)
}

// DeleteThread removes a thread from the remote service.
func (c *Client) DeleteThread(ctx context.Context, threadID string) error {
	return c.call(ctx, "DELETE", "/threads/"+threadID, nil, nil)
}

// RetrieveAssistant fetches an assistant by ID.
func (c *Client) RetrieveAssistant(ctx context.Context, assistantID string) (*ttyg.Assistant, error) {
	var raw apiAssistant
	if err := c.call(ctx, "GET", "/assistants/"+assistantID, nil, &raw); err != nil {
		return nil, err
	}
	return &ttyg.Assistant{ID: raw.ID, Name: raw.Name, Metadata: raw.Metadata}, nil
}

// ListAssistants enumerates the available assistants.
func (c *Client) ListAssistants(ctx context.Context) ([]ttyg.Assistant, error) {
	var raw listEnvelope[apiAssistant]
	if err := c.call(ctx, "GET", "/assistants?limit=100", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]ttyg.Assistant, 0, len(raw.Data))
	for _, a := range raw.Data {
		out = append(out, ttyg.Assistant{ID: a.ID, Name: a.Name, Metadata: a.Metadata})
	}
	return out, nil
}

// CreateMessage appends a user message to a thread.
func (c *Client) CreateMessage(ctx context.Context, threadID, text string) error {
	req := createMessageRequest{Role: "user", Content: text}
	return c.call(ctx, "POST", "/threads/"+threadID+"/messages", req, nil)
}

// ListMessages returns up to limit messages, newest first.
func (c *Client) ListMessages(ctx context.Context, threadID string, limit int) ([]ttyg.ThreadMessage, error) {
	path := fmt.Sprintf("/threads/%s/messages?limit=%d&order=desc", threadID, limit)
	var raw listEnvelope[apiMessage]
	if err := c.call(ctx, "GET", path, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]ttyg.ThreadMessage, 0, len(raw.Data))
	for i := range raw.Data {
		out = append(out, parseMessage(&raw.Data[i]))
	}
	return out, nil
}

// CreateRun starts a new run of the assistant over the thread.
func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string) (*ttyg.Run, error) {
	var raw apiRun
	req := createRunRequest{AssistantID: assistantID}
	if err := c.call(ctx, "POST", "/threads/"+threadID+"/runs", req, &raw); err != nil {
		return nil, err
	}
	return parseRun(&raw), nil
}

// RetrieveRun fetches the current state of a run.
func (c *Client) RetrieveRun(ctx context.Context, threadID, runID string) (*ttyg.Run, error) {
	var raw apiRun
	if err := c.call(ctx, "GET", "/threads/"+threadID+"/runs/"+runID, nil, &raw); err != nil {
		return nil, err
	}
	return parseRun(&raw), nil
}

// SubmitToolOutputs delivers tool results and resumes the run.
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ttyg.ToolOutput) (*ttyg.Run, error) {
	req := submitToolOutputsRequest{}
	for _, o := range outputs {
		req.ToolOutputs = append(req.ToolOutputs, apiToolOutput{ToolCallID: o.CallID, Output: o.Output})
	}
	var raw apiRun
	path := "/threads/" + threadID + "/runs/" + runID + "/submit_tool_outputs"
	if err := c.call(ctx, "POST", path, req, &raw); err != nil {
		return nil, err
	}
	return parseRun(&raw), nil
}

// CancelRun requests cancellation of an in-flight run.
func (c *Client) CancelRun(ctx context.Context, threadID, runID string) error {
	return c.call(ctx, "POST", "/threads/"+threadID+"/runs/"+runID+"/cancel", nil, nil)
}

// call performs one request and decodes the JSON response into out, if given.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.tp.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response body: %v", ttyg.ErrAssistantService, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: parse response: %v", ttyg.ErrAssistantService, err)
	}
	return nil
}
