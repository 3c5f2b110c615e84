// Copyright (c) Graphwise. All rights reserved.

package ttyg

import (
	"context"
	"fmt"
	"log/slog"
)

// ToolResult is the tagged outcome of one tool dispatch. The assistant
// service requires a result for every tool call it issues, so failures are
// data here, never errors.
type ToolResult struct {
	CallID  string
	Output  string
	IsError bool
}

// Dispatcher translates tool-call requests from the assistant into calls
// against the graph-query service.
type Dispatcher struct {
	tools  ToolClient
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given graph-query client.
func NewDispatcher(tools ToolClient, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{tools: tools, logger: logger}
}

// Dispatch executes one tool call. Tool names are forwarded as-is; the graph
// service is the authority on which tools exist. A backend or transport
// failure is converted into an error-tagged result telling the model not to
// retry, matching what the conversation protocol expects.
func (d *Dispatcher) Dispatch(ctx context.Context, assistantID string, call ToolCall) ToolResult {
	output, err := d.tools.Execute(ctx, assistantID, call.Name, call.Arguments)
	if err != nil {
		d.logger.WarnContext(ctx, "tool call failed",
			"tool", call.Name,
			"assistant_id", assistantID,
			"error", err,
		)
		return ToolResult{
			CallID:  call.CallID,
			Output:  fmt.Sprintf("Fatal error calling tool %s. Do not retry and inform the user.", call.Name),
			IsError: true,
		}
	}
	return ToolResult{CallID: call.CallID, Output: output}
}
