// Copyright (c) Graphwise. All rights reserved.

package assistant

import "github.com/graphwise/ttyg-client/ttyg"

// Wire types for the Assistants API v2.

type apiThread struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type apiAssistant struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type apiRun struct {
	ID             string          `json:"id"`
	ThreadID       string          `json:"thread_id"`
	Status         string          `json:"status"`
	RequiredAction *requiredAction `json:"required_action,omitempty"`
	LastError      *runError       `json:"last_error,omitempty"`
}

type requiredAction struct {
	Type              string             `json:"type"`
	SubmitToolOutputs *submitToolOutputs `json:"submit_tool_outputs,omitempty"`
}

type submitToolOutputs struct {
	ToolCalls []apiToolCall `json:"tool_calls"`
}

type apiToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type runError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiMessage struct {
	ID      string              `json:"id"`
	Role    string              `json:"role"`
	Content []apiMessageContent `json:"content"`
}

type apiMessageContent struct {
	Type string `json:"type"`
	Text *struct {
		Value string `json:"value"`
	} `json:"text,omitempty"`
}

type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

type createMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type createThreadRequest struct {
	Metadata map[string]string `json:"metadata,omitempty"`
}

type updateThreadRequest struct {
	Metadata map[string]string `json:"metadata"`
}

type createRunRequest struct {
	AssistantID string `json:"assistant_id"`
}

type submitToolOutputsRequest struct {
	ToolOutputs []apiToolOutput `json:"tool_outputs"`
}

type apiToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// parseRun converts an API run into the core representation.
func parseRun(raw *apiRun) *ttyg.Run {
	run := &ttyg.Run{
		ID:       raw.ID,
		ThreadID: raw.ThreadID,
		Status:   raw.Status,
	}
	if raw.LastError != nil {
		run.LastError = &ttyg.ServiceError{
			Code:    raw.LastError.Code,
			Message: raw.LastError.Message,
			Err:     ttyg.ErrAssistantService,
		}
	}
	if raw.RequiredAction != nil && raw.RequiredAction.SubmitToolOutputs != nil {
		for _, tc := range raw.RequiredAction.SubmitToolOutputs.ToolCalls {
			run.ToolCalls = append(run.ToolCalls, ttyg.ToolCall{
				CallID:    tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}
	return run
}

// parseMessage flattens a message's text content blocks.
func parseMessage(raw *apiMessage) ttyg.ThreadMessage {
	msg := ttyg.ThreadMessage{Role: raw.Role}
	for _, c := range raw.Content {
		if c.Type == "text" && c.Text != nil {
			msg.Text += c.Text.Value
		}
	}
	return msg
}
