// Copyright (c) Graphwise. All rights reserved.

package ttyg_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/graphwise/ttyg-client/ttyg"
)

// fakeAssistantClient implements ttyg.AssistantClient with per-method
// function fields. Unset methods fail the call.
type fakeAssistantClient struct {
	createThread      func(ctx context.Context, metadata map[string]string) (*ttyg.Thread, error)
	retrieveThread    func(ctx context.Context, threadID string) (*ttyg.Thread, error)
	updateThreadMeta  func(ctx context.Context, threadID string, metadata map[string]string) error
	deleteThread      func(ctx context.Context, threadID string) error
	retrieveAssistant func(ctx context.Context, assistantID string) (*ttyg.Assistant, error)
	listAssistants    func(ctx context.Context) ([]ttyg.Assistant, error)
	createMessage     func(ctx context.Context, threadID, text string) error
	listMessages      func(ctx context.Context, threadID string, limit int) ([]ttyg.ThreadMessage, error)
	createRun         func(ctx context.Context, threadID, assistantID string) (*ttyg.Run, error)
	retrieveRun       func(ctx context.Context, threadID, runID string) (*ttyg.Run, error)
	submitToolOutputs func(ctx context.Context, threadID, runID string, outputs []ttyg.ToolOutput) (*ttyg.Run, error)
	cancelRun         func(ctx context.Context, threadID, runID string) error
}

var errUnexpectedCall = errors.New("unexpected client call")

func (f *fakeAssistantClient) CreateThread(ctx context.Context, metadata map[string]string) (*ttyg.Thread, error) {
	if f.createThread == nil {
		return nil, errUnexpectedCall
	}
	return f.createThread(ctx, metadata)
}

func (f *fakeAssistantClient) RetrieveThread(ctx context.Context, threadID string) (*ttyg.Thread, error) {
	if f.retrieveThread == nil {
		return nil, errUnexpectedCall
	}
	return f.retrieveThread(ctx, threadID)
}

func (f *fakeAssistantClient) UpdateThreadMetadata(ctx context.Context, threadID string, metadata map[string]string) error {
	if f.updateThreadMeta == nil {
		return nil
	}
	return f.updateThreadMeta(ctx, threadID, metadata)
}

func (f *fakeAssistantClient) DeleteThread(ctx context.Context, threadID string) error {
	if f.deleteThread == nil {
		return errUnexpectedCall
	}
	return f.deleteThread(ctx, threadID)
}

func (f *fakeAssistantClient) RetrieveAssistant(ctx context.Context, assistantID string) (*ttyg.Assistant, error) {
	if f.retrieveAssistant == nil {
		return nil, errUnexpectedCall
	}
	return f.retrieveAssistant(ctx, assistantID)
}

func (f *fakeAssistantClient) ListAssistants(ctx context.Context) ([]ttyg.Assistant, error) {
	if f.listAssistants == nil {
		return nil, errUnexpectedCall
	}
	return f.listAssistants(ctx)
}

func (f *fakeAssistantClient) CreateMessage(ctx context.Context, threadID, text string) error {
	if f.createMessage == nil {
		return nil
	}
	return f.createMessage(ctx, threadID, text)
}

func (f *fakeAssistantClient) ListMessages(ctx context.Context, threadID string, limit int) ([]ttyg.ThreadMessage, error) {
	if f.listMessages == nil {
		return nil, errUnexpectedCall
	}
	return f.listMessages(ctx, threadID, limit)
}

func (f *fakeAssistantClient) CreateRun(ctx context.Context, threadID, assistantID string) (*ttyg.Run, error) {
	if f.createRun == nil {
		return nil, errUnexpectedCall
	}
	return f.createRun(ctx, threadID, assistantID)
}

func (f *fakeAssistantClient) RetrieveRun(ctx context.Context, threadID, runID string) (*ttyg.Run, error) {
	if f.retrieveRun == nil {
		return nil, errUnexpectedCall
	}
	return f.retrieveRun(ctx, threadID, runID)
}

func (f *fakeAssistantClient) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ttyg.ToolOutput) (*ttyg.Run, error) {
	if f.submitToolOutputs == nil {
		return nil, errUnexpectedCall
	}
	return f.submitToolOutputs(ctx, threadID, runID, outputs)
}

func (f *fakeAssistantClient) CancelRun(ctx context.Context, threadID, runID string) error {
	if f.cancelRun == nil {
		return nil
	}
	return f.cancelRun(ctx, threadID, runID)
}

// fakeToolClient implements ttyg.ToolClient with a function field.
type fakeToolClient struct {
	execute func(ctx context.Context, assistantID, toolName, arguments string) (string, error)
}

func (f *fakeToolClient) Execute(ctx context.Context, assistantID, toolName, arguments string) (string, error) {
	return f.execute(ctx, assistantID, toolName, arguments)
}

// recorder implements ttyg.Printer by capturing lines per severity.
type recorder struct {
	plain   []string
	info    []string
	success []string
	errors  []string
}

func (r *recorder) Plain(format string, args ...any)   { r.plain = append(r.plain, sprintf(format, args)) }
func (r *recorder) Info(format string, args ...any)    { r.info = append(r.info, sprintf(format, args)) }
func (r *recorder) Success(format string, args ...any) { r.success = append(r.success, sprintf(format, args)) }
func (r *recorder) Error(format string, args ...any)   { r.errors = append(r.errors, sprintf(format, args)) }

func sprintf(format string, args []any) string {
	return fmt.Sprintf(format, args...)
}
