// Copyright (c) Graphwise. All rights reserved.

package ttyg

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TurnConfig controls one conversation turn.
type TurnConfig struct {
	// MaxToolRounds caps how many times the assistant may come back with
	// tool-call requests within a single turn. Default: 10.
	MaxToolRounds int

	// PollInterval is the delay between run status polls. Default: 1s.
	PollInterval time.Duration

	// PollTimeout bounds how long a single run may stay queued/in progress
	// before the turn is abandoned. Default: 2m.
	PollTimeout time.Duration
}

// DefaultTurnConfig returns the default turn configuration.
func DefaultTurnConfig() TurnConfig {
	return TurnConfig{
		MaxToolRounds: 10,
		PollInterval:  time.Second,
		PollTimeout:   2 * time.Minute,
	}
}

func (c TurnConfig) withDefaults() TurnConfig {
	d := DefaultTurnConfig()
	if c.MaxToolRounds <= 0 {
		c.MaxToolRounds = d.MaxToolRounds
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = d.PollTimeout
	}
	return c
}

// ToolCallObserver is notified after each dispatched tool call, before its
// result is submitted. Used by the CLI to echo tool activity as it happens.
type ToolCallObserver func(call ToolCall, result ToolResult)

// Orchestrator drives conversation turns: it submits user input, loops on
// tool-call requests until the assistant converges on a final answer, and
// records the tool-call trace on the session.
type Orchestrator struct {
	client     AssistantClient
	dispatcher *Dispatcher
	config     TurnConfig
	observer   ToolCallObserver
	logger     *slog.Logger
}

// OrchestratorOption configures an [Orchestrator] via [NewOrchestrator].
type OrchestratorOption func(*Orchestrator)

// WithTurnConfig overrides the default [TurnConfig].
func WithTurnConfig(cfg TurnConfig) OrchestratorOption {
	return func(o *Orchestrator) { o.config = cfg }
}

// WithToolCallObserver registers a callback invoked after each tool dispatch.
func WithToolCallObserver(fn ToolCallObserver) OrchestratorOption {
	return func(o *Orchestrator) { o.observer = fn }
}

// WithLogger sets the orchestrator's logger.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = logger }
}

// NewOrchestrator creates an Orchestrator over the assistant client and tool
// dispatcher.
func NewOrchestrator(client AssistantClient, dispatcher *Dispatcher, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		client:     client,
		dispatcher: dispatcher,
		config:     DefaultTurnConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.config = o.config.withDefaults()
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// RunTurn submits the user message on the session's current thread and drives
// the run to a final textual answer, dispatching tool-call batches in the
// order the service requests them.
//
// The session's trace is replaced wholesale before RunTurn returns, on both
// success and failure, so a failed turn still shows the calls that were
// attempted.
func (o *Orchestrator) RunTurn(ctx context.Context, session *Session, message string) (answer string, err error) {
	assistant := session.Assistant()
	thread := session.Thread()
	if assistant == nil || thread == nil {
		return "", ErrNoThread
	}

	trace := []TraceEntry{}
	defer func() { session.SetTrace(trace) }()

	if err := o.client.CreateMessage(ctx, thread.ID, message); err != nil {
		return "", err
	}

	run, err := o.client.CreateRun(ctx, thread.ID, assistant.ID)
	if err != nil {
		return "", err
	}

	o.logger.DebugContext(ctx, "turn started",
		"assistant_id", assistant.ID,
		"thread_id", thread.ID,
		"run_id", run.ID,
	)

	rounds := 0
	for {
		run, err = o.awaitRun(ctx, run)
		if err != nil {
			return "", err
		}

		switch run.Status {
		case RunStatusCompleted:
			return o.finalAnswer(ctx, thread.ID)

		case RunStatusRequiresAction:
			rounds++
			if rounds > o.config.MaxToolRounds {
				o.cancelRun(ctx, run)
				return "", fmt.Errorf("%w: %d rounds without a final answer", ErrToolLoopExceeded, o.config.MaxToolRounds)
			}

			outputs := make([]ToolOutput, 0, len(run.ToolCalls))
			for _, call := range run.ToolCalls {
				result := o.dispatcher.Dispatch(ctx, assistant.ID, call)
				trace = append(trace, TraceEntry{
					Name:      call.Name,
					Arguments: call.Arguments,
					Output:    result.Output,
					IsError:   result.IsError,
				})
				if o.observer != nil {
					o.observer(call, result)
				}
				outputs = append(outputs, ToolOutput{CallID: result.CallID, Output: result.Output})
			}

			run, err = o.client.SubmitToolOutputs(ctx, thread.ID, run.ID, outputs)
			if err != nil {
				return "", err
			}

		default:
			svcErr := run.LastError
			if svcErr == nil {
				svcErr = &ServiceError{Message: "run ended without result"}
			}
			return "", fmt.Errorf("%w: run %s %s: %v", ErrAssistantService, run.ID, run.Status, svcErr)
		}
	}
}

// awaitRun polls until the run needs tool outputs or reaches a terminal
// state, bounded by the configured poll timeout.
func (o *Orchestrator) awaitRun(ctx context.Context, run *Run) (*Run, error) {
	deadline := time.Now().Add(o.config.PollTimeout)
	for {
		if run.Status == RunStatusRequiresAction || run.Terminal() {
			return run, nil
		}
		if time.Now().After(deadline) {
			o.cancelRun(ctx, run)
			return nil, fmt.Errorf("%w: run %s still %s after %s", ErrAssistantService, run.ID, run.Status, o.config.PollTimeout)
		}

		select {
		case <-ctx.Done():
			o.cancelRun(context.WithoutCancel(ctx), run)
			return nil, ctx.Err()
		case <-time.After(o.config.PollInterval):
		}

		next, err := o.client.RetrieveRun(ctx, run.ThreadID, run.ID)
		if err != nil {
			return nil, err
		}
		run = next
	}
}

// cancelRun stops an in-flight run best effort so an abandoned turn does not
// leave phantom history on the thread.
func (o *Orchestrator) cancelRun(ctx context.Context, run *Run) {
	if err := o.client.CancelRun(ctx, run.ThreadID, run.ID); err != nil {
		o.logger.WarnContext(ctx, "run cancel failed", "run_id", run.ID, "error", err)
	}
}

// finalAnswer fetches the newest assistant message on the thread.
func (o *Orchestrator) finalAnswer(ctx context.Context, threadID string) (string, error) {
	msgs, err := o.client.ListMessages(ctx, threadID, 1)
	if err != nil {
		return "", err
	}
	for _, m := range msgs {
		if m.Role == "assistant" {
			return m.Text, nil
		}
	}
	return "", fmt.Errorf("%w: completed run produced no assistant message", ErrAssistantService)
}
