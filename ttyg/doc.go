// Copyright (c) Graphwise. All rights reserved.

// Package ttyg implements the core of the Talk to Your Graph chat client:
// thread/session management and the tool-call orchestration loop.
//
// The package is organized around these abstractions:
//
//   - [AssistantClient]: interface for the remote conversation service
//     (implemented by the assistant package).
//   - [ToolClient]: interface for the remote graph-query service
//     (implemented by the graphdb package).
//   - [ThreadStore]: durable local mapping from thread records to remote
//     conversation handles, written atomically on every mutation.
//   - [Orchestrator]: drives one conversation turn, looping on tool-call
//     requests until the assistant produces a final answer, with a bounded
//     number of rounds.
//   - [Dispatcher]: executes one tool call against the graph backend and
//     always yields a [ToolResult], success or failure.
//   - [Session]: the current assistant/thread selection and the tool-call
//     trace of the last turn.
//   - [CommandHandler]: the !-prefixed interactive command surface.
//
// A typical wiring:
//
//	store, _ := ttyg.OpenThreadStore("threads.yaml", owner, installID, client, logger)
//	orch := ttyg.NewOrchestrator(client, ttyg.NewDispatcher(graph, logger))
//	handler := ttyg.NewCommandHandler(store, client, orch, installID, owner, printer)
//
//	session := ttyg.NewSession()
//	for handler.Handle(ctx, session, readLine()) {
//	}
package ttyg
