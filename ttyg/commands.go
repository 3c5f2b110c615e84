// Copyright (c) Graphwise. All rights reserved.

package ttyg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Printer receives user-facing output from the command interpreter. The CLI
// provides a colored terminal implementation; tests capture the lines.
type Printer interface {
	Plain(format string, args ...any)
	Info(format string, args ...any)
	Success(format string, args ...any)
	Error(format string, args ...any)
}

// CommandHandler is the interactive command surface. It parses !-prefixed
// commands, routes them to the thread store and session, and forwards free
// text to the orchestrator. No input ever terminates the session other than
// an empty line; failures are printed and the prompt returns.
type CommandHandler struct {
	store          *ThreadStore
	client         AssistantClient
	orchestrator   *Orchestrator
	installationID string
	owner          string
	out            Printer
}

// NewCommandHandler wires the command interpreter.
func NewCommandHandler(store *ThreadStore, client AssistantClient, orchestrator *Orchestrator, installationID, owner string, out Printer) *CommandHandler {
	return &CommandHandler{
		store:          store,
		client:         client,
		orchestrator:   orchestrator,
		installationID: installationID,
		owner:          owner,
		out:            out,
	}
}

// Handle processes one line of user input. It returns false when the session
// should end (empty input), true otherwise.
func (h *CommandHandler) Handle(ctx context.Context, session *Session, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, "!") {
		h.ask(ctx, session, line)
		return true
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "!help":
		h.printHelp()
	case "!explain":
		h.explain(session)
	case "!list":
		h.list(ctx)
	case "!assistant":
		if arg == "" {
			h.out.Error(">>> !assistant requires an assistant ID argument")
			return true
		}
		h.useAssistant(ctx, session, arg)
	case "!thread":
		if arg == "" {
			h.out.Error(">>> !thread requires a thread ID argument")
			return true
		}
		h.useThread(ctx, session, arg)
	case "!rename":
		if arg == "" {
			h.out.Error(">>> !rename requires a name argument")
			return true
		}
		h.rename(ctx, session, arg)
	case "!delete":
		h.deleteThread(ctx, session)
	default:
		h.out.Error(">>> Unknown command: %s", line)
		h.out.Error(">>> Type !help for the list of commands.")
	}
	return true
}

// ask forwards free text as a conversation turn and prints the final answer.
func (h *CommandHandler) ask(ctx context.Context, session *Session, text string) {
	if session.Thread() == nil {
		h.out.Error(">>> Thread was deleted, switch to another thread to chat.")
		return
	}
	answer, err := h.orchestrator.RunTurn(ctx, session, text)
	if err != nil {
		h.out.Error(">>> %v", err)
		return
	}
	h.out.Plain("%s", answer)
	h.store.Touch(ctx, session.Thread().ID)
}

func (h *CommandHandler) explain(session *Session) {
	trace, asked := session.Trace()
	switch {
	case !asked:
		h.out.Info(">>> Nothing asked yet.")
	case len(trace) == 0:
		h.out.Info(">>> Answered directly without calling any tools")
	default:
		for _, entry := range trace {
			if entry.IsError {
				h.out.Info(">>> Called tool: %s (failed)", entry.Name)
			} else {
				h.out.Info(">>> Called tool: %s", entry.Name)
			}
			h.out.Info("    %s", entry.Arguments)
		}
	}
}

func (h *CommandHandler) list(ctx context.Context) {
	assistants, err := h.client.ListAssistants(ctx)
	if err != nil {
		h.out.Error(">>> %v", err)
		return
	}

	available := assistants[:0]
	for _, a := range assistants {
		if h.installationMatches(AssistantInstallationID(&a)) {
			available = append(available, a)
		}
	}
	if len(available) > 0 {
		h.out.Info(">>> The available assistants are:")
		for _, a := range available {
			h.out.Plain("\t%s (%s)", a.ID, a.Name)
		}
	} else {
		h.out.Info(">>> There are no assistants available.")
		h.out.Info(">>> Please create a TTYG agent in GraphDB Workbench.")
	}

	records := h.store.List()
	if len(records) > 0 {
		h.out.Info(">>> The persisted threads are:")
		for _, rec := range records {
			h.out.Plain("\t%s", rec.Description())
		}
	} else {
		h.out.Info(">>> There are no persisted threads.")
	}
}

// useAssistant validates the assistant against the remote list and the
// configured installation, then makes it current.
func (h *CommandHandler) useAssistant(ctx context.Context, session *Session, assistantID string) {
	assistant, err := h.resolveAssistant(ctx, assistantID)
	if err != nil {
		h.out.Error(">>> %v", err)
		return
	}
	session.SetAssistant(assistant)
	h.out.Success(">>> Using assistant: %s (%s)", assistant.ID, assistant.Name)
}

// useThread switches to an existing thread or, for the literal "new",
// creates one for the current assistant.
func (h *CommandHandler) useThread(ctx context.Context, session *Session, nameOrID string) {
	if nameOrID == "new" {
		assistant := session.Assistant()
		if assistant == nil {
			h.out.Error(">>> Select an assistant before creating a thread.")
			return
		}
		rec, err := h.store.Create(ctx, assistant.ID)
		if err != nil {
			h.out.Error(">>> %v", err)
			return
		}
		session.SetThread(&rec)
		h.out.Success(">>> Created thread: %s", rec.ID)
		return
	}

	rec, err := h.store.Get(nameOrID)
	if err != nil {
		h.out.Error(">>> %v", err)
		return
	}
	if err := h.checkRemoteThread(ctx, rec.ID); err != nil {
		h.out.Error(">>> %v", err)
		if errors.Is(err, ErrNotFound) {
			h.out.Error(">>> The local record is stale; !delete will purge it.")
		}
		return
	}
	session.SetThread(&rec)
	h.out.Success(">>> Using existing thread: %s", rec.Description())
	h.printHistory(ctx, rec.ID, 3)
}

func (h *CommandHandler) rename(ctx context.Context, session *Session, name string) {
	thread := session.Thread()
	if thread == nil {
		h.out.Error(">>> Thread was deleted, switch to another thread to operate on it.")
		return
	}
	rec, err := h.store.Rename(ctx, thread.ID, name)
	if err != nil {
		h.out.Error(">>> %v", err)
		return
	}
	session.SetThread(&rec)
	h.out.Success(">>> Thread renamed to: %s", name)
}

func (h *CommandHandler) deleteThread(ctx context.Context, session *Session) {
	thread := session.Thread()
	if thread == nil {
		h.out.Error(">>> Thread was deleted, switch to another thread to operate on it.")
		return
	}
	if err := h.store.Delete(ctx, thread.ID); err != nil {
		h.out.Error(">>> %v", err)
		return
	}
	session.ClearThread()
	h.out.Success(">>> Thread %s was deleted.", thread.ID)
}

// ResolveAssistant retrieves an assistant and verifies it belongs to the
// configured installation.
func (h *CommandHandler) resolveAssistant(ctx context.Context, assistantID string) (*Assistant, error) {
	assistant, err := h.client.RetrieveAssistant(ctx, assistantID)
	if err != nil {
		return nil, err
	}
	if !h.installationMatches(AssistantInstallationID(assistant)) {
		return nil, fmt.Errorf("%w: assistant %s is not associated with the configured installation", ErrNotFound, assistantID)
	}
	return assistant, nil
}

// checkRemoteThread verifies the remote thread still exists and is scoped to
// this installation and owner. A vanished remote thread surfaces ErrNotFound
// rather than being silently accepted.
func (h *CommandHandler) checkRemoteThread(ctx context.Context, threadID string) error {
	thread, err := h.client.RetrieveThread(ctx, threadID)
	if err != nil {
		return err
	}
	if !h.installationMatches(thread.Metadata[MetadataInstallationID]) {
		return fmt.Errorf("%w: thread %s is not associated with the configured installation", ErrNotFound, threadID)
	}
	if thread.Metadata[MetadataUsername] != h.owner {
		return fmt.Errorf("%w: thread %s is not associated with the configured GraphDB username", ErrNotFound, threadID)
	}
	return nil
}

// printHistory replays the last limit user messages and their responses.
func (h *CommandHandler) printHistory(ctx context.Context, threadID string, limit int) {
	// Fetch newest-first, somewhat over the limit so responses are included.
	msgs, err := h.client.ListMessages(ctx, threadID, 3*limit)
	if err != nil {
		h.out.Error(">>> %v", err)
		return
	}

	userSeen := 0
	var keep []ThreadMessage
	for _, m := range msgs {
		if m.Role == "user" {
			userSeen++
		}
		keep = append(keep, m)
		if userSeen == limit {
			break
		}
	}
	for i := len(keep) - 1; i >= 0; i-- {
		if keep[i].Role == "user" {
			h.out.Plain("> %s", keep[i].Text)
		} else {
			h.out.Plain("%s", keep[i].Text)
		}
	}
}

func (h *CommandHandler) installationMatches(installationID string) bool {
	return installationID == DefaultInstallationID || installationID == h.installationID
}

func (h *CommandHandler) printHelp() {
	h.out.Plain("\t!help                      - display the list of commands")
	h.out.Plain("\t!explain                   - show the tools used to answer the last question")
	h.out.Plain("\t!list                      - show the available assistants and threads")
	h.out.Plain("\t!assistant <assistant-id>  - switch to a different assistant")
	h.out.Plain("\t!thread <thread-id>|new    - switch to a different thread")
	h.out.Plain("\t!rename <name>             - rename the current thread")
	h.out.Plain("\t!delete                    - delete the current thread")
}

// AssistantInstallationID extracts the installation ID an assistant was
// provisioned for from its metadata. The value is a JSON blob kept by the
// Workbench under the graphdb.ttyg key.
func AssistantInstallationID(a *Assistant) string {
	blob, ok := a.Metadata[MetadataTTYG]
	if !ok {
		return ""
	}
	var meta struct {
		InstallationID string `json:"installationId"`
	}
	if err := json.Unmarshal([]byte(blob), &meta); err != nil {
		return ""
	}
	return meta.InstallationID
}
