// Copyright (c) Graphwise. All rights reserved.

package ttyg

import "sync"

// TraceEntry records one tool call made during a turn, in request order.
type TraceEntry struct {
	Name      string
	Arguments string
	Output    string
	IsError   bool
}

// Session holds the mutable state of one interactive chat: the current
// assistant, the current thread, and the tool-call trace of the most recently
// completed (or attempted) turn.
//
// A Session is an explicit object rather than process state so the command
// interpreter and orchestrator can be exercised with fixture sessions.
type Session struct {
	mu        sync.Mutex
	assistant *Assistant
	thread    *ThreadRecord
	trace     []TraceEntry
	traceSet  bool
}

// NewSession creates an empty Session.
func NewSession() *Session {
	return &Session{}
}

// Assistant returns the current assistant, or nil if none is selected.
func (s *Session) Assistant() *Assistant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assistant
}

// SetAssistant switches the session to a different assistant.
func (s *Session) SetAssistant(a *Assistant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assistant = a
}

// Thread returns the current thread record, or nil if none is selected.
func (s *Session) Thread() *ThreadRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thread
}

// SetThread switches the session to a different thread.
func (s *Session) SetThread(rec *ThreadRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thread = rec
}

// ClearThread detaches the session from its thread (after !delete).
func (s *Session) ClearThread() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thread = nil
}

// Trace returns the tool calls of the last turn and whether a turn has
// happened at all. The second return distinguishes "nothing asked yet" from
// a turn that used no tools.
func (s *Session) Trace() ([]TraceEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]TraceEntry, len(s.trace))
	copy(cp, s.trace)
	return cp, s.traceSet
}

// SetTrace replaces the trace wholesale. The orchestrator calls this at the
// end of every turn, including failed ones, so !explain can show what was
// attempted.
func (s *Session) SetTrace(entries []TraceEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trace = entries
	s.traceSet = true
}
