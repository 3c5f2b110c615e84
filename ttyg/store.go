// Copyright (c) Graphwise. All rights reserved.

package ttyg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// ThreadRecord is one locally tracked conversation. The remote service keeps
// the conversation itself but offers no way to list threads, so the client
// must remember the handles it created.
type ThreadRecord struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name,omitempty"`
	AssistantID string    `yaml:"assistant_id"`
	Owner       string    `yaml:"-"`
	UpdatedAt   time.Time `yaml:"updated_at,omitempty"`
}

// Description returns "id (name)" for display, mirroring how threads are
// labelled in the Workbench UI.
func (r ThreadRecord) Description() string {
	name := r.Name
	if name == "" {
		name = "<no name>"
	}
	return fmt.Sprintf("%s (%s)", r.ID, name)
}

// ThreadStore is the durable mapping from local thread records to remote
// conversation handles. It is single-process: an exclusive file lock is held
// from Open until Close, and every mutating operation rewrites the file
// atomically (temp file, fsync, rename) so a crash cannot corrupt it.
type ThreadStore struct {
	mu             sync.Mutex
	path           string
	owner          string
	installationID string
	client         AssistantClient
	lock           *flock.Flock
	logger         *slog.Logger

	// all records keyed by owner; only s.owner's records are served, but
	// other owners' entries survive rewrites untouched.
	byOwner map[string][]ThreadRecord
}

// OpenThreadStore loads (or initializes) the store file at path and acquires
// its lock. The client is used by Create/Rename/Delete for the remote side of
// each operation.
func OpenThreadStore(path, owner, installationID string, client AssistantClient, logger *slog.Logger) (*ThreadStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ThreadStore{
		path:           path,
		owner:          owner,
		installationID: installationID,
		client:         client,
		lock:           flock.New(path + ".lock"),
		logger:         logger,
		byOwner:        map[string][]ThreadRecord{},
	}

	locked, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: lock %s: %v", ErrStore, s.lock.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s is in use by another process", ErrStore, path)
	}

	if err := s.load(); err != nil {
		_ = s.lock.Unlock()
		return nil, err
	}
	return s, nil
}

// Close releases the store's file lock.
func (s *ThreadStore) Close() error {
	return s.lock.Unlock()
}

// List returns the owner's records in stored order.
func (s *ThreadStore) List() []ThreadRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.byOwner[s.owner]
	out := make([]ThreadRecord, len(recs))
	copy(out, recs)
	return out
}

// Get looks a record up by local name or remote handle.
func (s *ThreadStore) Get(nameOrID string) (ThreadRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.byOwner[s.owner] {
		if rec.ID == nameOrID || (rec.Name != "" && rec.Name == nameOrID) {
			return rec, nil
		}
	}
	return ThreadRecord{}, fmt.Errorf("%w: thread %q", ErrNotFound, nameOrID)
}

// Create allocates a new remote thread for the assistant and persists a
// record for it. Nothing is written locally if the remote allocation fails,
// so the store never refers to a handle that does not exist.
func (s *ThreadStore) Create(ctx context.Context, assistantID string) (ThreadRecord, error) {
	name := fmt.Sprintf("[Unnamed chat@%s]", time.Now().Format("2006-01-02T15:04:05"))
	thread, err := s.client.CreateThread(ctx, map[string]string{
		MetadataName:           name,
		MetadataInstallationID: s.installationID,
		MetadataUsername:       s.owner,
	})
	if err != nil {
		return ThreadRecord{}, err
	}

	rec := ThreadRecord{
		ID:          thread.ID,
		Name:        name,
		AssistantID: assistantID,
		Owner:       s.owner,
		UpdatedAt:   time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byOwner[s.owner] = append(s.byOwner[s.owner], rec)
	if err := s.save(); err != nil {
		// Roll the in-memory append back; the remote thread stays orphaned
		// but the store keeps its reported contents.
		recs := s.byOwner[s.owner]
		s.byOwner[s.owner] = recs[:len(recs)-1]
		return ThreadRecord{}, err
	}
	return rec, nil
}

// Rename changes a record's local name and persists immediately. The remote
// thread metadata is updated best effort so the Workbench UI shows the same
// name; a remote failure does not undo the durable local rename.
func (s *ThreadStore) Rename(ctx context.Context, threadID, name string) (ThreadRecord, error) {
	s.mu.Lock()
	idx := s.indexOf(threadID)
	if idx < 0 {
		s.mu.Unlock()
		return ThreadRecord{}, fmt.Errorf("%w: thread %q", ErrNotFound, threadID)
	}
	prev := s.byOwner[s.owner][idx]
	rec := prev
	rec.Name = name
	rec.UpdatedAt = time.Now()
	s.byOwner[s.owner][idx] = rec
	if err := s.save(); err != nil {
		s.byOwner[s.owner][idx] = prev
		s.mu.Unlock()
		return ThreadRecord{}, err
	}
	s.mu.Unlock()

	if err := s.client.UpdateThreadMetadata(ctx, threadID, map[string]string{MetadataName: name}); err != nil {
		s.logger.WarnContext(ctx, "remote thread rename failed", "thread_id", threadID, "error", err)
	}
	return rec, nil
}

// Touch updates a record's last-activity time locally and remotely. Called
// after each completed turn.
func (s *ThreadStore) Touch(ctx context.Context, threadID string) {
	now := time.Now()

	s.mu.Lock()
	if idx := s.indexOf(threadID); idx >= 0 {
		s.byOwner[s.owner][idx].UpdatedAt = now
		if err := s.save(); err != nil {
			s.logger.WarnContext(ctx, "persist thread time failed", "thread_id", threadID, "error", err)
		}
	}
	s.mu.Unlock()

	meta := map[string]string{MetadataUpdatedAt: fmt.Sprintf("%d", now.Unix())}
	if err := s.client.UpdateThreadMetadata(ctx, threadID, meta); err != nil {
		s.logger.WarnContext(ctx, "remote thread time update failed", "thread_id", threadID, "error", err)
	}
}

// Delete removes the thread remotely and then drops the local record. A
// remote "not found" means the thread is already gone and the local record is
// removed anyway; any other remote failure leaves the record in place.
func (s *ThreadStore) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	idx := s.indexOf(threadID)
	s.mu.Unlock()
	if idx < 0 {
		return fmt.Errorf("%w: thread %q", ErrNotFound, threadID)
	}

	if err := s.client.DeleteThread(ctx, threadID); err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		s.logger.DebugContext(ctx, "thread already deleted remotely", "thread_id", threadID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx = s.indexOf(threadID); idx < 0 {
		return nil
	}
	recs := s.byOwner[s.owner]
	removed := recs[idx]
	s.byOwner[s.owner] = append(recs[:idx:idx], recs[idx+1:]...)
	if err := s.save(); err != nil {
		recs = s.byOwner[s.owner]
		s.byOwner[s.owner] = append(append(recs[:idx:idx], removed), recs[idx:]...)
		return err
	}
	return nil
}

// indexOf returns the position of threadID among the owner's records, or -1.
// Callers hold s.mu.
func (s *ThreadStore) indexOf(threadID string) int {
	for i, rec := range s.byOwner[s.owner] {
		if rec.ID == threadID {
			return i
		}
	}
	return -1
}

func (s *ThreadStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: read %s: %v", ErrStore, s.path, err)
	}
	if err := yaml.Unmarshal(data, &s.byOwner); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrStore, s.path, err)
	}
	if s.byOwner == nil {
		s.byOwner = map[string][]ThreadRecord{}
	}
	for owner, recs := range s.byOwner {
		for i := range recs {
			recs[i].Owner = owner
		}
	}
	return nil
}

// save rewrites the store file atomically. Callers hold s.mu.
func (s *ThreadStore) save() error {
	data, err := yaml.Marshal(s.byOwner)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrStore, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write %s: %v", ErrStore, tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync %s: %v", ErrStore, tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrStore, tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: replace %s: %v", ErrStore, s.path, err)
	}
	return nil
}
