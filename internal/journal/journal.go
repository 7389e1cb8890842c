// Package journal persists completed readings to a single remote JSON
// list shared by all owners, gated by an opaque version token.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Persistence failures, reported distinctly so callers can decide
// whether to retry.
var (
	ErrStaleVersion       = errors.New("journal changed since fetch")
	ErrStorageUnavailable = errors.New("journal storage is not configured")
	ErrNotFound           = errors.New("journal entry not found")
	ErrDuplicateName      = errors.New("an entry with that name already exists")
)

// CardRecord is one slot of a persisted reading.
type CardRecord struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Reversed bool   `json:"reversed"`
}

// Entry is one persisted reading. Names are unique per owner; entries
// saved without a name get one derived from the reading timestamp.
type Entry struct {
	OwnerID       string       `json:"owner_id"`
	Name          string       `json:"name"`
	Timestamp     time.Time    `json:"timestamp"`
	Kind          string       `json:"kind"`
	Question      string       `json:"question,omitempty"`
	TargetSubject string       `json:"target_subject,omitempty"`
	Cards         []CardRecord `json:"cards"`
	Notes         string       `json:"notes,omitempty"`
}

// Remote is the backing object: one JSON document plus a version token
// that must be echoed back unchanged on conditional writes.
type Remote interface {
	// Load returns the document, its version token, and whether the
	// object exists at all. An absent object is not an error.
	Load(ctx context.Context) (data []byte, token string, exists bool, err error)
	// Store writes the document conditioned on token, returning the new
	// token. A token mismatch fails with ErrStaleVersion.
	Store(ctx context.Context, data []byte, token string) (string, error)
}

// Store reads and writes the shared journal list.
type Store struct {
	remote Remote
	logger *slog.Logger
}

// NewStore wires a journal store over a remote object.
func NewStore(remote Remote, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{remote: remote, logger: logger}
}

// FetchAll returns every entry plus the version token for conditional
// writes. An absent backing object reads as an empty list.
func (s *Store) FetchAll(ctx context.Context) ([]Entry, string, error) {
	data, token, exists, err := s.remote.Load(ctx)
	if err != nil {
		return nil, "", err
	}
	if !exists || len(data) == 0 {
		return nil, token, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, "", fmt.Errorf("journal: decoding remote list: %w", err)
	}
	return entries, token, nil
}

// Append persists a new entry. The uniqueness check and the write run
// against the same fetched version; a concurrent change surfaces as
// ErrStaleVersion, retried once internally with a fresh fetch.
func (s *Store) Append(ctx context.Context, entry Entry) (Entry, error) {
	if entry.Name == "" {
		entry.Name = entry.Timestamp.UTC().Format("reading-20060102-150405")
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		entries, token, err := s.FetchAll(ctx)
		if err != nil {
			return Entry{}, err
		}
		for _, existing := range entries {
			if existing.OwnerID == entry.OwnerID && existing.Name == entry.Name {
				return Entry{}, fmt.Errorf("%w: %q", ErrDuplicateName, entry.Name)
			}
		}

		data, err := json.Marshal(append(entries, entry))
		if err != nil {
			return Entry{}, fmt.Errorf("journal: encoding list: %w", err)
		}
		if _, err = s.remote.Store(ctx, data, token); err != nil {
			if errors.Is(err, ErrStaleVersion) {
				lastErr = err
				s.logger.Warn("journal write raced, refetching", "owner", entry.OwnerID, "name", entry.Name)
				continue
			}
			return Entry{}, err
		}
		s.logger.Info("journal entry saved", "owner", entry.OwnerID, "name", entry.Name)
		return entry, nil
	}
	return Entry{}, lastErr
}

// ForOwner returns the owner's entries, preserving list order.
func (s *Store) ForOwner(ctx context.Context, ownerID string) ([]Entry, error) {
	entries, _, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range entries {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Get returns one entry by owner and name.
func (s *Store) Get(ctx context.Context, ownerID, name string) (Entry, error) {
	entries, _, err := s.FetchAll(ctx)
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if e.OwnerID == ownerID && e.Name == name {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Remove deletes the entry matching owner and name, retried once on a
// version race like Append.
func (s *Store) Remove(ctx context.Context, ownerID, name string) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		entries, token, err := s.FetchAll(ctx)
		if err != nil {
			return err
		}

		kept := entries[:0:0]
		found := false
		for _, e := range entries {
			if e.OwnerID == ownerID && e.Name == name {
				found = true
				continue
			}
			kept = append(kept, e)
		}
		if !found {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}

		data, err := json.Marshal(kept)
		if err != nil {
			return fmt.Errorf("journal: encoding list: %w", err)
		}
		if _, err = s.remote.Store(ctx, data, token); err != nil {
			if errors.Is(err, ErrStaleVersion) {
				lastErr = err
				continue
			}
			return err
		}
		s.logger.Info("journal entry removed", "owner", ownerID, "name", name)
		return nil
	}
	return lastErr
}
