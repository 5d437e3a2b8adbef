package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
	"github.com/google/uuid"
)

// SessionStore keeps one JSON file per chat session, named by session id.
// Updates rewrite the whole session file; a transcript is never persisted
// partially.
type SessionStore struct {
	dir string
	mu  sync.Mutex
}

func NewSessionStore(dir string) (*SessionStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("session store dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session store dir: %w", err)
	}
	return &SessionStore{dir: dir}, nil
}

// List returns sessions sorted by update time, newest first. When tags are
// given, only sessions carrying every requested tag qualify.
func (s *SessionStore) List(_ context.Context, tags []string) ([]domain.ChatSession, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.ChatSession{}, nil
		}
		return nil, fmt.Errorf("read session dir: %w", err)
	}

	wanted := normalizeTags(tags)
	sessions := make([]domain.ChatSession, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		session, err := s.read(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			// Unreadable session files are skipped, not fatal to listing.
			continue
		}
		if len(wanted) > 0 && !matches(session.Tags, wanted, domain.MatchAll) {
			continue
		}
		sessions = append(sessions, *session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

func (s *SessionStore) Get(_ context.Context, id string) (*domain.ChatSession, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get session", fmt.Errorf("malformed session id %q", id))
	}

	session, err := s.read(s.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrNotFound, "get session", err)
		}
		return nil, err
	}
	return session, nil
}

func (s *SessionStore) Create(_ context.Context, session *domain.ChatSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if _, err := uuid.Parse(session.ID); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "create session", fmt.Errorf("malformed session id %q", session.ID))
	}
	return s.write(session)
}

func (s *SessionStore) Update(_ context.Context, session *domain.ChatSession) error {
	if _, err := uuid.Parse(session.ID); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "update session", fmt.Errorf("malformed session id %q", session.ID))
	}
	if _, err := os.Stat(s.pathFor(session.ID)); err != nil {
		if os.IsNotExist(err) {
			return domain.WrapError(domain.ErrNotFound, "update session", err)
		}
		return fmt.Errorf("stat session: %w", err)
	}
	return s.write(session)
}

func (s *SessionStore) read(path string) (*domain.ChatSession, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var session domain.ChatSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", filepath.Base(path), err)
	}
	return &session, nil
}

func (s *SessionStore) write(session *domain.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(s.pathFor(session.ID), raw, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *SessionStore) pathFor(id string) string {
	return filepath.Join(s.dir, id+".json")
}
