package pipeline

import (
	"context"
	"strings"
	"sync"
)

// MemStore is an in-memory Store for tests and database-less runs.
type MemStore struct {
	mu       sync.Mutex
	prompts  []*Prompt
	exploits []*Exploit
	serial   int
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) InsertPrompt(_ context.Context, p *Prompt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = newRecordID()
	}
	cp := *p
	s.prompts = append(s.prompts, &cp)
	return nil
}

func (s *MemStore) InsertExploit(_ context.Context, e *Exploit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = newRecordID()
	}
	cp := *e
	s.exploits = append(s.exploits, &cp)
	return nil
}

func (s *MemStore) PromptExistsWithPrefix(_ context.Context, prefix string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.prompts {
		if strings.HasPrefix(p.Content, prefix) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) ExploitExistsWithTitle(_ context.Context, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.exploits {
		if e.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) CountPrompts(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts), nil
}

func (s *MemStore) CountExploits(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exploits), nil
}

func (s *MemStore) NextExploitSerial(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serial++
	return s.serial, nil
}

// Prompts returns a snapshot of the stored prompts.
func (s *MemStore) Prompts() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Prompt, len(s.prompts))
	for i, p := range s.prompts {
		out[i] = *p
	}
	return out
}

// Exploits returns a snapshot of the stored exploits.
func (s *MemStore) Exploits() []Exploit {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Exploit, len(s.exploits))
	for i, e := range s.exploits {
		out[i] = *e
	}
	return out
}
