package dashboard

import (
	"errors"
	"sync"
)

// ErrSuperseded is returned when a newer navigation started before a build
// finished. The stale page is dropped.
var ErrSuperseded = errors.New("superseded by a newer request")

// Token orders the builds of one session.
type Token uint64

// Sequencer keeps the last committed page of one session. Only the result
// of the most recently issued token can be committed.
type Sequencer struct {
	mu        sync.Mutex
	issued    Token
	committed Token
	page      Page
	hasPage   bool
}

// Begin issues a new token, superseding every earlier one.
func (s *Sequencer) Begin() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Commit stores page when tok is still the latest token.
func (s *Sequencer) Commit(tok Token, page Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.issued {
		return ErrSuperseded
	}
	s.committed = tok
	s.page = page
	s.hasPage = true
	return nil
}

// Latest returns the last committed page.
func (s *Sequencer) Latest() (Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page, s.hasPage
}

// Committed returns the token of the last committed page.
func (s *Sequencer) Committed() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}
