package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencerCommitsOnlyLatest(t *testing.T) {
	var s Sequencer
	first := s.Begin()
	second := s.Begin()

	require.NoError(t, s.Commit(second, Page{Title: "second"}))
	assert.ErrorIs(t, s.Commit(first, Page{Title: "first"}), ErrSuperseded)

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, "second", latest.Title)
	assert.Equal(t, second, s.Committed())
}

func TestSequencerStaleAfterNewBegin(t *testing.T) {
	var s Sequencer
	_, ok := s.Latest()
	assert.False(t, ok)

	tok := s.Begin()
	s.Begin()
	assert.ErrorIs(t, s.Commit(tok, Page{}), ErrSuperseded)
	_, ok = s.Latest()
	assert.False(t, ok)
}
