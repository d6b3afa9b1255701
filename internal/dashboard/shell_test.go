package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumethik/tablero/internal/auth"
	"github.com/lumethik/tablero/internal/data"
	"github.com/lumethik/tablero/internal/shared"
)

func newTestShell(t *testing.T, directions data.Provider) *Shell {
	t.Helper()
	gate, err := auth.NewGate(auth.Credentials{Username: "lumethik", Password: "2025", Cost: bcrypt.MinCost})
	require.NoError(t, err)
	registry := NewRegistry(RegistryParams{
		Directions: directions,
		Indicators: data.NewSynthetic(3),
		Talent:     data.NewTalent(0),
		Finance:    data.NewFinance(0),
	})
	return NewShell(NewRouter(FallbackHome), gate, registry, nil)
}

func TestTabLoginFlow(t *testing.T) {
	shell := newTestShell(t, data.NewFixed())
	ctx := context.Background()
	tab := shell.Open(ctx)
	defer tab.Close()

	page, err := tab.Navigate(ctx, "/administrativa")
	require.NoError(t, err)
	assert.Equal(t, Login(), page.View)
	assert.Equal(t, "/administrativa", page.Path)

	require.ErrorIs(t, tab.Login("lumethik", "wrong"), shared.ErrInvalidCredentials)
	page, _ = tab.Page()
	assert.Equal(t, Login(), page.View)
	assert.False(t, tab.Authenticated())

	require.NoError(t, tab.Login("lumethik", "2025"))
	page, err = tab.Page()
	require.NoError(t, err)
	assert.Equal(t, Direction("administrativa"), page.View)
	assert.Len(t, page.Panels, 2)
	require.Len(t, page.Tables, 1)
	assert.Len(t, page.Tables[0].Record.Rows, 5)

	tab.Logout()
	page, _ = tab.Page()
	assert.Equal(t, Login(), page.View)

	tab.Logout()
	page, _ = tab.Page()
	assert.Equal(t, Login(), page.View)
	assert.False(t, tab.Authenticated())
}

func TestTabsAreIndependent(t *testing.T) {
	shell := newTestShell(t, data.NewFixed())
	ctx := context.Background()
	a := shell.Open(ctx)
	b := shell.Open(ctx)
	defer a.Close()
	defer b.Close()

	require.NoError(t, a.Login("lumethik", "2025"))
	pa, _ := a.Page()
	pb, _ := b.Page()
	assert.Equal(t, Home(), pa.View)
	assert.Equal(t, Login(), pb.View)
}

func TestTabSelectRebuildsIndicators(t *testing.T) {
	shell := newTestShell(t, data.NewFixed())
	ctx := context.Background()
	tab := shell.Open(ctx)
	defer tab.Close()
	require.NoError(t, tab.Login("lumethik", "2025"))

	_, err := tab.Navigate(ctx, "/indicadores")
	require.NoError(t, err)
	page, err := tab.Select(ctx, Selection{Area: "Marketing", Period: "Trimestral"})
	require.NoError(t, err)
	assert.Equal(t, "Indicadores de Gestión: Marketing (Trimestral)", page.Panels[0].Chart.Title)
}

func TestUnknownPathFallsBackToHome(t *testing.T) {
	shell := newTestShell(t, data.NewFixed())
	state := auth.NewFlag()
	state.SetAuthenticated(true)
	page, err := shell.Render(context.Background(), "k", state, "/no-existe", Selection{})
	require.NoError(t, err)
	assert.Equal(t, Home(), page.View)
}

// blockingProvider holds the first Fetch until release is closed.
type blockingProvider struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (b *blockingProvider) Fetch(ctx context.Context, category string) (data.Record, error) {
	first := false
	b.once.Do(func() { first = true })
	if first {
		close(b.started)
		<-b.release
	}
	return data.NewFixed().Fetch(ctx, category)
}

func (b *blockingProvider) Remote() bool { return false }

func TestSupersededRenderIsNotCommitted(t *testing.T) {
	blocker := &blockingProvider{started: make(chan struct{}), release: make(chan struct{})}
	shell := newTestShell(t, blocker)
	state := auth.NewFlag()
	state.SetAuthenticated(true)
	ctx := context.Background()

	type result struct {
		page Page
		err  error
	}
	done := make(chan result, 1)
	go func() {
		page, err := shell.Render(ctx, "session", state, "/juridica", Selection{})
		done <- result{page, err}
	}()

	select {
	case <-blocker.started:
	case <-time.After(time.Second):
		t.Fatal("first render never reached the provider")
	}

	latest, err := shell.Render(ctx, "session", state, "/salud-publica", Selection{})
	require.NoError(t, err)
	assert.Equal(t, Direction("salud"), latest.View)

	close(blocker.release)
	var stale result
	select {
	case stale = <-done:
	case <-time.After(time.Second):
		t.Fatal("first render did not finish")
	}
	assert.ErrorIs(t, stale.err, ErrSuperseded)
	assert.Equal(t, Direction("salud"), stale.page.View)

	other, err := shell.Render(ctx, "other", state, "/juridica", Selection{})
	require.NoError(t, err)
	assert.Equal(t, Direction("juridica"), other.View)
}

func TestPendingOnlyForRemoteViews(t *testing.T) {
	shell := newTestShell(t, data.NewFixed())
	state := auth.NewFlag()
	state.SetAuthenticated(true)
	_, ok, err := shell.Pending("/juridica", state, Selection{})
	require.NoError(t, err)
	assert.False(t, ok)
}
