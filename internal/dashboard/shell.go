package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumethik/tablero/internal/auth"
)

const sequencerIdle = time.Hour

// Shell composes the router, the gate and the registry. It owns one
// sequencer per session key and no other state.
type Shell struct {
	router   *Router
	gate     *auth.Gate
	registry *Registry
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.Mutex
	seqs map[string]*seqEntry
}

type seqEntry struct {
	seq      *Sequencer
	lastUsed time.Time
}

// NewShell constructs a Shell.
func NewShell(router *Router, gate *auth.Gate, registry *Registry, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{
		router:   router,
		gate:     gate,
		registry: registry,
		logger:   logger,
		now:      time.Now,
		seqs:     make(map[string]*seqEntry),
	}
}

// Router exposes the route table.
func (s *Shell) Router() *Router { return s.router }

// Gate exposes the login gate.
func (s *Shell) Gate() *auth.Gate { return s.gate }

// Registry exposes the view registry.
func (s *Shell) Registry() *Registry { return s.registry }

// Resolve maps path to a view for the given state.
func (s *Shell) Resolve(path string, state auth.State) ViewID {
	return s.router.Resolve(path, state.Authenticated())
}

// Render resolves path and builds its page under a fresh sequence token of
// session key. When a newer Render of the same key started meanwhile, the
// built page is discarded and the latest committed page is returned with
// ErrSuperseded.
func (s *Shell) Render(ctx context.Context, key string, state auth.State, path string, sel Selection) (Page, error) {
	id := s.Resolve(path, state)
	seq := s.sequencer(key)
	tok := seq.Begin()

	page, err := s.registry.Build(ctx, id, sel)
	if err != nil {
		return Page{}, err
	}
	page = withRequestPath(page, id, path)
	if err := seq.Commit(tok, page); err != nil {
		if latest, ok := seq.Latest(); ok {
			page = latest
		}
		s.logger.Debug("render superseded", slog.String("view", id.String()), slog.Uint64("token", uint64(tok)))
		return page, err
	}
	return page, nil
}

// Pending resolves path and returns its loading skeleton, or false when the
// view does not wait on a remote source.
func (s *Shell) Pending(path string, state auth.State, sel Selection) (Page, bool, error) {
	id := s.Resolve(path, state)
	if !s.registry.Remote(id) {
		return Page{}, false, nil
	}
	page, err := s.registry.Pending(id, sel)
	if err != nil {
		return Page{}, false, err
	}
	return withRequestPath(page, id, path), true, nil
}

// Forget drops the sequencer of key.
func (s *Shell) Forget(key string) {
	s.mu.Lock()
	delete(s.seqs, key)
	s.mu.Unlock()
}

func (s *Shell) sequencer(key string) *Sequencer {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	entry, ok := s.seqs[key]
	if !ok {
		s.prune(now)
		entry = &seqEntry{seq: &Sequencer{}}
		s.seqs[key] = entry
	}
	entry.lastUsed = now
	return entry.seq
}

func (s *Shell) prune(now time.Time) {
	for key, entry := range s.seqs {
		if now.Sub(entry.lastUsed) > sequencerIdle {
			delete(s.seqs, key)
		}
	}
}

func withRequestPath(page Page, id ViewID, path string) Page {
	if id.Kind == ViewLogin || id.Kind == ViewNotFound {
		page.Path = path
	}
	return page
}

// Tab is an in-process browser tab: a private auth flag, a current path and
// the page last shown. Gate events for its flag re-render it synchronously.
type Tab struct {
	shell *Shell
	key   string
	state *auth.Flag
	ctx   context.Context

	mu          sync.Mutex
	path        string
	sel         Selection
	page        Page
	err         error
	unsubscribe func()
}

// Open starts an unauthenticated tab on "/". ctx bounds re-renders
// triggered by gate events.
func (s *Shell) Open(ctx context.Context) *Tab {
	t := &Tab{shell: s, key: "tab:" + uuid.NewString(), state: auth.NewFlag(), ctx: ctx, path: PathHome}
	t.unsubscribe = s.gate.Subscribe(func(e auth.Event) {
		if e.State != auth.State(t.state) {
			return
		}
		_, _ = t.refresh(t.ctx)
	})
	_, _ = t.refresh(ctx)
	return t
}

// Navigate moves the tab to path.
func (t *Tab) Navigate(ctx context.Context, path string) (Page, error) {
	t.mu.Lock()
	t.path = path
	t.mu.Unlock()
	return t.refresh(ctx)
}

// Select changes the dropdown values and rebuilds the current page.
func (t *Tab) Select(ctx context.Context, sel Selection) (Page, error) {
	t.mu.Lock()
	t.sel = sel
	t.mu.Unlock()
	return t.refresh(ctx)
}

// Login submits credentials through the gate.
func (t *Tab) Login(username, password string) error {
	return t.shell.gate.Login(t.state, username, password)
}

// Logout clears the tab's flag through the gate.
func (t *Tab) Logout() {
	t.shell.gate.Logout(t.state)
}

// Page returns the page currently shown and the error of its build.
func (t *Tab) Page() (Page, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.page, t.err
}

// Authenticated reports the tab's flag.
func (t *Tab) Authenticated() bool {
	return t.state.Authenticated()
}

// Close detaches the tab from the gate.
func (t *Tab) Close() {
	t.unsubscribe()
	t.shell.Forget(t.key)
}

func (t *Tab) refresh(ctx context.Context) (Page, error) {
	t.mu.Lock()
	path, sel := t.path, t.sel
	t.mu.Unlock()

	page, err := t.shell.Render(ctx, t.key, t.state, path, sel)
	if errors.Is(err, ErrSuperseded) {
		return page, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err == nil {
		t.page = page
	}
	t.err = err
	return page, err
}
