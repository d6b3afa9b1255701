package auth

import (
	"crypto/subtle"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/lumethik/tablero/internal/shared"
)

// State is the single boolean the gate guards. *shared.Session satisfies it
// for HTTP traffic and *Flag for in-process use.
type State interface {
	Authenticated() bool
	SetAuthenticated(bool)
}

// Flag is an in-process State.
type Flag struct {
	mu sync.Mutex
	v  bool
}

// NewFlag returns an unauthenticated flag.
func NewFlag() *Flag {
	return &Flag{}
}

// Authenticated implements State.
func (f *Flag) Authenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.v
}

// SetAuthenticated implements State.
func (f *Flag) SetAuthenticated(v bool) {
	f.mu.Lock()
	f.v = v
	f.mu.Unlock()
}

// EventKind enumerates gate notifications.
type EventKind int

const (
	EventLogin EventKind = iota + 1
	EventLoginFailed
	EventLogout
)

func (k EventKind) String() string {
	switch k {
	case EventLogin:
		return "success"
	case EventLoginFailed:
		return "failure"
	case EventLogout:
		return "logout"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners after every Login or Logout call.
type Event struct {
	Kind          EventKind
	State         State
	Authenticated bool
}

// Listener receives gate events synchronously.
type Listener func(Event)

// Credentials configures the single accepted username/password pair.
// PasswordHash, when set, is a bcrypt hash used instead of Password.
type Credentials struct {
	Username     string
	Password     string
	PasswordHash string
	Cost         int
}

// Gate flips the authenticated flag of a State.
type Gate struct {
	username []byte
	hash     []byte

	mu        sync.RWMutex
	listeners []subscription
	nextID    int
}

type subscription struct {
	id int
	fn Listener
}

// NewGate hashes the configured password once and returns a Gate.
func NewGate(creds Credentials) (*Gate, error) {
	if creds.Username == "" {
		return nil, errors.New("auth: username required")
	}
	hash := []byte(creds.PasswordHash)
	if len(hash) == 0 {
		if creds.Password == "" {
			return nil, errors.New("auth: password or password hash required")
		}
		cost := creds.Cost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		generated, err := bcrypt.GenerateFromPassword([]byte(creds.Password), cost)
		if err != nil {
			return nil, err
		}
		hash = generated
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, err
	}
	return &Gate{username: []byte(creds.Username), hash: hash}, nil
}

// Login sets the state authenticated when both username and password match.
// On mismatch the state is left untouched and ErrInvalidCredentials returned.
func (g *Gate) Login(state State, username, password string) error {
	userOK := subtle.ConstantTimeCompare(g.username, []byte(username)) == 1
	passOK := bcrypt.CompareHashAndPassword(g.hash, []byte(password)) == nil
	if !userOK || !passOK {
		g.notify(Event{Kind: EventLoginFailed, State: state, Authenticated: state.Authenticated()})
		return shared.ErrInvalidCredentials
	}
	state.SetAuthenticated(true)
	g.notify(Event{Kind: EventLogin, State: state, Authenticated: true})
	return nil
}

// Logout clears the flag. Calling it on an unauthenticated state is a no-op
// apart from the notification.
func (g *Gate) Logout(state State) {
	state.SetAuthenticated(false)
	g.notify(Event{Kind: EventLogout, State: state, Authenticated: false})
}

// Subscribe registers l and returns a func that removes it.
func (g *Gate) Subscribe(l Listener) func() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	id := g.nextID
	g.listeners = append(g.listeners, subscription{id: id, fn: l})
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		for i, sub := range g.listeners {
			if sub.id == id {
				g.listeners = append(g.listeners[:i:i], g.listeners[i+1:]...)
				return
			}
		}
	}
}

func (g *Gate) notify(evt Event) {
	g.mu.RLock()
	subs := make([]subscription, len(g.listeners))
	copy(subs, g.listeners)
	g.mu.RUnlock()
	for _, sub := range subs {
		sub.fn(evt)
	}
}
