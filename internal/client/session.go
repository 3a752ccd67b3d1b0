package client

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jobportal/apiserver/types"
)

// SessionAPI is the part of Client the session store needs.
type SessionAPI interface {
	Session(ctx context.Context) (*types.SessionClaim, error)
	Profile(ctx context.Context) (*types.Profile, error)
	ReloadProfile(ctx context.Context) (*types.Profile, error)
	Logout(ctx context.Context) error
}

// State is a snapshot of the client session. Profile is only set alongside
// Session, and is nil when the profile could not be resolved.
type State struct {
	Loading bool
	Session *types.SessionClaim
	Profile *types.Profile
	Err     error
}

// Authenticated reports whether the state holds an active session.
func (s State) Authenticated() bool {
	return s.Session.Authenticated()
}

// SessionStore holds the session and profile of one client. Each Logout
// starts a new generation and results of older loads are discarded.
type SessionStore struct {
	api SessionAPI

	onLogout []func()

	mu     sync.Mutex
	state  State
	gen    uint64
	subs   map[int]func(State)
	nextID int
}

type SessionOption func(*SessionStore)

// OnLogout registers fn to run on every Logout, after local state is
// cleared and before the server session is ended.
func OnLogout(fn func()) SessionOption {
	return func(s *SessionStore) { s.onLogout = append(s.onLogout, fn) }
}

func NewSessionStore(api SessionAPI, opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		api:   api,
		state: State{Loading: true},
		subs:  make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *SessionStore) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every published state and returns a function
// that removes it.
func (s *SessionStore) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Load resolves session and profile concurrently and publishes once both
// settle. A profile failure leaves Profile nil without failing the load.
func (s *SessionStore) Load(ctx context.Context) State {
	gen := s.begin()

	var (
		claim   *types.SessionClaim
		profile *types.Profile
		g       errgroup.Group
	)
	g.Go(func() error {
		var err error
		claim, err = s.api.Session(ctx)
		return err
	})
	g.Go(func() error {
		p, err := s.api.Profile(ctx)
		if err == nil {
			profile = p
		}
		return nil
	})
	err := g.Wait()

	next := State{Err: err}
	if err == nil && claim != nil {
		next.Session = claim
		if profile != nil && profile.Kind == claim.Kind {
			next.Profile = profile
		}
	}
	return s.publish(gen, next)
}

// ReloadProfile re-resolves the profile of the current session. The result
// is dropped if the session changed while the request was running.
func (s *SessionStore) ReloadProfile(ctx context.Context) error {
	s.mu.Lock()
	gen, session := s.gen, s.state.Session
	s.mu.Unlock()
	if session == nil {
		return nil
	}

	profile, err := s.api.ReloadProfile(ctx)
	if errors.Is(err, ErrProfileUnavailable) {
		profile, err = nil, nil
	}
	if err != nil {
		return err
	}
	s.publishProfile(gen, session, profile)
	return nil
}

// Logout clears local state immediately, then ends the server session.
// Loads still in flight for the old session are dropped when they finish.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	s.state = State{}
	subs := s.subscribers()
	s.mu.Unlock()
	notify(subs, State{})

	for _, fn := range s.onLogout {
		fn()
	}
	return s.api.Logout(ctx)
}

func (s *SessionStore) begin() uint64 {
	s.mu.Lock()
	s.state.Loading = true
	st, subs, gen := s.state, s.subscribers(), s.gen
	s.mu.Unlock()
	notify(subs, st)
	return gen
}

func (s *SessionStore) publish(gen uint64, next State) State {
	s.mu.Lock()
	if gen != s.gen {
		current := s.state
		s.mu.Unlock()
		return current
	}
	s.state = next
	subs := s.subscribers()
	s.mu.Unlock()
	notify(subs, next)
	return next
}

func (s *SessionStore) publishProfile(gen uint64, session *types.SessionClaim, profile *types.Profile) {
	s.mu.Lock()
	current := s.state.Session
	if gen != s.gen || current == nil || current.AccountID != session.AccountID {
		s.mu.Unlock()
		return
	}
	if profile != nil && profile.Kind != current.Kind {
		profile = nil
	}
	s.state.Profile = profile
	st, subs := s.state, s.subscribers()
	s.mu.Unlock()
	notify(subs, st)
}

// subscribers must be called with mu held.
func (s *SessionStore) subscribers() []func(State) {
	out := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(State), st State) {
	for _, fn := range subs {
		fn(st)
	}
}
