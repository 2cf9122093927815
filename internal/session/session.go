// Package session holds the signed-in identity for one client and its
// lifecycle: Loading until Start has checked the stored token, then
// Anonymous or Authenticated.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/bunchup/bunchup/internal/client"
	"github.com/bunchup/bunchup/internal/inflight"
	"github.com/bunchup/bunchup/internal/log"
	"github.com/bunchup/bunchup/internal/model"
)

type State int

const (
	Loading State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

var (
	// ErrBusy is returned when a sign-in, registration, sign-out or startup
	// check is already running on this session.
	ErrBusy = errors.New("sign-in already in progress")
	// ErrSignedOut gates mutations on the client side.
	ErrSignedOut = errors.New("sign in first")
)

const busyKey = "session"

// Snapshot is a consistent copy of the session at one moment.
type Snapshot struct {
	State State
	User  *model.User
	Err   string
}

func (s Snapshot) IsSignedIn() bool {
	return s.State == Authenticated
}

type Session struct {
	client  *client.Client
	pending *inflight.Tracker

	mu        sync.RWMutex
	state     State
	user      *model.User
	lastErr   string
	listeners map[int]func(Snapshot)
	nextID    int
}

func New(c *client.Client) *Session {
	return &Session{
		client:    c,
		pending:   inflight.New(),
		state:     Loading,
		listeners: make(map[int]func(Snapshot)),
	}
}

func (s *Session) Client() *client.Client {
	return s.client
}

// Start performs the startup check. With no stored token the session becomes
// Anonymous. A token the server rejects is discarded. A token that could not
// be checked because the server was unreachable is kept for the next start.
func (s *Session) Start(ctx context.Context) error {
	release, ok := s.pending.Begin(busyKey)
	if !ok {
		return ErrBusy
	}
	defer release()

	token, err := s.client.Tokens.Load(ctx)
	if err != nil {
		s.set(Anonymous, nil, err.Error())
		return err
	}
	if token == "" {
		s.set(Anonymous, nil, "")
		return nil
	}

	user, err := s.client.Auth.Me(ctx)
	if err != nil {
		if errors.Is(err, client.ErrNetwork) {
			log.Warn.Printf("session check skipped: %v", err)
			s.set(Anonymous, nil, err.Error())
			return err
		}
		log.Info.Printf("stored token rejected: %v", err)
		if clearErr := s.client.Tokens.Clear(ctx); clearErr != nil {
			log.Error.Printf("discard token: %v", clearErr)
		}
		s.set(Anonymous, nil, "")
		return nil
	}
	s.set(Authenticated, user, "")
	return nil
}

// SignIn logs in, stores the token and loads the user. A failed login leaves
// the session and stored token as they were. A token the server issues but
// then refuses for the user lookup is removed again, never left behind.
func (s *Session) SignIn(ctx context.Context, username, password string) (*model.User, error) {
	release, ok := s.pending.Begin(busyKey)
	if !ok {
		return nil, ErrBusy
	}
	defer release()

	token, err := s.client.Auth.Login(ctx, username, password)
	if err != nil {
		s.setErr(err.Error())
		return nil, err
	}
	if err := s.client.Tokens.Save(ctx, token.AccessToken); err != nil {
		s.setErr(err.Error())
		return nil, err
	}

	user, err := s.client.Auth.Me(ctx)
	if err != nil {
		log.Warn.Printf("user lookup after login failed, discarding token: %v", err)
		if clearErr := s.client.Tokens.Clear(ctx); clearErr != nil {
			log.Error.Printf("discard token: %v", clearErr)
		}
		s.set(Anonymous, nil, err.Error())
		return nil, err
	}
	s.set(Authenticated, user, "")
	return user, nil
}

// Register creates an account without signing in.
func (s *Session) Register(ctx context.Context, username, password string, role model.Role) (*model.User, error) {
	release, ok := s.pending.Begin(busyKey)
	if !ok {
		return nil, ErrBusy
	}
	defer release()

	user, err := s.client.Auth.Register(ctx, username, password, role)
	if err != nil {
		s.setErr(err.Error())
		return nil, err
	}
	return user, nil
}

// SignOut discards the token and clears any error. It is refused with
// ErrBusy while a sign-in is running, which would otherwise store its token
// after the sign-out.
func (s *Session) SignOut(ctx context.Context) error {
	release, ok := s.pending.Begin(busyKey)
	if !ok {
		return ErrBusy
	}
	defer release()

	err := s.client.Tokens.Clear(ctx)
	s.set(Anonymous, nil, "")
	return err
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) IsSignedIn() bool {
	return s.State() == Authenticated
}

// Busy reports whether a sign-in, registration or startup check is running.
func (s *Session) Busy() bool {
	return s.pending.Busy(busyKey)
}

// Err is the message of the last failed sign-in or startup check.
func (s *Session) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Require returns the signed-in user or ErrSignedOut.
func (s *Session) Require() (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Authenticated || s.user == nil {
		return nil, ErrSignedOut
	}
	return s.user, nil
}

// Subscribe registers fn to run after every state change. The returned
// func removes it.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) set(state State, user *model.User, errMsg string) {
	s.mu.Lock()
	s.state = state
	s.user = user
	s.lastErr = errMsg
	snap, listeners := s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()
	notify(listeners, snap)
}

// setErr records a failure without changing identity. A session still
// Loading settles as Anonymous.
func (s *Session) setErr(errMsg string) {
	s.mu.Lock()
	if s.state == Loading {
		s.state = Anonymous
	}
	s.lastErr = errMsg
	snap, listeners := s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()
	notify(listeners, snap)
}

func (s *Session) snapshotLocked() Snapshot {
	var user *model.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Snapshot{State: s.state, User: user, Err: s.lastErr}
}

func (s *Session) listenersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func(Snapshot), snap Snapshot) {
	for _, fn := range listeners {
		fn(snap)
	}
}
