// Package identity resolves the signed-in account whose data is synced.
// The engine never mints credentials itself; it observes whatever identity
// the surrounding app has established.
package identity

import (
	"errors"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// ErrSignedOut is returned when no account is signed in.
var ErrSignedOut = errors.New("identity: signed out")

// Identity describes the signed-in account.
type Identity struct {
	ID    string
	Email string
}

// Provider exposes the current identity and change notifications.
type Provider interface {
	// Current returns the signed-in identity or ErrSignedOut.
	Current() (Identity, error)

	// OnChange registers fn to run whenever the identity changes, including
	// sign-out. The returned function removes the registration.
	OnChange(fn func(Identity, error)) (remove func())
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenProvider derives the identity from an access token issued by the
// app's auth backend. The token is treated as opaque credentials: the claims
// are read without signature verification because the client holds no key,
// the backend re-verifies every request.
type TokenProvider struct {
	mu        sync.Mutex
	parser    *jwt.Parser
	current   Identity
	signedIn  bool
	nextID    int
	listeners map[int]func(Identity, error)
}

// NewTokenProvider returns a provider with no identity set.
func NewTokenProvider() *TokenProvider {
	return &TokenProvider{
		parser:    jwt.NewParser(),
		listeners: make(map[int]func(Identity, error)),
	}
}

// SetToken parses token and installs the identity it names. An identity
// change fans out to every OnChange listener.
func (p *TokenProvider) SetToken(token string) error {
	var c claims
	if _, _, err := p.parser.ParseUnverified(token, &c); err != nil {
		return err
	}
	if c.Subject == "" {
		return errors.New("identity: token has no subject")
	}

	p.mu.Lock()
	id := Identity{ID: c.Subject, Email: c.Email}
	changed := !p.signedIn || p.current != id
	p.current = id
	p.signedIn = true
	fns := p.snapshotLocked()
	p.mu.Unlock()

	if changed {
		for _, fn := range fns {
			fn(id, nil)
		}
	}
	return nil
}

// SignOut clears the identity and notifies listeners with ErrSignedOut.
func (p *TokenProvider) SignOut() {
	p.mu.Lock()
	wasSignedIn := p.signedIn
	p.signedIn = false
	p.current = Identity{}
	fns := p.snapshotLocked()
	p.mu.Unlock()

	if wasSignedIn {
		for _, fn := range fns {
			fn(Identity{}, ErrSignedOut)
		}
	}
}

// Current implements Provider.
func (p *TokenProvider) Current() (Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.signedIn {
		return Identity{}, ErrSignedOut
	}
	return p.current, nil
}

// OnChange implements Provider.
func (p *TokenProvider) OnChange(fn func(Identity, error)) (remove func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

func (p *TokenProvider) snapshotLocked() []func(Identity, error) {
	fns := make([]func(Identity, error), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	return fns
}

// Static is a fixed identity, handy in tests and one-shot tools.
type Static struct {
	Identity Identity
	Err      error
}

// Current implements Provider.
func (s *Static) Current() (Identity, error) {
	if s.Err != nil {
		return Identity{}, s.Err
	}
	return s.Identity, nil
}

// OnChange implements Provider. A static identity never changes.
func (s *Static) OnChange(func(Identity, error)) (remove func()) {
	return func() {}
}
