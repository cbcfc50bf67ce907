// Package session owns the bearer credential for the current operator.
//
// The Guard is the only writer of the credential. Every other component
// receives the Guard at construction and reads through it; an authentication
// failure anywhere is reported back through Invalidate, which clears the
// credential and sends the operator to the login view.
package session

import (
	"sync"

	"github.com/nexus-erp/nexusctl/internal/logger"
)

// View identifies the screen a session check is made from.
type View string

const (
	ViewLogin     View = "login"
	ViewDashboard View = "dashboard"
	ViewSnapshot  View = "snapshot"
	ViewWatch     View = "watch"
)

// Redirector sends the operator to the login view.
type Redirector interface {
	RedirectToLogin(reason string)
}

// RedirectFunc adapts a function to Redirector.
type RedirectFunc func(reason string)

// RedirectToLogin calls f(reason).
func (f RedirectFunc) RedirectToLogin(reason string) {
	f(reason)
}

// Guard holds the current credential and gates protected views.
type Guard struct {
	mu       sync.RWMutex
	token    string
	store    Store
	redirect Redirector
	log      logger.Logger
}

// NewGuard creates a guard and loads any persisted credential from store.
// A store read failure is logged and treated as logged out.
func NewGuard(store Store, redirect Redirector, log logger.Logger) *Guard {
	g := &Guard{
		store:    store,
		redirect: redirect,
		log:      logger.OrDefault(log),
	}
	if store != nil {
		token, err := store.Load()
		if err != nil {
			g.log.Warn("ignoring unreadable session: %v", err)
		}
		g.token = token
	}
	return g
}

// SetRedirector replaces the redirect target. Front ends install theirs once
// the view that handles redirects exists.
func (g *Guard) SetRedirector(r Redirector) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.redirect = r
}

// Credential returns the current bearer token and whether one is present.
func (g *Guard) Credential() (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token, g.token != ""
}

// RequireSession redirects to login when no credential is present and view is
// not the login view itself. Returns whether a credential is present.
func (g *Guard) RequireSession(view View) bool {
	g.mu.RLock()
	present := g.token != ""
	redirect := g.redirect
	g.mu.RUnlock()

	if present {
		return true
	}
	if view != ViewLogin {
		g.log.Debug("no session on %s view, redirecting to login", view)
		if redirect != nil {
			redirect.RedirectToLogin("no active session")
		}
	}
	return false
}

// Establish records a freshly issued credential and persists it.
func (g *Guard) Establish(token string) error {
	g.mu.Lock()
	g.token = token
	store := g.store
	g.mu.Unlock()

	if store == nil {
		return nil
	}
	return store.Save(token)
}

// Invalidate clears the credential in memory and in the store, then redirects
// to login. Each call issues exactly one redirect.
func (g *Guard) Invalidate(reason string) {
	g.mu.Lock()
	g.token = ""
	store := g.store
	redirect := g.redirect
	g.mu.Unlock()

	if store != nil {
		if err := store.Clear(); err != nil {
			g.log.Warn("failed to clear stored session: %v", err)
		}
	}

	g.log.Debug("session invalidated: %s", reason)
	if redirect != nil {
		redirect.RedirectToLogin(reason)
	}
}
