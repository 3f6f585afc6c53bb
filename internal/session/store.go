// Package session holds the login gate and persists it between runs.
package session

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"taskdesk/internal/utils"
)

// Hard-coded credentials accepted by Login.
const (
	ValidUsername = "admin"
	ValidPassword = "123"
)

// DefaultDisplayName is shown when no username is stored.
const DefaultDisplayName = "User"

// Session is a snapshot of the login state.
type Session struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	Username        string `json:"username,omitempty"`
}

// Store is the single source of truth for the login state.
type Store struct {
	kv      KeyValue
	mu      sync.RWMutex
	current Session
}

// Open reads the persisted state once.
func Open(kv KeyValue) *Store {
	s := &Store{kv: kv}

	loggedIn, _, err := kv.Get(KeyIsLoggedIn)
	if err != nil {
		utils.Warnf("session: could not read login state: %v", err)
		return s
	}
	username, _, err := kv.Get(KeyUsername)
	if err != nil {
		utils.Warnf("session: could not read username: %v", err)
	}

	s.current = Session{
		IsAuthenticated: loggedIn == "true",
		Username:        username,
	}
	return s
}

// Login compares against the hard-coded credentials and persists the outcome.
func (s *Store) Login(username, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if username == ValidUsername && password == ValidPassword {
		s.current = Session{IsAuthenticated: true, Username: username}
		s.persist(KeyUsername, username)
		s.persist(KeyIsLoggedIn, "true")
		utils.Debugf("session: logged in as %s", username)
		return true
	}

	s.current = Session{}
	if err := s.kv.Delete(KeyUsername); err != nil {
		utils.Warnf("session: could not remove username: %v", err)
	}
	s.persist(KeyIsLoggedIn, "false")
	utils.Debugf("session: login rejected")
	return false
}

func (s *Store) persist(key, value string) {
	if err := s.kv.Set(key, value); err != nil {
		utils.Warnf("session: could not save %s: %v", key, err)
	}
}

// Logout clears all persisted session state.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Session{}
	return s.kv.Clear()
}

// Current returns a copy of the session.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) IsAuthenticated() bool {
	return s.Current().IsAuthenticated
}

// Username returns the stored username, or "".
func (s *Store) Username() string {
	return s.Current().Username
}

// DisplayName returns the username, or DefaultDisplayName when none is stored.
func (s *Store) DisplayName() string {
	if u := s.Username(); u != "" {
		return u
	}
	return DefaultDisplayName
}

// Initials returns the upper-cased first letter of each name part.
func (s *Store) Initials() string {
	return Initials(s.DisplayName())
}

// Require returns an error when nobody is logged in.
func (s *Store) Require() error {
	if !s.IsAuthenticated() {
		return utils.ErrNotLoggedIn()
	}
	return nil
}

// Initials returns the upper-cased first rune of each space-separated part of name.
func Initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
