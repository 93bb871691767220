package app

import "sync"

// SessionRegistry maps chat IDs to at most one live session each. The
// pending-setup flag closes the window between a /quiz command and the
// session actually starting, so two concurrent starts in the same chat
// cannot both win: the first claims the slot, the second is rejected.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	pending  map[string]*pendingSetup
}

type pendingSetup struct {
	category string
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		pending:  make(map[string]*pendingSetup),
	}
}

// TryBeginSetup atomically claims the chat's quiz slot. It fails when a
// session is live or another setup is pending.
func (r *SessionRegistry) TryBeginSetup(chatID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[chatID]; ok {
		return false
	}
	if _, ok := r.pending[chatID]; ok {
		return false
	}
	r.pending[chatID] = &pendingSetup{}
	return true
}

// SetCategory records the chosen category on the pending setup. It fails
// when no setup is pending for the chat.
func (r *SessionRegistry) SetCategory(chatID, category string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[chatID]
	if !ok {
		return false
	}
	p.category = category
	return true
}

// PendingCategory returns the category selected during setup, if any.
func (r *SessionRegistry) PendingCategory(chatID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[chatID]
	if !ok {
		return "", false
	}
	return p.category, true
}

// Commit installs the finished session and clears the pending flag.
func (r *SessionRegistry) Commit(chatID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, chatID)
	r.sessions[chatID] = s
}

// Abort clears the pending flag without installing a session.
func (r *SessionRegistry) Abort(chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, chatID)
}

func (r *SessionRegistry) Get(chatID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[chatID]
	return s, ok
}

func (r *SessionRegistry) Remove(chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, chatID)
}
