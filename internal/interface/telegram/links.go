package telegram

import "sync"

// LinkStore maps a chat to the student ID it asks about.
type LinkStore interface {
	Get(chatID int64) (string, bool)
	Set(chatID int64, studentID string)
	Delete(chatID int64) bool
}

// MemoryLinks is a process-lifetime LinkStore. Links are lost on restart
// and users link again with /link.
type MemoryLinks struct {
	mu    sync.RWMutex
	links map[int64]string
}

// NewMemoryLinks creates an empty store.
func NewMemoryLinks() *MemoryLinks {
	return &MemoryLinks{links: make(map[int64]string)}
}

func (m *MemoryLinks) Get(chatID int64) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.links[chatID]
	return id, ok
}

func (m *MemoryLinks) Set(chatID int64, studentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[chatID] = studentID
}

// Delete reports whether a link existed.
func (m *MemoryLinks) Delete(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.links[chatID]
	delete(m.links, chatID)
	return ok
}

// Len returns the number of linked chats.
func (m *MemoryLinks) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.links)
}
