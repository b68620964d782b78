// Package conversation holds the ordered list of chat turns shown to the user.
package conversation

import "sync"

// ─── Roles ──────────────────────────────────────────────────────────────────

// Role is the fixed category of a conversational turn.
type Role string

const (
	RoleUser              Role = "user"
	RoleAssistantInternal Role = "assistant-internal"
	RoleAssistant         Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistantInternal, RoleAssistant:
		return true
	}
	return false
}

// DisplayName returns a human-readable label for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistantInternal:
		return "Thoughts"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// ─── Record ─────────────────────────────────────────────────────────────────

// Record is one turn in the conversation.
type Record struct {
	ID        int    // insertion index, assigned by Append
	Seq       uint64 // send action that created the record, 0 if none
	Role      Role
	Content   string
	Finalized bool
}

// ─── Store ──────────────────────────────────────────────────────────────────

// Store is an append-only list of records. All methods are safe for
// concurrent use; each append and update is atomic with respect to readers.
type Store struct {
	mu       sync.Mutex
	records  []Record
	revision uint64
	changes  chan struct{}
}

// NewStore returns an empty conversation.
func NewStore() *Store {
	return &Store{changes: make(chan struct{}, 1)}
}

// Append adds a record at the end and returns its id.
func (s *Store) Append(seq uint64, role Role, content string, finalized bool) int {
	s.mu.Lock()
	id := len(s.records)
	s.records = append(s.records, Record{
		ID:        id,
		Seq:       seq,
		Role:      role,
		Content:   content,
		Finalized: finalized,
	})
	s.revision++
	s.mu.Unlock()

	s.notify()
	return id
}

// UpdateLatestUnfinalized replaces the content of the most recent
// non-finalized record with the given role. It returns false, and changes
// nothing, when no such record exists.
func (s *Store) UpdateLatestUnfinalized(role Role, content string, finalized bool) bool {
	s.mu.Lock()
	found := false
	for i := len(s.records) - 1; i >= 0; i-- {
		r := &s.records[i]
		if r.Role == role && !r.Finalized {
			r.Content = content
			r.Finalized = finalized
			s.revision++
			found = true
			break
		}
	}
	s.mu.Unlock()

	if found {
		s.notify()
	}
	return found
}

// Update replaces the content of the record with the given id. Finalized
// records and unknown ids are left untouched and report false.
func (s *Store) Update(id int, content string, finalized bool) bool {
	s.mu.Lock()
	if id < 0 || id >= len(s.records) || s.records[id].Finalized {
		s.mu.Unlock()
		return false
	}
	s.records[id].Content = content
	s.records[id].Finalized = finalized
	s.revision++
	s.mu.Unlock()

	s.notify()
	return true
}

// Snapshot returns a copy of every record in display order.
func (s *Store) Snapshot() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id int) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.records) {
		return Record{}, false
	}
	return s.records[id], true
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Revision counts successful mutations since the store was created.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Changes signals after successful mutations. Signals coalesce: a reader
// that falls behind sees one pending notification, then calls Snapshot.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

func (s *Store) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
