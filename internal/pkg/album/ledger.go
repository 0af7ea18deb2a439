package album

import "sync"

// Set names one of the three membership sets of a Ledger
type Set int

const (
	// Pending items are queued or being downloaded
	Pending Set = iota
	// Completed items were written, or found on disk already
	Completed
	// Errored items failed for good
	Errored
)

func (s Set) String() string {
	switch s {
	case Pending:
		return "pending"
	case Completed:
		return "completed"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// Counts is a snapshot of the size of the three sets
type Counts struct {
	Pending   int
	Completed int
	Errored   int
}

// Total returns the number of items ever accepted
func (c Counts) Total() int {
	return c.Pending + c.Completed + c.Errored
}

// Ledger records every item identity of an album in exactly one of three
// sets: pending (identity -> destination), completed (identity -> path
// written) or errored (identity -> reason). A single lock guards the three
// maps so that Counts always returns a coherent snapshot.
type Ledger struct {
	sync.RWMutex
	allowDuplicates bool
	pending         map[string]string
	completed       map[string]string
	errored         map[string]string

	// number of tasks sharing a pending identity, above 1 only when
	// duplicates are allowed
	holders map[string]int
}

// NewLedger returns an empty ledger. With allowDuplicates, IsKnown always
// answers false and re-submissions are not checked at all.
func NewLedger(allowDuplicates bool) *Ledger {
	return &Ledger{
		allowDuplicates: allowDuplicates,
		pending:         make(map[string]string),
		completed:       make(map[string]string),
		errored:         make(map[string]string),
		holders:         make(map[string]int),
	}
}

// IsKnown returns true if the identity is in any of the three sets
func (l *Ledger) IsKnown(identity string) bool {
	if l.allowDuplicates {
		return false
	}

	l.RLock()
	defer l.RUnlock()

	_, _, found := l.lookup(identity)
	return found
}

// MarkPending records that identity is about to be downloaded to destination
func (l *Ledger) MarkPending(identity, destination string) {
	l.Lock()
	defer l.Unlock()

	l.pending[identity] = destination
	l.holders[identity]++
}

// MarkCompleted moves identity to the completed set
func (l *Ledger) MarkCompleted(identity, path string) {
	l.Lock()
	defer l.Unlock()

	l.unpend(identity)
	l.completed[identity] = path
}

// MarkErrored moves identity to the errored set
func (l *Ledger) MarkErrored(identity, reason string) {
	l.Lock()
	defer l.Unlock()

	l.unpend(identity)
	l.errored[identity] = reason
}

// Release forgets a pending identity whose task never reached a worker.
// Terminal entries are left alone, and so is an identity still held by
// another task.
func (l *Ledger) Release(identity string) {
	l.Lock()
	defer l.Unlock()

	l.unpend(identity)
}

func (l *Ledger) unpend(identity string) {
	if l.holders[identity] > 1 {
		l.holders[identity]--
		return
	}

	delete(l.holders, identity)
	delete(l.pending, identity)
}

// Lookup returns the set holding identity and the value stored with it
func (l *Ledger) Lookup(identity string) (set Set, value string, found bool) {
	l.RLock()
	defer l.RUnlock()

	return l.lookup(identity)
}

func (l *Ledger) lookup(identity string) (Set, string, bool) {
	if value, ok := l.pending[identity]; ok {
		return Pending, value, true
	}
	if value, ok := l.completed[identity]; ok {
		return Completed, value, true
	}
	if value, ok := l.errored[identity]; ok {
		return Errored, value, true
	}
	return Pending, "", false
}

// Counts returns the size of the three sets, read under the same lock
func (l *Ledger) Counts() Counts {
	l.RLock()
	defer l.RUnlock()

	return Counts{
		Pending:   len(l.pending),
		Completed: len(l.completed),
		Errored:   len(l.errored),
	}
}
