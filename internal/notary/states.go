package notary

import (
	"fmt"
	"sync"
)

// AttemptState tracks one notarization attempt. States are per attempt, not
// persisted: the durable fact is the record's BlockchainTxHash.
type AttemptState string

const (
	StateUnanchored           AttemptState = "unanchored"
	StateSubmitting           AttemptState = "submitting"
	StateAwaitingConfirmation AttemptState = "awaiting_confirmation"
	StateAnchored             AttemptState = "anchored"
	StateFailed               AttemptState = "failed"
)

// transitions is the allowed edge set. Anchored is terminal; Failed absorbs
// from both in-flight states.
var transitions = map[AttemptState][]AttemptState{
	StateUnanchored:           {StateSubmitting},
	StateSubmitting:           {StateAwaitingConfirmation, StateFailed},
	StateAwaitingConfirmation: {StateAnchored, StateFailed},
}

// attempt is the in-flight view of one document's notarization.
type attempt struct {
	state AttemptState
}

// transition moves the attempt along an allowed edge. A disallowed edge is a
// programming error, not an input error.
func (a *attempt) transition(to AttemptState) error {
	for _, allowed := range transitions[a.state] {
		if allowed == to {
			a.state = to
			return nil
		}
	}
	return fmt.Errorf("illegal attempt transition %s -> %s", a.state, to)
}

// locks is the per-document mutual-exclusion registry. TryAcquire fails fast:
// a second notarize on the same document does not queue.
type locks struct {
	mu     sync.Mutex
	active map[string]*attempt
}

func newLocks() *locks {
	return &locks{active: make(map[string]*attempt)}
}

// tryAcquire claims the document for a new attempt. Distinct documents
// notarize independently.
func (l *locks) tryAcquire(documentID string) (*attempt, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.active[documentID]; held {
		return nil, false
	}
	a := &attempt{state: StateUnanchored}
	l.active[documentID] = a
	return a, true
}

func (l *locks) release(documentID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, documentID)
}

// held reports how many attempts are currently in flight.
func (l *locks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.active)
}
