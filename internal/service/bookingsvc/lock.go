package bookingsvc

import "sync"

// trainerLocks serializes the check-then-create sequence per trainer so two
// concurrent requests cannot both pass the conflict check before either
// commits.
type trainerLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTrainerLocks() *trainerLocks {
	return &trainerLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the trainer's mutex and returns the matching unlock.
func (t *trainerLocks) acquire(trainerID string) func() {
	t.mu.Lock()
	l, ok := t.locks[trainerID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[trainerID] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}
