package scheduler

import "sync"

// TriggeredSet remembers which "<alarmID>-<DAY>" keys already fired today.
// It lives only as long as the process; a restart forgets it.
type TriggeredSet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewTriggeredSet() *TriggeredSet {
	return &TriggeredSet{keys: make(map[string]struct{})}
}

func (t *TriggeredSet) Has(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.keys[key]
	return ok
}

// Add marks key as fired. It returns false when the key was already present.
func (t *TriggeredSet) Add(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.keys[key]; ok {
		return false
	}
	t.keys[key] = struct{}{}
	return true
}

func (t *TriggeredSet) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.keys)
}

func (t *TriggeredSet) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.keys)
}
