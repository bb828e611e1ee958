// Package history keeps the in-memory session log of completed
// assessments. Nothing here is durable: the log is bounded, lives in
// process memory, and dies with the process.
package history

import (
	"container/list"
	"sync"

	"github.com/opensource-health/heron/internal/domain"
)

// Log is a thread-safe, bounded, most-recent-first record of completed
// assessments. When the bound is exceeded the oldest entries are
// evicted.
type Log struct {
	mu         sync.RWMutex
	maxEntries int
	items      map[string]*list.Element
	order      *list.List // front = most recent
}

// NewLog creates a session log bounded to maxEntries records.
func NewLog(maxEntries int) *Log {
	if maxEntries <= 0 {
		maxEntries = 500
	}
	return &Log{
		maxEntries: maxEntries,
		items:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Add appends a completed assessment to the log, evicting the oldest
// entries when the bound is exceeded.
func (l *Log) Add(rec *domain.AssessmentRecord) {
	if rec == nil || rec.ID == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if elem, ok := l.items[rec.ID]; ok {
		// Re-recording the same assessment refreshes its position.
		l.order.MoveToFront(elem)
		elem.Value = rec
		return
	}

	elem := l.order.PushFront(rec)
	l.items[rec.ID] = elem

	for l.order.Len() > l.maxEntries {
		l.removeOldest()
	}
}

// Recent returns up to n records, most recent first. n <= 0 returns all.
func (l *Log) Recent(n int) []*domain.AssessmentRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > l.order.Len() {
		n = l.order.Len()
	}

	out := make([]*domain.AssessmentRecord, 0, n)
	for elem := l.order.Front(); elem != nil && len(out) < n; elem = elem.Next() {
		out = append(out, elem.Value.(*domain.AssessmentRecord))
	}
	return out
}

// Get returns the record with the given assessment ID.
func (l *Log) Get(id string) (*domain.AssessmentRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	elem, ok := l.items[id]
	if !ok {
		return nil, false
	}
	return elem.Value.(*domain.AssessmentRecord), true
}

// Len returns the number of records currently held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.order.Len()
}

// Clear empties the session log.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = make(map[string]*list.Element)
	l.order = list.New()
}

func (l *Log) removeOldest() {
	elem := l.order.Back()
	if elem == nil {
		return
	}
	l.order.Remove(elem)
	rec := elem.Value.(*domain.AssessmentRecord)
	delete(l.items, rec.ID)
}
