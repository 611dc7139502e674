// Package notify delivers scheduled messages: the morning digest and the
// pre-event reminder sweep.
package notify

import (
	"sync"
	"time"
)

const (
	// dedupCapacity bounds the reminder memory. On overflow, entries older
	// than dedupRetention are dropped; the retention comfortably exceeds the
	// reminder window, so eviction can never cause a duplicate send.
	dedupCapacity  = 10000
	dedupRetention = 24 * time.Hour
)

type dedupKey struct {
	userID  string
	eventID string
}

// Deduplicator remembers which (user, event) reminders were already sent,
// so the periodic sweep never notifies twice. Safe for concurrent use.
type Deduplicator struct {
	mu   sync.Mutex
	sent map[dedupKey]time.Time

	now func() time.Time
}

// NewDeduplicator creates an empty reminder deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		sent: make(map[dedupKey]time.Time),
		now:  time.Now,
	}
}

// Mark records that a reminder for the event was sent to the user. It
// returns true on the first call for a given pair and false on repeats.
func (d *Deduplicator) Mark(userID, eventID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := dedupKey{userID: userID, eventID: eventID}
	if _, seen := d.sent[key]; seen {
		return false
	}
	if len(d.sent) >= dedupCapacity {
		d.evictLocked()
	}
	d.sent[key] = d.now()
	return true
}

// evictLocked drops entries older than the retention window.
func (d *Deduplicator) evictLocked() {
	cutoff := d.now().Add(-dedupRetention)
	for key, sentAt := range d.sent {
		if sentAt.Before(cutoff) {
			delete(d.sent, key)
		}
	}
}

// Len reports how many reminders are currently remembered.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}
