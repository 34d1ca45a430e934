// Package presence tracks each user's online/away/offline state.
// Presence is advisory: it never gates message delivery, and no
// history is kept, so the whole thing lives in memory. Transitions
// still fan out through the propagation channel so other sessions and
// nodes observe them.
package presence

import (
	"context"
	"sync"
	"time"

	"github.com/neighborhq/neighbor/types"
)

type Publisher interface {
	PublishUser(userID string, ev types.ChangeEvent) error
}

type Config struct {
	// AwayAfter demotes online to away without a heartbeat.
	AwayAfter time.Duration
	// OfflineAfter demotes away to offline without a heartbeat.
	OfflineAfter time.Duration
	// SweepInterval is how often the demotion sweep runs.
	SweepInterval time.Duration
	Publisher     Publisher
}

type Tracker struct {
	awayAfter     time.Duration
	offlineAfter  time.Duration
	sweepInterval time.Duration
	publisher     Publisher

	mu     sync.Mutex
	states map[string]*entry

	now func() time.Time
}

type entry struct {
	status   types.PresenceStatus
	lastSeen time.Time
}

func NewTracker(cfg Config) *Tracker {
	if cfg.AwayAfter <= 0 {
		cfg.AwayAfter = time.Minute
	}
	if cfg.OfflineAfter <= 0 {
		cfg.OfflineAfter = 5 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 15 * time.Second
	}
	return &Tracker{
		awayAfter:     cfg.AwayAfter,
		offlineAfter:  cfg.OfflineAfter,
		sweepInterval: cfg.SweepInterval,
		publisher:     cfg.Publisher,
		states:        make(map[string]*entry),
		now:           time.Now,
	}
}

// Heartbeat marks the user online and refreshes their last-seen time.
func (t *Tracker) Heartbeat(userID string) {
	t.Set(userID, types.PresenceOnline)
}

// Set applies an explicit client signal: focus reports online, blur
// reports away, unload reports offline. Signals are never dropped; a
// same-state signal still refreshes last-seen.
func (t *Tracker) Set(userID string, status types.PresenceStatus) {
	now := t.now()

	t.mu.Lock()
	e, ok := t.states[userID]
	if !ok {
		e = &entry{status: types.PresenceOffline}
		t.states[userID] = e
	}
	changed := e.status != status
	e.status = status
	e.lastSeen = now
	if status == types.PresenceOffline {
		delete(t.states, userID)
	}
	t.mu.Unlock()

	if changed {
		t.announce(userID, status, now)
	}
}

// Get returns the user's current state. Unknown users are offline.
func (t *Tracker) Get(userID string) types.Presence {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.states[userID]
	if !ok {
		return types.Presence{UserID: userID, Status: types.PresenceOffline}
	}
	return types.Presence{UserID: userID, Status: e.status, LastSeen: e.lastSeen.Unix()}
}

// Run sweeps until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sweep(t.now())
		}
	}
}

func (t *Tracker) sweep(now time.Time) {
	type transition struct {
		userID string
		status types.PresenceStatus
		at     time.Time
	}
	var transitions []transition

	t.mu.Lock()
	for userID, e := range t.states {
		idle := now.Sub(e.lastSeen)
		switch {
		case idle >= t.offlineAfter:
			delete(t.states, userID)
			transitions = append(transitions, transition{userID, types.PresenceOffline, now})
		case idle >= t.awayAfter && e.status == types.PresenceOnline:
			e.status = types.PresenceAway
			transitions = append(transitions, transition{userID, types.PresenceAway, now})
		}
	}
	t.mu.Unlock()

	for _, tr := range transitions {
		t.announce(tr.userID, tr.status, tr.at)
	}
}

func (t *Tracker) announce(userID string, status types.PresenceStatus, at time.Time) {
	if t.publisher == nil {
		return
	}

	// Best effort. A lost presence event self-corrects on the next
	// heartbeat or sweep.
	_ = t.publisher.PublishUser(userID, types.ChangeEvent{
		Event: types.EventUpdate,
		Table: types.TablePresence,
		Record: types.Presence{
			UserID:   userID,
			Status:   status,
			LastSeen: at.Unix(),
		},
	})
}
