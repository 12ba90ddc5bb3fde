// Package tracker owns the transfer tracking record list: the append-only,
// mutated-in-place set of transfer attempts the UI observes, plus the single
// active-submission gate that makes stale events and poll ticks harmless.
package tracker

import (
	"sync"
	"time"

	"github.com/ai3-tools/xdm-bridge/pkg/models"
)

// Tracker tracks transfer records. At most one submission is active at a
// time; its extrinsic hash is the gate every poll result is checked against,
// so a tick that fires after the gate moved on mutates nothing.
type Tracker struct {
	mu      sync.Mutex
	nextID  int64
	records []*models.TransferRecord

	pendingHash  string
	transferring bool
	active       *models.TransferRecord

	// subs owns each record's status-stream cancel, keyed by record ID.
	// Each cancel must run exactly once, on the record's terminal
	// transition or on disposal. The gate can move to a newer submission
	// while an older stream is still live, so ownership is per record,
	// never a single slot.
	subs map[int64]*subscription
}

type subscription struct {
	cancel    func()
	cancelled bool
}

// New creates an empty tracker
func New() *Tracker {
	return &Tracker{subs: make(map[int64]*subscription)}
}

// Append creates a new tracking record from the template and returns it.
// Records are never removed; completed and failed attempts stay as history.
func (t *Tracker) Append(template models.TransferRecord) *models.TransferRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := template
	t.nextID++
	rec.ID = t.nextID
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.Status == "" {
		rec.Status = models.StatusPending
	}
	t.records = append(t.records, &rec)
	return &rec
}

// Activate marks the record as the single live submission, keyed by the
// provisional hash, and takes ownership of the subscription cancel function.
func (t *Tracker) Activate(rec *models.TransferRecord, hash string, cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec.Hash = hash
	t.active = rec
	t.pendingHash = hash
	t.transferring = true
	t.subs[rec.ID] = &subscription{cancel: cancel}
}

// PendingHash returns the hash of the live submission, or "" when none
func (t *Tracker) PendingHash() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pendingHash
}

// Transferring reports whether a submission is currently in flight
func (t *Tracker) Transferring() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transferring
}

// ReassignHash replaces the provisional hash with the canonical one assigned
// at block inclusion. The record and the gate move in lockstep so later
// lookups use the correct value. Returns false if old is no longer the gate.
func (t *Tracker) ReassignHash(old, canonical string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pendingHash != old || t.active == nil {
		return false
	}
	t.pendingHash = canonical
	t.active.Hash = canonical
	return true
}

// SetStatus advances the record's status. Transitions are monotonic forward
// through the lifecycle; a terminal record cannot be revived, so a late
// finality event after a retraction is ignored.
func (t *Tracker) SetStatus(rec *models.TransferRecord, st models.Status) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !models.Forward(rec.Status, st) {
		return false
	}
	rec.Status = st
	if st == models.StatusFinalized {
		rec.Finalized = true
	}
	return true
}

// SetBlockNumber records the including block once known
func (t *Tracker) SetBlockNumber(rec *models.TransferRecord, block uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if block != 0 {
		rec.BlockNumber = block
	}
}

// MergeConfirmed merges authoritative indexer fields into the live record and
// marks it submitted, then clears the gate and the transferring flag. The
// whole operation is a no-op unless hash still matches the gate.
func (t *Tracker) MergeConfirmed(hash string, entry models.HistoryEntry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pendingHash != hash || t.active == nil {
		return false
	}
	if !models.Forward(t.active.Status, models.StatusSubmitted) {
		return false
	}

	t.active.Status = models.StatusSubmitted
	t.active.BlockNumber = entry.BlockNumber
	t.active.Fee = entry.Fee
	t.active.Finalized = entry.Finalized
	if !entry.Success {
		t.active.Status = models.StatusFailed
	}

	t.pendingHash = ""
	t.transferring = false
	return true
}

// MarkSuccess records destination-side arrival of the bridged funds
func (t *Tracker) MarkSuccess(rec *models.TransferRecord) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !models.Forward(rec.Status, models.StatusSuccess) {
		return false
	}
	rec.Status = models.StatusSuccess
	return true
}

// ClearPending drops the gate if hash still owns it
func (t *Tracker) ClearPending(hash string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pendingHash == hash {
		t.pendingHash = ""
		t.transferring = false
		t.active = nil
	}
}

// ClearTransferring clears the in-flight flag without touching the gate
func (t *Tracker) ClearTransferring() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transferring = false
}

// Unsubscribe invokes the record's subscription cancel exactly once. Returns
// true when the cancel ran on this call. A late terminal event on an old
// stream detaches that stream only, never a newer submission's.
func (t *Tracker) Unsubscribe(rec *models.TransferRecord) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	sub := t.subs[rec.ID]
	if sub == nil || sub.cancelled {
		return false
	}
	sub.cancelled = true
	sub.cancel()
	return true
}

// Dispose tears down all live submissions: every still-subscribed stream is
// detached and the gate cleared. Used on session disconnect.
func (t *Tracker) Dispose() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, sub := range t.subs {
		if !sub.cancelled {
			sub.cancelled = true
			sub.cancel()
		}
	}
	t.pendingHash = ""
	t.transferring = false
	t.active = nil
}

// Get returns a copy of the record with the given id
func (t *Tracker) Get(id int64) (models.TransferRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, r := range t.records {
		if r.ID == id {
			return *r, true
		}
	}
	return models.TransferRecord{}, false
}

// Records returns a snapshot of all tracked records, oldest first
func (t *Tracker) Records() []models.TransferRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.TransferRecord, len(t.records))
	for i, r := range t.records {
		out[i] = *r
	}
	return out
}

// ActiveCount returns the number of non-terminal records
func (t *Tracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, r := range t.records {
		if !r.Status.Terminal() {
			n++
		}
	}
	return n
}
