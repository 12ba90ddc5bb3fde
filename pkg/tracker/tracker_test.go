package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai3-tools/xdm-bridge/pkg/models"
)

func newActiveRecord(t *Tracker, hash string, cancel func()) *models.TransferRecord {
	rec := t.Append(models.TransferRecord{
		Direction: models.ConsensusToDomain,
		Amount:    "2.5",
	})
	t.Activate(rec, hash, cancel)
	return rec
}

func TestAppendAssignsMonotonicIDs(t *testing.T) {
	tr := New()

	first := tr.Append(models.TransferRecord{Amount: "1"})
	second := tr.Append(models.TransferRecord{Amount: "2"})

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, models.StatusPending, first.Status)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Len(t, tr.Records(), 2)
}

func TestStatusMonotonic(t *testing.T) {
	tr := New()
	rec := newActiveRecord(tr, "0xh1", func() {})

	require.True(t, tr.SetStatus(rec, models.StatusInBlock))
	require.True(t, tr.SetStatus(rec, models.StatusFinalized))

	// the status never moves backward in the lifecycle
	assert.False(t, tr.SetStatus(rec, models.StatusPending))
	assert.False(t, tr.SetStatus(rec, models.StatusInBlock))
	assert.Equal(t, models.StatusFinalized, rec.Status)

	// a finality event after a terminal failure cannot revive the record
	require.True(t, tr.SetStatus(rec, models.StatusRetracted))
	assert.False(t, tr.SetStatus(rec, models.StatusFinalized))
	assert.Equal(t, models.StatusRetracted, rec.Status)
}

func TestReassignHash(t *testing.T) {
	tr := New()
	rec := newActiveRecord(tr, "0xh1", func() {})

	// the canonical hash assigned at block inclusion replaces the
	// provisional one, in the record and the gate together
	require.True(t, tr.ReassignHash("0xh1", "0xh2"))
	assert.Equal(t, "0xh2", rec.Hash)
	assert.Equal(t, "0xh2", tr.PendingHash())

	// a reassignment keyed on a superseded hash is a no-op
	assert.False(t, tr.ReassignHash("0xh1", "0xh3"))
	assert.Equal(t, "0xh2", tr.PendingHash())
}

func TestMergeConfirmed(t *testing.T) {
	tr := New()
	rec := newActiveRecord(tr, "0xh1", func() {})
	require.True(t, tr.SetStatus(rec, models.StatusInBlock))

	entry := models.HistoryEntry{
		Hash:        "0xh1",
		BlockNumber: 1234,
		Fee:         "0.001",
		Success:     true,
		Finalized:   true,
	}
	require.True(t, tr.MergeConfirmed("0xh1", entry))

	got, ok := tr.Get(rec.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusSubmitted, got.Status)
	assert.Equal(t, uint64(1234), got.BlockNumber)
	assert.Equal(t, "0.001", got.Fee)
	assert.True(t, got.Finalized)

	// the gate and the transferring flag are cleared together
	assert.Equal(t, "", tr.PendingHash())
	assert.False(t, tr.Transferring())
}

func TestMergeConfirmedStaleHash(t *testing.T) {
	tr := New()
	rec := newActiveRecord(tr, "0xh2", func() {})
	require.True(t, tr.SetStatus(rec, models.StatusInBlock))

	// history still holds the provisional hash; it must not match
	assert.False(t, tr.MergeConfirmed("0xh1", models.HistoryEntry{Hash: "0xh1"}))

	got, _ := tr.Get(rec.ID)
	assert.Equal(t, models.StatusInBlock, got.Status)
	assert.Equal(t, "0xh2", tr.PendingHash())
}

func TestMergeConfirmedAfterClearIsNoop(t *testing.T) {
	tr := New()
	rec := newActiveRecord(tr, "0xh1", func() {})
	require.True(t, tr.SetStatus(rec, models.StatusInBlock))

	tr.ClearPending("0xh1")

	// the gate was cleared before the tick fired: no mutation
	assert.False(t, tr.MergeConfirmed("0xh1", models.HistoryEntry{Hash: "0xh1", BlockNumber: 9}))
	got, _ := tr.Get(rec.ID)
	assert.Equal(t, models.StatusInBlock, got.Status)
	assert.Zero(t, got.BlockNumber)
}

func TestUnsubscribeExactlyOnce(t *testing.T) {
	tr := New()
	calls := 0
	rec := newActiveRecord(tr, "0xh1", func() { calls++ })

	assert.True(t, tr.Unsubscribe(rec))
	assert.False(t, tr.Unsubscribe(rec))
	assert.False(t, tr.Unsubscribe(rec))
	assert.Equal(t, 1, calls)
}

func TestUnsubscribePerRecord(t *testing.T) {
	tr := New()
	firstCalls, secondCalls := 0, 0

	first := newActiveRecord(tr, "0xh1", func() { firstCalls++ })
	// a second submission takes the gate while the first stream is live
	second := newActiveRecord(tr, "0xh2", func() { secondCalls++ })

	// the old stream's terminal event detaches the old stream, not the new one
	assert.True(t, tr.Unsubscribe(first))
	assert.Equal(t, 1, firstCalls)
	assert.Equal(t, 0, secondCalls)

	assert.True(t, tr.Unsubscribe(second))
	assert.Equal(t, 1, firstCalls)
	assert.Equal(t, 1, secondCalls)
}

func TestDispose(t *testing.T) {
	tr := New()
	firstCalls, secondCalls := 0, 0
	first := newActiveRecord(tr, "0xh1", func() { firstCalls++ })
	newActiveRecord(tr, "0xh2", func() { secondCalls++ })

	tr.Unsubscribe(first)
	tr.Dispose()

	// every live stream is detached, and never twice
	assert.Equal(t, 1, firstCalls)
	assert.Equal(t, 1, secondCalls)
	assert.Equal(t, "", tr.PendingHash())
	assert.False(t, tr.Transferring())

	tr.Dispose()
	assert.Equal(t, 1, firstCalls)
	assert.Equal(t, 1, secondCalls)
}

func TestActiveCount(t *testing.T) {
	tr := New()
	rec := newActiveRecord(tr, "0xh1", func() {})
	tr.Append(models.TransferRecord{Status: models.StatusFailed})

	assert.Equal(t, 1, tr.ActiveCount())

	require.True(t, tr.SetStatus(rec, models.StatusRetracted))
	assert.Equal(t, 0, tr.ActiveCount())
}
