package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai3-tools/xdm-bridge/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveTransferUpsertsByHash(t *testing.T) {
	s := openTestStore(t)

	rec := models.TransferRecord{
		Hash:               "0xabc",
		Status:             models.StatusFinalized,
		Direction:          models.ConsensusToDomain,
		Amount:             "5",
		BaseAmount:         "5000000000000000000",
		SourceAddress:      "suConsensus",
		DestinationAddress: "0x1234",
		BlockNumber:        10,
		CreatedAt:          time.Now().UTC(),
	}
	require.NoError(t, s.SaveTransfer(rec))

	rec.Status = models.StatusSuccess
	rec.Fee = "0.001"
	rec.Finalized = true
	require.NoError(t, s.SaveTransfer(rec))

	recs, err := s.RecentTransfers(10)
	require.NoError(t, err)
	require.Len(t, recs, 1, "same hash must not duplicate")
	assert.Equal(t, models.StatusSuccess, recs[0].Status)
	assert.Equal(t, "0.001", recs[0].Fee)
	assert.True(t, recs[0].Finalized)
}

func TestRecentTransfersNewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Now().UTC()
	for i, hash := range []string{"0x1", "0x2", "0x3"} {
		require.NoError(t, s.SaveTransfer(models.TransferRecord{
			Hash:      hash,
			Status:    models.StatusSuccess,
			Direction: models.ConsensusToDomain,
			Amount:    "1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recs, err := s.RecentTransfers(2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "0x3", recs[0].Hash)
	assert.Equal(t, "0x2", recs[1].Hash)
}

func TestSaveHistoryRoundTrip(t *testing.T) {
	s := openTestStore(t)

	entries := []models.HistoryEntry{
		{Hash: "0xh1", BlockNumber: 5, Amount: "1.5", Direction: models.ConsensusToDomain, Success: true, Timestamp: time.Now().UTC()},
		{Hash: "0xh2", BlockNumber: 6, Amount: "2", Direction: models.ConsensusToDomain, Success: false, Timestamp: time.Now().UTC().Add(time.Minute)},
	}
	require.NoError(t, s.SaveHistory(entries))

	// Re-saving with updated finality must not duplicate rows.
	entries[1].Finalized = true
	require.NoError(t, s.SaveHistory(entries))

	got, err := s.RecentHistory(10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "0xh2", got[0].Hash)
	assert.True(t, got[0].Finalized)
}
