// Package store persists settled transfers and fetched history in a local
// sqlite database so restarts keep the transfer list.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ai3-tools/xdm-bridge/pkg/models"
)

// Store wraps the sqlite handle
type Store struct {
	db *sql.DB
}

// Open opens (and when missing, creates) the database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %v", path, err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transfers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hash TEXT UNIQUE,
			status TEXT,
			direction TEXT,
			amount TEXT,
			base_amount TEXT,
			source_address TEXT,
			destination_address TEXT,
			block_number INTEGER,
			fee TEXT,
			finalized BOOLEAN,
			created_at DATETIME
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create transfers table: %v", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			hash TEXT PRIMARY KEY,
			block_number INTEGER,
			extrinsic_index TEXT,
			amount TEXT,
			destination TEXT,
			domain_id TEXT,
			direction TEXT,
			success BOOLEAN,
			finalized BOOLEAN,
			fee TEXT,
			timestamp DATETIME
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create history table: %v", err)
	}
	return nil
}

// SaveTransfer upserts one settled transfer keyed by extrinsic hash
func (s *Store) SaveTransfer(rec models.TransferRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO transfers (hash, status, direction, amount, base_amount, source_address, destination_address, block_number, fee, finalized, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			status = excluded.status,
			block_number = excluded.block_number,
			fee = excluded.fee,
			finalized = excluded.finalized
	`, rec.Hash, string(rec.Status), string(rec.Direction), rec.Amount, rec.BaseAmount,
		rec.SourceAddress, rec.DestinationAddress, rec.BlockNumber, rec.Fee, rec.Finalized, rec.CreatedAt)
	return err
}

// SaveHistory upserts a page of indexer history entries
func (s *Store) SaveHistory(entries []models.HistoryEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO history (hash, block_number, extrinsic_index, amount, destination, domain_id, direction, success, finalized, fee, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			success = excluded.success,
			finalized = excluded.finalized,
			fee = excluded.fee
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.Hash, e.BlockNumber, e.ExtrinsicIndex, e.Amount, e.Destination,
			e.DomainID, string(e.Direction), e.Success, e.Finalized, e.Fee, e.Timestamp); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// RecentTransfers returns up to limit settled transfers, newest first
func (s *Store) RecentTransfers(limit int) ([]models.TransferRecord, error) {
	rows, err := s.db.Query(`
		SELECT hash, status, direction, amount, base_amount, source_address, destination_address, block_number, fee, finalized, created_at
		FROM transfers
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.TransferRecord
	for rows.Next() {
		var rec models.TransferRecord
		var status, direction string
		var created time.Time
		if err := rows.Scan(&rec.Hash, &status, &direction, &rec.Amount, &rec.BaseAmount,
			&rec.SourceAddress, &rec.DestinationAddress, &rec.BlockNumber, &rec.Fee, &rec.Finalized, &created); err != nil {
			return nil, err
		}
		rec.Status = models.Status(status)
		rec.Direction = models.Direction(direction)
		rec.CreatedAt = created
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// RecentHistory returns up to limit indexer entries, newest first
func (s *Store) RecentHistory(limit int) ([]models.HistoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT hash, block_number, extrinsic_index, amount, destination, domain_id, direction, success, finalized, fee, timestamp
		FROM history
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var direction string
		if err := rows.Scan(&e.Hash, &e.BlockNumber, &e.ExtrinsicIndex, &e.Amount, &e.Destination,
			&e.DomainID, &direction, &e.Success, &e.Finalized, &e.Fee, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Direction = models.Direction(direction)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.db.Close()
}
