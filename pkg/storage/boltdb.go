package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cuemby/printq/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketRuns   = []byte("runs")
	bucketRunIDs = []byte("run_ids")
)

// LockTimeout bounds the wait for the database file lock
var LockTimeout = time.Second

var _ Store = (*BoltStore)(nil)

// BoltStore implements Store interface using BoltDB
type BoltStore struct {
	db *bolt.DB
}

func open(dbPath string, readOnly bool) (*bolt.DB, error) {
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: LockTimeout, ReadOnly: readOnly})
	if errors.Is(err, bolt.ErrTimeout) {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dbPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// NewBoltStore creates a new BoltDB-backed store. The file lock is
// exclusive, so a second writer fails with ErrLocked after LockTimeout.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "printq.db")

	db, err := open(dbPath, false)
	if err != nil {
		return nil, err
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketRuns, bucketRunIDs} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// OpenReadOnly opens an existing store for reading. Readers share the
// lock with each other but not with a writer. A missing database yields an
// error wrapping os.ErrNotExist.
func OpenReadOnly(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "printq.db")
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db, err := open(dbPath, true)
	if err != nil {
		return nil, err
	}

	err = db.View(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketRuns, bucketRunIDs} {
			if tx.Bucket(bucket) == nil {
				return fmt.Errorf("database has no %s bucket", bucket)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// runKey orders reports by start time; the ID breaks ties
func runKey(report *types.RunReport) []byte {
	return []byte(fmt.Sprintf("%020d-%s", report.StartedAt.UnixNano(), report.ID))
}

// SaveReport stores a report, replacing one with the same ID
func (s *BoltStore) SaveReport(report *types.RunReport) error {
	if report.ID == "" {
		return fmt.Errorf("report has no ID")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		ids := tx.Bucket(bucketRunIDs)

		if old := ids.Get([]byte(report.ID)); old != nil {
			if err := runs.Delete(old); err != nil {
				return err
			}
		}

		key := runKey(report)
		if err := runs.Put(key, data); err != nil {
			return err
		}
		return ids.Put([]byte(report.ID), key)
	})
}

// GetReport loads one report by ID
func (s *BoltStore) GetReport(id string) (*types.RunReport, error) {
	var report types.RunReport
	err := s.db.View(func(tx *bolt.Tx) error {
		key := tx.Bucket(bucketRunIDs).Get([]byte(id))
		if key == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		data := tx.Bucket(bucketRuns).Get(key)
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(data, &report)
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListReports returns the newest reports first
func (s *BoltStore) ListReports(limit int) ([]*types.RunReport, error) {
	var reports []*types.RunReport
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRuns).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(reports) >= limit {
				break
			}
			var report types.RunReport
			if err := json.Unmarshal(v, &report); err != nil {
				return fmt.Errorf("failed to decode report %s: %w", k, err)
			}
			reports = append(reports, &report)
		}
		return nil
	})
	return reports, err
}

// Prune deletes all but the newest keep reports and returns how many were
// removed
func (s *BoltStore) Prune(keep int) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		ids := tx.Bucket(bucketRunIDs)

		var stale [][]byte
		seen := 0
		c := runs.Cursor()
		for k, _ := c.Last(); k != nil; k, _ = c.Prev() {
			seen++
			if seen > keep {
				stale = append(stale, append([]byte(nil), k...))
			}
		}

		for _, k := range stale {
			var report types.RunReport
			if err := json.Unmarshal(runs.Get(k), &report); err == nil {
				if err := ids.Delete([]byte(report.ID)); err != nil {
					return err
				}
			}
			if err := runs.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// Backup writes a consistent copy of the database to path
func (s *BoltStore) Backup(path string) error {
	return s.db.View(func(tx *bolt.Tx) error {
		if err := tx.CopyFile(path, 0600); err != nil {
			return fmt.Errorf("failed to back up database: %w", err)
		}
		return nil
	})
}
