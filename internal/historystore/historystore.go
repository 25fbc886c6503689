// Package historystore persists Batch Executor execution-history entries
// in a Badger KV store, grounded on the reference's pkg/secretstore
// wrapper (badger.Open/View/Update usage pattern, same defaults, same
// "not opened" guard style).
package historystore

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/Belloabraham121/privbatch/internal/domain"
)

// Entry is one execution-history record, spec §4.4 step 5/6.
type Entry struct {
	PoolID      [32]byte
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	BatchSize   int
	Success     bool
	ErrorKind   domain.ErrorKind
	TimestampMs int64
}

// Stats aggregates over the stored history, spec §4.4 get_stats.
type Stats struct {
	TotalBatches      int
	SuccessfulBatches int
	FailedBatches     int
	TotalSwaps        int
	AverageGasUsed    float64
}

const keyPrefix = "history/"

// Store is a Badger-backed append log. It is safe for concurrent use.
type Store struct {
	db      *badger.DB
	counter atomic.Uint64
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("historystore: path is required")
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	// Resume the key sequence after the last stored entry so that appends
	// after a reopen do not overwrite earlier history.
	_ = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Reverse: true})
		defer it.Close()
		it.Seek(append([]byte(keyPrefix), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff))
		if it.ValidForPrefix([]byte(keyPrefix)) {
			s.counter.Store(binary.BigEndian.Uint64(it.Item().Key()[len(keyPrefix):]))
		}
		return nil
	})
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append writes entry under a monotonically increasing key so iteration
// order matches insertion order.
func (s *Store) Append(entry Entry) error {
	if s == nil || s.db == nil {
		return errors.New("historystore: not opened")
	}
	seq := s.counter.Add(1)
	key := make([]byte, len(keyPrefix)+8)
	copy(key, keyPrefix)
	binary.BigEndian.PutUint64(key[len(keyPrefix):], seq)

	val, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

// AllForPool returns every entry recorded for poolID, in insertion order.
func (s *Store) AllForPool(poolID [32]byte) ([]Entry, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range all {
		if e.PoolID == poolID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns every stored entry in insertion order.
func (s *Store) All() ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("historystore: not opened")
	}
	var out []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var e Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return err
				}
				out = append(out, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// GetStats aggregates over the full history, spec §4.4's get_stats.
func (s *Store) GetStats() (Stats, error) {
	entries, err := s.All()
	if err != nil {
		return Stats{}, err
	}
	var stats Stats
	var gasSum uint64
	for _, e := range entries {
		stats.TotalBatches++
		if e.Success {
			stats.SuccessfulBatches++
			stats.TotalSwaps += e.BatchSize
			gasSum += e.GasUsed
		} else {
			stats.FailedBatches++
		}
	}
	if stats.SuccessfulBatches > 0 {
		stats.AverageGasUsed = float64(gasSum) / float64(stats.SuccessfulBatches)
	}
	return stats, nil
}
