package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/skylark-im/skylark/realtime/domain/cursor"
)

// BadgerCursorStore implements cursor.Store on an embedded BadgerDB.
// Badger is process-local by construction, which matches the design
// decision that read cursors are never replicated across devices.
type BadgerCursorStore struct {
	db *badger.DB
}

func NewBadgerCursorStore(db *badger.DB) *BadgerCursorStore {
	return &BadgerCursorStore{db: db}
}

func (s *BadgerCursorStore) Get(ctx context.Context, channelID string) (int64, error) {
	var ts int64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cursor.KeyPrefix + channelID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			parsed, err := strconv.ParseInt(string(val), 10, 64)
			if err != nil {
				return err
			}
			ts = parsed
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return ts, nil
}

func (s *BadgerCursorStore) Set(ctx context.Context, channelID string, ts int64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(cursor.KeyPrefix + channelID)
		return txn.Set(key, []byte(strconv.FormatInt(ts, 10)))
	})
}
