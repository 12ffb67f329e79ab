package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"presence-lab/domain"
)

type RoomRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRoomRepository(db *badger.DB, log *slog.Logger) *RoomRepository {
	return &RoomRepository{db: db, log: log}
}

func roomKey(id domain.RoomID) []byte {
	return []byte(fmt.Sprintf("room:%s", id))
}

// Upsert replaces the room metadata wholesale, like the join path builds
// it: a fresh snapshot of id, display name, timestamps and member count.
func (r *RoomRepository) Upsert(info domain.RoomInfo) error {
	value, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roomKey(info.ID), value)
	})
}

// Active lists rooms whose last activity falls within the window.
func (r *RoomRepository) Active(window time.Duration) ([]domain.RoomInfo, error) {
	cutoff := time.Now().UTC().Add(-window)
	var rooms []domain.RoomInfo

	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("room:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var info domain.RoomInfo
				if err := json.Unmarshal(value, &info); err != nil {
					return err
				}
				if !info.LastActivity.Before(cutoff) {
					rooms = append(rooms, info)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// Ping runs an empty read transaction, used by the health endpoint.
func (r *RoomRepository) Ping() error {
	return r.db.View(func(*badger.Txn) error { return nil })
}
