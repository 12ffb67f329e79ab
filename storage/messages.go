// Package storage persists chat history and room metadata in BadgerDB.
// It is a collaborator of the dispatch engine: the engine calls it
// best-effort and the in-memory registries never depend on its success.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"presence-lab/domain"
)

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

// messageKey formats "chat:{room}:{timestamp_padded}:{id}" so that:
//  1. A prefix scan per room walks messages in chronological order
//     (19-digit zero padding keeps the lexicographical order).
//  2. The message id disambiguates two messages arriving at the same
//     nanosecond.
func messageKey(msg domain.ChatMessage) []byte {
	return []byte(fmt.Sprintf("chat:%s:%019d:%s", msg.RoomID, msg.Timestamp.UnixNano(), msg.ID))
}

func historyPrefix(room domain.RoomID) []byte {
	return []byte(fmt.Sprintf("chat:%s:", room))
}

// Store appends one chat message. Messages are never mutated or deleted
// afterwards.
func (m *MessageRepository) Store(msg domain.ChatMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(msg), value)
	})
}

// History returns up to limit most recent messages of the room, oldest
// first. It scans the room prefix in reverse and flips the result.
func (m *MessageRepository) History(room domain.RoomID, limit int) ([]domain.ChatMessage, error) {
	var newest []domain.ChatMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := historyPrefix(room)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible timestamp, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(newest) == limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				var msg domain.ChatMessage
				if err := json.Unmarshal(value, &msg); err != nil {
					return err
				}
				// Room ids may themselves contain the key separator, so
				// a prefix match alone can cross into another room
				// ("r1:x" under the "r1" prefix). The stored room id is
				// authoritative.
				if msg.RoomID != room {
					return nil
				}
				newest = append(newest, msg)
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

	messages := make([]domain.ChatMessage, 0, len(newest))
	for i := len(newest) - 1; i >= 0; i-- {
		messages = append(messages, newest[i])
	}
	return messages, nil
}
