package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temitope-ola/ProdTalent-sub003/internal/model"
	"github.com/temitope-ola/ProdTalent-sub003/pkg/metrics"
)

// Message records are stored once under msg:<uuid> and indexed twice:
//
//	rcpt:<recipientID>:<%019d unixnano>:<uuid>
//	sent:<senderID>:<%019d unixnano>:<uuid>
//
// The 19-digit zero padding keeps a prefix scan in chronological order, and
// the uuid suffix separates messages landing on the same nanosecond.
const (
	msgPrefix  = "msg:"
	rcptPrefix = "rcpt:"
	sentPrefix = "sent:"
)

func messageKey(id string) []byte {
	return []byte(msgPrefix + id)
}

func recipientKey(m model.Message) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d:%s", rcptPrefix, m.RecipientID, m.SentAt.UnixNano(), m.ID))
}

func senderKey(m model.Message) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d:%s", sentPrefix, m.SenderID, m.SentAt.UnixNano(), m.ID))
}

// Append persists a new message with Read=false and SentAt=now, writing the
// primary record and both index entries in one transaction. The stored
// record, including its assigned id, is returned.
//
// Sender and recipient ids must not contain the index key separator; a
// recipient id like "bob:x" would otherwise land inside bob's index prefix.
func (s *Store) Append(ctx context.Context, msg model.Message) (model.Message, error) {
	defer metrics.ObserveStoreOp("append", time.Now())

	if strings.ContainsRune(msg.SenderID, ':') {
		return model.Message{}, fmt.Errorf("%w: sender id %q", ErrInvalidID, msg.SenderID)
	}
	if strings.ContainsRune(msg.RecipientID, ':') {
		return model.Message{}, fmt.Errorf("%w: recipient id %q", ErrInvalidID, msg.RecipientID)
	}

	if msg.ID == "" {
		msg.ID = uuid.Must(uuid.NewV7()).String()
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	msg.Read = false

	data, err := json.Marshal(msg)
	if err != nil {
		return model.Message{}, fmt.Errorf("marshal message: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(msg.ID), data); err != nil {
			return err
		}
		if err := txn.Set(recipientKey(msg), nil); err != nil {
			return err
		}
		return txn.Set(senderKey(msg), nil)
	})
	if err != nil {
		return model.Message{}, fmt.Errorf("%w: append: %w", ErrUnavailable, err)
	}
	return msg, nil
}

// ListForRecipient returns every message addressed to userID, in index order
// (timestamp, then id).
func (s *Store) ListForRecipient(ctx context.Context, userID string) ([]model.Message, error) {
	defer metrics.ObserveStoreOp("list_for_recipient", time.Now())
	return s.listByIndex(rcptPrefix + userID + ":")
}

// ListForSender returns every message sent by userID, in index order. Sent
// messages are queried directly here rather than reconstructed from received
// snapshots, so a sent-only conversation is never lost when the counterparty
// has not replied.
func (s *Store) ListForSender(ctx context.Context, userID string) ([]model.Message, error) {
	defer metrics.ObserveStoreOp("list_for_sender", time.Now())
	return s.listByIndex(sentPrefix + userID + ":")
}

func (s *Store) listByIndex(prefix string) ([]model.Message, error) {
	var messages []model.Message
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			key := string(it.Item().Key())
			id := key[strings.LastIndex(key, ":")+1:]

			item, err := txn.Get(messageKey(id))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					// dangling index entry
					s.logger.Warn("index entry without record", zap.String("key", key))
					continue
				}
				return err
			}
			err = item.Value(func(v []byte) error {
				var m model.Message
				if err := json.Unmarshal(v, &m); err != nil {
					return fmt.Errorf("unmarshal %s: %w", id, err)
				}
				messages = append(messages, m)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrUnavailable, err)
	}
	return messages, nil
}

// MarkRead sets Read=true on a message. Marking an already-read message is a
// no-op success; the flag never reverts to false.
func (s *Store) MarkRead(ctx context.Context, messageID string) error {
	defer metrics.ObserveStoreOp("mark_read", time.Now())

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(messageKey(messageID))
		if err != nil {
			return err
		}

		var msg model.Message
		err = item.Value(func(v []byte) error {
			return json.Unmarshal(v, &msg)
		})
		if err != nil {
			return err
		}
		if msg.Read {
			return nil
		}

		msg.Read = true
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		return txn.Set(messageKey(messageID), data)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("message %s: %w", messageID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%w: mark read: %w", ErrUnavailable, err)
	}
	return nil
}
