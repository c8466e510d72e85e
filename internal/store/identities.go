package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/temitope-ola/ProdTalent-sub003/internal/model"
	"github.com/temitope-ola/ProdTalent-sub003/pkg/metrics"
)

// Partition identifies one of the three disjoint identity collections.
type Partition string

const (
	PartitionTalent    Partition = "talent"
	PartitionRecruiter Partition = "recruiter"
	PartitionCoach     Partition = "coach"
)

// Partitions lists the identity collections in resolver probe order.
var Partitions = []Partition{PartitionTalent, PartitionRecruiter, PartitionCoach}

// ParsePartition validates a partition name from an external surface.
func ParsePartition(s string) (Partition, error) {
	switch Partition(s) {
	case PartitionTalent, PartitionRecruiter, PartitionCoach:
		return Partition(s), nil
	}
	return "", fmt.Errorf("unknown identity partition %q", s)
}

// Role returns the platform role implied by the partition.
func (p Partition) Role() model.Role {
	return model.Role(p)
}

func contactKey(p Partition, id string) []byte {
	return []byte(fmt.Sprintf("contact:%s:%s", p, id))
}

// Contact returns the profile stored in the given partition, or ErrNotFound.
func (s *Store) Contact(ctx context.Context, p Partition, id string) (model.Contact, error) {
	defer metrics.ObserveStoreOp("get_contact", time.Now())

	var contact model.Contact
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(contactKey(p, id))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &contact)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.Contact{}, fmt.Errorf("contact %s in %s: %w", id, p, ErrNotFound)
	}
	if err != nil {
		return model.Contact{}, fmt.Errorf("%w: get contact: %w", ErrUnavailable, err)
	}
	return contact, nil
}

// PutContact upserts a profile into one identity partition. The contact's
// role is forced to match the partition it is written into.
func (s *Store) PutContact(ctx context.Context, p Partition, contact model.Contact) error {
	defer metrics.ObserveStoreOp("put_contact", time.Now())

	contact.Role = p.Role()
	data, err := json.Marshal(contact)
	if err != nil {
		return fmt.Errorf("marshal contact: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(contactKey(p, contact.ID), data)
	})
	if err != nil {
		return fmt.Errorf("%w: put contact: %w", ErrUnavailable, err)
	}
	return nil
}
