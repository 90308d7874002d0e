package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/soundry/soundry/internal/shared"
)

// TitleRecord is one pre-generated title in the consumable pool.
//
// Records are appended by pool replenishment and flipped to used exactly once
// when handed out; a used record never re-enters the available pool.
type TitleRecord struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	NativeText  string    `json:"native_text"`
	ForeignText string    `json:"foreign_text,omitempty"`
	Keywords    string    `json:"keywords,omitempty"`
	Used        bool      `json:"used"`
	CreatedAt   time.Time `json:"created_at"`
}

func titleKey(category, id string) []byte {
	return []byte(shared.Slugify(category) + "/" + id)
}

func titlePrefix(category string) []byte {
	return []byte(shared.Slugify(category) + "/")
}

// AppendTitles adds records to the pool under category. Records without an ID
// are assigned one.
func (s *Store) AppendTitles(category string, records []TitleRecord) error {
	now := s.now()
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(titlesBucket))
		if b == nil {
			return fmt.Errorf("%w: title pool bucket missing", shared.ErrInvalidInput)
		}
		for _, rec := range records {
			if rec.ID == "" {
				rec.ID = shared.GenerateID()
			}
			rec.Category = category
			if rec.CreatedAt.IsZero() {
				rec.CreatedAt = now
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to marshal title record: %w", err)
			}
			if err := b.Put(titleKey(category, rec.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// TitleAvailability reports how many unused and total titles the category holds.
func (s *Store) TitleAvailability(category string) (available, total int, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(titlesBucket))
		if b == nil {
			return nil
		}
		prefix := titlePrefix(category)
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			var rec TitleRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			total++
			if !rec.Used {
				available++
			}
		}
		return nil
	})
	return available, total, err
}

// TakeTitles returns up to count unused records from the category and marks
// them used in the same transaction, so no record is ever handed out twice.
// Fewer than count records are returned when the pool runs short.
func (s *Store) TakeTitles(category string, count int) ([]TitleRecord, error) {
	if count <= 0 {
		return nil, nil
	}

	var taken []TitleRecord
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(titlesBucket))
		if b == nil {
			return nil
		}

		// Select first, then mark: writing through a live cursor invalidates it.
		type candidate struct {
			key []byte
			rec TitleRecord
		}
		var picked []candidate

		prefix := titlePrefix(category)
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			if len(picked) == count {
				break
			}
			var rec TitleRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			if rec.Used {
				continue
			}
			picked = append(picked, candidate{key: append([]byte(nil), k...), rec: rec})
		}

		for _, cand := range picked {
			cand.rec.Used = true
			data, err := json.Marshal(cand.rec)
			if err != nil {
				return fmt.Errorf("failed to marshal title record: %w", err)
			}
			if err := b.Put(cand.key, data); err != nil {
				return err
			}
			taken = append(taken, cand.rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return taken, nil
}
