package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	bolt "go.etcd.io/bbolt"

	"github.com/soundry/soundry/internal/shared"
)

// Service identifies one of the independent cache namespaces.
type Service string

const (
	ServiceAudio Service = "audio"
	ServiceText  Service = "text"
	ServiceImage Service = "image"
)

// Services lists every cache namespace, in clear order.
var Services = []Service{ServiceAudio, ServiceText, ServiceImage}

const (
	titlesBucket = "titles"
	usageBucket  = "usage"
)

// Envelope wraps a cached payload with bookkeeping timestamps.
type Envelope struct {
	Key         string          `json:"key"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

// Store is the bbolt-backed cache shared by the generation pipeline.
//
// All mutations run inside bolt update transactions; callers are expected to
// follow the single-writer discipline of the pipeline (one logical generation
// flow at a time).
type Store struct {
	db     *bolt.DB
	logger *log.Logger
	now    func() time.Time
}

// NewStore opens (or creates) the cache database at path and ensures all
// buckets exist.
func NewStore(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, svc := range Services {
			if _, err := tx.CreateBucketIfNotExists([]byte(svc)); err != nil {
				return err
			}
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(titlesBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(usageBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache buckets: %w", err)
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetClock overrides the store's clock. Used by tests and the usage ledger's
// pruning logic, which evaluates age relative to each write.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Key derives the canonical dedup key for a set of semantic identity fields.
//
// Fields are joined in argument order, lowercased, with whitespace runs
// collapsed to single underscores, so casing and incidental spacing never
// split a cache slot.
func Key(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if slug := shared.Slugify(f); slug != "" {
			parts = append(parts, slug)
		}
	}
	return strings.Join(parts, "_")
}

// Put stores payload under key in the service's bucket. An existing entry's
// creation timestamp is preserved; everything else is replaced.
func (s *Store) Put(service Service, key string, payload any) error {
	return s.put(service, key, payload, false)
}

// PutCompleted stores payload under key and stamps the entry completed.
func (s *Store) PutCompleted(service Service, key string, payload any) error {
	return s.put(service, key, payload, true)
}

func (s *Store) put(service Service, key string, payload any, completed bool) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload: %w", err)
	}

	now := s.now()
	env := Envelope{Key: key, CreatedAt: now, Payload: raw}
	if completed {
		env.CompletedAt = &now
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(service))
		if b == nil {
			return fmt.Errorf("%w: no bucket for service %q", shared.ErrInvalidInput, service)
		}

		if existing := b.Get([]byte(key)); existing != nil {
			var prev Envelope
			if err := json.Unmarshal(existing, &prev); err == nil {
				env.CreatedAt = prev.CreatedAt
			}
		}

		data, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("failed to marshal cache envelope: %w", err)
		}
		return b.Put([]byte(key), data)
	})
}

// Get loads the envelope stored under key. The boolean reports whether the
// entry exists.
func (s *Store) Get(service Service, key string) (*Envelope, bool, error) {
	var env *Envelope
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(service))
		if b == nil {
			return nil
		}
		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}
		var e Envelope
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("failed to unmarshal cache entry %q: %w", key, err)
		}
		env = &e
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return env, env != nil, nil
}

// GetJSON loads the payload stored under key into out.
func (s *Store) GetJSON(service Service, key string, out any) (bool, error) {
	env, ok, err := s.Get(service, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(env.Payload, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache payload %q: %w", key, err)
	}
	return true, nil
}

// List returns every envelope in the service's bucket, in key order.
func (s *Store) List(service Service) ([]Envelope, error) {
	var entries []Envelope
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(service))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var e Envelope
			if err := json.Unmarshal(v, &e); err != nil {
				s.logger.Warn("skipping unreadable cache entry", "service", service, "key", string(k))
				return nil
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Clear drops every entry in the service's bucket. Clearing an already empty
// bucket succeeds.
func (s *Store) Clear(service Service) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(service)); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(service))
		return err
	})
}

// ClearAll drops every service cache. The title pool and usage ledger are
// untouched; they are operator data, not call memoization.
func (s *Store) ClearAll() error {
	for _, svc := range Services {
		if err := s.Clear(svc); err != nil {
			return fmt.Errorf("failed to clear %s cache: %w", svc, err)
		}
	}
	return nil
}

// Count reports the number of entries in the service's bucket.
func (s *Store) Count(service Service) (int, error) {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(service))
		if b == nil {
			return nil
		}
		count = b.Stats().KeyN
		return nil
	})
	return count, err
}
