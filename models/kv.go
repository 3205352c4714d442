package models

import (
	"sync"

	"github.com/rohanthewiz/serr"
	bolt "go.etcd.io/bbolt"
)

// KV is the persistent key-value surface the core stores small state on:
// sync settings, last-write markers, the device id. Implementations must be
// safe for concurrent use.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	// Set stores value under key, overwriting any previous value.
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

// stateBucket is the single bbolt bucket all keys live in.
var stateBucket = []byte("state")

// BoltKV is the bbolt-backed KV implementation used by the application.
type BoltKV struct {
	db *bolt.DB
}

// OpenBoltKV opens (creating if necessary) the key-value database at path.
func OpenBoltKV(path string) (*BoltKV, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, serr.Wrap(ErrStorageUnavailable, "failed to open key-value store: "+err.Error())
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(stateBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, serr.Wrap(ErrStorageUnavailable, "failed to create state bucket: "+err.Error())
	}

	return &BoltKV{db: db}, nil
}

// Close releases the underlying database.
func (k *BoltKV) Close() {
	if k.db != nil {
		k.db.Close()
	}
}

func (k *BoltKV) Get(key string) (string, bool, error) {
	var value string
	var found bool

	err := k.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(stateBucket).Get([]byte(key))
		if data != nil {
			value = string(data)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", false, serr.Wrap(err, "failed to read key "+key)
	}
	return value, found, nil
}

func (k *BoltKV) Set(key, value string) error {
	err := k.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Put([]byte(key), []byte(value))
	})
	return serr.Wrap(err, "failed to write key "+key)
}

func (k *BoltKV) Remove(key string) error {
	err := k.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Delete([]byte(key))
	})
	return serr.Wrap(err, "failed to remove key "+key)
}

// MemKV is an in-memory KV for tests and ephemeral runs.
type MemKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemKV returns an empty in-memory KV.
func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string]string)}
}

func (m *MemKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemKV) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
