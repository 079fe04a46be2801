// Package bbolt provides a BBolt-backed credential store.
package bbolt

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/jmcleod/deskhand/credstore"
)

var (
	bucketName = []byte("credential")
	currentKey = []byte("current")
)

// Store implements credstore.Store backed by a BBolt database, so an
// authenticated session survives process restarts until an explicit
// logout or a server-side rejection clears it.
type Store struct {
	db *bbolt.DB
}

var _ credstore.Store = (*Store)(nil)

// NewStore returns a Store backed by the given BBolt database.
func NewStore(db *bbolt.DB) (*Store, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating credential bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreFromFile opens a BBolt database at the given path and returns a
// new Store.
func NewStoreFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewStore(db)
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Set persists the credential, overwriting any previous value.
func (s *Store) Set(cred credstore.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(currentKey, data)
	})
}

// Get returns the persisted credential, or ok=false when none is stored
// or the stored record cannot be decoded.
func (s *Store) Get() (credstore.Credential, bool) {
	var cred credstore.Credential
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketName).Get(currentKey)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &cred); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil || !found || cred.IsZero() {
		return credstore.Credential{}, false
	}
	return cred, true
}

// Clear removes the persisted credential.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete(currentKey)
	})
}
