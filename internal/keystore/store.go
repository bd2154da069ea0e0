// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package keystore holds the content keys of one acquisition session in memory.
//
// Key IDs and keys are accepted in the encodings understood by keycodec and
// are validated on insertion: every stored key ID and key is exactly 16 bytes.
// A key ID may be added without a key, in which case it stays pending until a
// key is attached, either directly or from a Clearkey license response.
package keystore

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/controlplaneio-fluxcd/cenc-keys/internal/keycodec"
)

// Size is the length in bytes of key IDs and content keys.
const Size = 16

// KeyID is a 16-byte content key identifier.
type KeyID [Size]byte

// String returns the lowercase hex form of the key ID.
func (id KeyID) String() string {
	return keycodec.ToHex(id[:])
}

// UUID returns the hyphenated form of the key ID, as found in DASH manifests.
func (id KeyID) UUID() string {
	return uuid.UUID(id).String()
}

// Key is a 16-byte content key.
type Key [Size]byte

// String returns the lowercase hex form of the key.
func (k Key) String() string {
	return keycodec.ToHex(k[:])
}

// Record pairs a key ID with its key, if known.
type Record struct {
	ID  KeyID
	Key *Key
}

// Resolved reports whether the record has a key.
func (r Record) Resolved() bool {
	return r.Key != nil
}

// Store maps key IDs to optional keys.
// It is not safe for concurrent use.
type Store struct {
	keys map[KeyID]*Key
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		keys: make(map[KeyID]*Key),
	}
}

// ParseKeyID decodes a key ID from hex, hyphenated hex or base64 text.
func ParseKeyID(text string) (KeyID, error) {
	var id KeyID
	b, err := keycodec.DecodeFlexible(strings.TrimSpace(text))
	if err != nil {
		return id, InvalidIdentifierError(text, err)
	}
	if len(b) != Size {
		return id, InvalidIdentifierError(text, fmt.Errorf("%w, got %d", ErrIdentifierLength, len(b)))
	}
	copy(id[:], b)
	return id, nil
}

// ParseKey decodes a key from hex or base64 text.
func ParseKey(text string) (Key, error) {
	var key Key
	b, err := keycodec.DecodeFlexible(strings.TrimSpace(text))
	if err != nil {
		return key, InvalidKeyError(err)
	}
	if len(b) != Size {
		return key, InvalidKeyError(fmt.Errorf("%w, got %d", ErrKeyLength, len(b)))
	}
	copy(key[:], b)
	return key, nil
}

// Add inserts a key ID without a key. If the key ID is already
// present its key is reset, the last write wins.
func (s *Store) Add(identifier string) (KeyID, error) {
	id, err := ParseKeyID(identifier)
	if err != nil {
		return id, err
	}
	s.keys[id] = nil
	return id, nil
}

// AddWithKey inserts a key ID together with its key, replacing
// any key previously stored for it.
func (s *Store) AddWithKey(identifier, key string) (KeyID, error) {
	id, err := ParseKeyID(identifier)
	if err != nil {
		return id, err
	}
	k, err := ParseKey(key)
	if err != nil {
		return id, fmt.Errorf("key ID %s: %w", id, err)
	}
	s.keys[id] = &k
	return id, nil
}

// SetKey attaches a key to a key ID given as raw bytes,
// adding the key ID when it is not present yet.
func (s *Store) SetKey(identifier, key []byte) (KeyID, error) {
	var id KeyID
	if len(identifier) != Size {
		return id, fmt.Errorf("%w, got %d", ErrIdentifierLength, len(identifier))
	}
	copy(id[:], identifier)

	if len(key) != Size {
		return id, fmt.Errorf("key ID %s: %w, got %d", id, ErrKeyLength, len(key))
	}
	var k Key
	copy(k[:], key)
	s.keys[id] = &k
	return id, nil
}

// Pending returns the key IDs that have no key, sorted by value.
func (s *Store) Pending() []KeyID {
	var ids []KeyID
	for id, key := range s.keys {
		if key == nil {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, compareKeyIDs)
	return ids
}

// Key returns the key stored for id.
func (s *Store) Key(id KeyID) (Key, bool) {
	key, ok := s.keys[id]
	if !ok || key == nil {
		return Key{}, false
	}
	return *key, true
}

// LookupKey returns the key stored for id or ErrKeyNotFound.
func (s *Store) LookupKey(id KeyID) (Key, error) {
	key, ok := s.Key(id)
	if !ok {
		return Key{}, fmt.Errorf("%w: %s", ErrKeyNotFound, id)
	}
	return key, nil
}

// Records returns a snapshot of all records sorted by key ID.
func (s *Store) Records() []Record {
	records := make([]Record, 0, len(s.keys))
	for id, key := range s.keys {
		r := Record{ID: id}
		if key != nil {
			k := *key
			r.Key = &k
		}
		records = append(records, r)
	}
	slices.SortFunc(records, func(a, b Record) int {
		return compareKeyIDs(a.ID, b.ID)
	})
	return records
}

// Len returns the number of key IDs in the store.
func (s *Store) Len() int {
	return len(s.keys)
}

func compareKeyIDs(a, b KeyID) int {
	return bytes.Compare(a[:], b[:])
}
