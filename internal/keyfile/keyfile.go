// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package keyfile writes content keys to a directory of raw key files that
// CENC decryptors look up by key ID.
//
// Every key is written twice, once per naming scheme:
//
//   - Marlin: the hex SHA-1 digest of "urn:marlin:kid:<hex-kid>" followed by ".key"
//   - Clearkey: the hex key ID followed by ".key"
//
// The files hold the 16 key bytes and nothing else.
package keyfile

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/controlplaneio-fluxcd/cenc-keys/internal/keycodec"
	"github.com/controlplaneio-fluxcd/cenc-keys/internal/keystore"
)

// ErrPersistence is returned when a key file cannot be written.
var ErrPersistence = errors.New("failed to persist key")

// Scheme selects the file naming convention.
type Scheme string

const (
	// SchemeMarlin names files after the SHA-1 digest of the Marlin key URN.
	SchemeMarlin Scheme = "marlin"

	// SchemeClearkey names files after the hex key ID.
	SchemeClearkey Scheme = "clearkey"
)

// Schemes lists the naming schemes in the order keys are written.
var Schemes = []Scheme{SchemeMarlin, SchemeClearkey}

// ParseScheme returns the Scheme named s.
func ParseScheme(s string) (Scheme, error) {
	for _, scheme := range Schemes {
		if string(scheme) == s {
			return scheme, nil
		}
	}
	return "", fmt.Errorf("unknown naming scheme %q, must be one of %v", s, Schemes)
}

// FileExt is the extension of key files.
const FileExt = ".key"

// marlinURNPrefix is hashed together with the hex key ID to name Marlin key files.
const marlinURNPrefix = "urn:marlin:kid:"

// FileName returns the key file name of id under the given scheme.
func FileName(id keystore.KeyID, scheme Scheme) string {
	switch scheme {
	case SchemeMarlin:
		// SHA-1 is what Marlin decryptors expect, do not replace.
		sum := sha1.Sum([]byte(marlinURNPrefix + id.String()))
		return keycodec.ToHex(sum[:]) + FileExt
	default:
		return id.String() + FileExt
	}
}

// StoreKey writes the raw key bytes to path, replacing any existing file.
func StoreKey(path string, key []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Write(key); err != nil {
		return err
	}
	return file.Close()
}

// Load reads the key of id from dir under the given scheme.
// It returns keystore.ErrKeyNotFound when the file does not exist.
func Load(dir string, id keystore.KeyID, scheme Scheme) (keystore.Key, error) {
	var key keystore.Key
	path := filepath.Join(dir, FileName(id, scheme))

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return key, fmt.Errorf("%w: %s", keystore.ErrKeyNotFound, id)
	}
	if err != nil {
		return key, err
	}
	defer file.Close()

	// Read one extra byte to detect oversized files.
	buf := make([]byte, keystore.Size+1)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return key, fmt.Errorf("failed to read key file %s: %w", path, err)
	}
	if n != keystore.Size {
		return key, fmt.Errorf("key file %s: %w", path, keystore.ErrKeyLength)
	}
	copy(key[:], buf[:keystore.Size])
	return key, nil
}

// Dir serves keys stored in a directory under one naming scheme.
type Dir struct {
	Path   string
	Scheme Scheme
}

// LookupKey reads the key of id from the directory.
func (d Dir) LookupKey(id keystore.KeyID) (keystore.Key, error) {
	scheme := d.Scheme
	if scheme == "" {
		scheme = SchemeClearkey
	}
	return Load(d.Path, id, scheme)
}

// Entry describes the files written for one key.
type Entry struct {
	ID keystore.KeyID

	// Paths maps each scheme to the written file path.
	// Schemes that failed to write are absent.
	Paths map[Scheme]string
}

// Writer writes the resolved keys of a store to a directory.
type Writer struct {
	dir string
	log logr.Logger
}

// NewWriter returns a Writer for dir. An empty dir selects the
// platform temporary directory.
func NewWriter(dir string, log logr.Logger) *Writer {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Writer{dir: dir, log: log}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Save writes every key of the store under both naming schemes.
// Pending key IDs are skipped. A failure on one file does not stop the
// others; all failures are returned joined, one error per key ID.
func (w *Writer) Save(store *keystore.Store) ([]Entry, error) {
	var entries []Entry
	var errs []error

	for _, record := range store.Records() {
		if !record.Resolved() {
			w.log.V(1).Info("skipping key ID without key", "kid", record.ID.String())
			continue
		}

		entry, err := w.write(record.ID, *record.Key)
		entries = append(entries, entry)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return entries, errors.Join(errs...)
}

func (w *Writer) write(id keystore.KeyID, key keystore.Key) (Entry, error) {
	entry := Entry{ID: id, Paths: make(map[Scheme]string, len(Schemes))}
	var errs []error

	for _, scheme := range Schemes {
		path := filepath.Join(w.dir, FileName(id, scheme))
		if err := StoreKey(path, key[:]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", scheme, err))
			continue
		}
		entry.Paths[scheme] = path
		w.log.V(1).Info("key stored", "kid", id.String(), "scheme", scheme, "path", path)
	}

	if len(errs) > 0 {
		return entry, fmt.Errorf("%w %s: %w", ErrPersistence, id, errors.Join(errs...))
	}
	return entry, nil
}
