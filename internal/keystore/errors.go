// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package keystore

import (
	"errors"
	"fmt"
)

// ErrValidation is returned when a decoded identifier or key has the wrong length.
var ErrValidation = errors.New("validation failed")

// ErrIdentifierLength is returned when a key ID does not decode to 16 bytes.
var ErrIdentifierLength = fmt.Errorf("%w: identifier must be %d bytes", ErrValidation, Size)

// ErrKeyLength is returned when a key does not decode to 16 bytes.
var ErrKeyLength = fmt.Errorf("%w: key must be %d bytes", ErrValidation, Size)

// ErrKeyNotFound is returned when no key is known for a key ID.
var ErrKeyNotFound = errors.New("key not found")

// InvalidIdentifierError wraps an error with the "invalid key ID" prefix.
func InvalidIdentifierError(text string, err error) error {
	return fmt.Errorf("invalid key ID %q: %w", text, err)
}

// InvalidKeyError wraps an error with the "invalid key" prefix.
// The key text itself is never included in the message.
func InvalidKeyError(err error) error {
	return fmt.Errorf("invalid key: %w", err)
}
