// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package keycodec converts key identifiers and key values between raw bytes
// and the text encodings accepted on the command line and in Clearkey
// license payloads: hex (optionally hyphenated), standard base64 and
// unpadded base64url.
package keycodec

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrFormat is returned when text cannot be decoded under any accepted encoding.
var ErrFormat = errors.New("invalid key encoding")

// hexPattern matches hex text with optional hyphen separators, such as the
// UUID form of a key ID. It takes priority over base64 on ambiguous input.
var hexPattern = regexp.MustCompile(`^[0-9a-fA-F-]+$`)

// FormatError wraps err with ErrFormat.
func FormatError(err error) error {
	return fmt.Errorf("%w: %w", ErrFormat, err)
}

// DecodeFlexible decodes text given either as hex, with or without hyphens,
// or as base64. Base64 input may use the standard or the URL-safe alphabet,
// padded or not.
func DecodeFlexible(text string) ([]byte, error) {
	if text == "" {
		return nil, FormatError(errors.New("empty input"))
	}
	if hexPattern.MatchString(text) {
		return FromHex(strings.ReplaceAll(text, "-", ""))
	}
	return Base64URLDecode(text)
}

// Base64URLEncode encodes b as base64url without padding.
func Base64URLEncode(b []byte) string {
	s := base64.StdEncoding.EncodeToString(b)
	s = strings.ReplaceAll(s, "+", "-")
	s = strings.ReplaceAll(s, "/", "_")
	return strings.ReplaceAll(s, "=", "")
}

// Base64URLDecode decodes base64url text, restoring the padding stripped
// by Base64URLEncode. Standard base64 input decodes as well.
func Base64URLDecode(text string) ([]byte, error) {
	s := strings.ReplaceAll(text, "-", "+")
	s = strings.ReplaceAll(s, "_", "/")

	switch len(s) % 4 {
	case 2:
		s += "=="
	case 3:
		s += "="
	case 1:
		return nil, FormatError(fmt.Errorf("impossible base64 length %d", len(text)))
	}

	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, FormatError(err)
	}
	return b, nil
}

// ToHex returns the lowercase hex form of b.
func ToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// FromHex decodes hex text, case-insensitive.
func FromHex(text string) ([]byte, error) {
	b, err := hex.DecodeString(text)
	if err != nil {
		return nil, FormatError(err)
	}
	return b, nil
}
