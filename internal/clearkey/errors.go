// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package clearkey

import (
	"errors"
	"fmt"
)

// ErrTransport is returned when the license server cannot be reached,
// including TLS failures and timeouts.
var ErrTransport = errors.New("license request failed")

// ErrProtocol is returned when the license response is not a valid Clearkey key set.
var ErrProtocol = errors.New("invalid license response")

// ErrHTTPSRequired is returned when the license URL is not HTTPS and not localhost.
var ErrHTTPSRequired = errors.New("HTTPS scheme is required")

// LicenseServerError is returned when the license server answers
// with a status other than 200 OK.
type LicenseServerError struct {
	StatusCode int
}

func (e *LicenseServerError) Error() string {
	return fmt.Sprintf("license server responded with status: %d", e.StatusCode)
}

// TransportError wraps an error with ErrTransport.
func TransportError(err error) error {
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// ProtocolError wraps an error with ErrProtocol.
func ProtocolError(err error) error {
	return fmt.Errorf("%w: %w", ErrProtocol, err)
}
