// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package clearkey

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-logr/logr"

	"github.com/controlplaneio-fluxcd/cenc-keys/internal/keycodec"
	"github.com/controlplaneio-fluxcd/cenc-keys/internal/keystore"
)

// maxRequestBytes caps the size of a license request body.
const maxRequestBytes = 64 << 10

// KeyProvider looks up content keys by key ID.
// It returns keystore.ErrKeyNotFound for unknown key IDs.
type KeyProvider interface {
	LookupKey(id keystore.KeyID) (keystore.Key, error)
}

// licenseResponse is the body of a Clearkey license response.
type licenseResponse struct {
	Keys []jose.JSONWebKey `json:"keys"`
	Type string            `json:"type,omitempty"`
}

// Server is an http.Handler answering Clearkey license requests.
type Server struct {
	provider KeyProvider
	log      logr.Logger
}

// NewServer returns a license server backed by provider.
func NewServer(provider KeyProvider, log logr.Logger) *Server {
	return &Server{
		provider: provider,
		log:      log,
	}
}

// ServeHTTP answers a license request with the keys known to the provider.
// Unknown key IDs are left out of the response.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.error(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	ids, licenseType, err := parseRequest(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		s.error(w, http.StatusBadRequest, err)
		return
	}

	resp := licenseResponse{
		Keys: make([]jose.JSONWebKey, 0, len(ids)),
		Type: licenseType,
	}
	for _, id := range ids {
		key, err := s.provider.LookupKey(id)
		if errors.Is(err, keystore.ErrKeyNotFound) {
			s.log.V(1).Info("unknown key ID requested", "kid", id.String())
			continue
		}
		if err != nil {
			s.error(w, http.StatusInternalServerError, err)
			return
		}
		resp.Keys = append(resp.Keys, jose.JSONWebKey{
			Key:   key[:],
			KeyID: keycodec.Base64URLEncode(id[:]),
		})
	}

	data, err := json.Marshal(resp)
	if err != nil {
		s.error(w, http.StatusInternalServerError, err)
		return
	}

	recordRequest(http.StatusOK)
	recordKeys(len(resp.Keys), len(ids)-len(resp.Keys))
	s.log.Info("license issued", "requested", len(ids), "served", len(resp.Keys))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) error(w http.ResponseWriter, code int, err error) {
	recordRequest(code)
	s.log.Error(err, "license request rejected", "code", code)
	http.Error(w, err.Error(), code)
}

// parseRequest decodes the key IDs and the session type of a license request.
// Repeated key IDs are kept once, in order of first appearance.
func parseRequest(body io.Reader) ([]keystore.KeyID, string, error) {
	var req licenseRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, "", fmt.Errorf("invalid license request: %w", err)
	}
	if len(req.KIDs) == 0 {
		return nil, "", errors.New("invalid license request: no key IDs")
	}

	ids := make([]keystore.KeyID, 0, len(req.KIDs))
	seen := make(map[keystore.KeyID]struct{}, len(req.KIDs))
	for _, kid := range req.KIDs {
		b, err := keycodec.Base64URLDecode(kid)
		if err != nil {
			return nil, "", fmt.Errorf("invalid key ID %q: %w", kid, err)
		}
		if len(b) != keystore.Size {
			return nil, "", fmt.Errorf("invalid key ID %q: %w", kid, keystore.ErrIdentifierLength)
		}
		id := keystore.KeyID(b)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, req.Type, nil
}
