// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package clearkey implements both ends of the W3C Clearkey license exchange.
//
// A license request lists base64url encoded key IDs:
//
//	{"kids": ["<base64url kid>", ...], "type": "temporary"}
//
// and the license server answers with a JSON Web Key Set of symmetric keys:
//
//	{"keys": [{"kty": "oct", "kid": "<base64url kid>", "k": "<base64url key>"}, ...]}
//
// The Client fills the pending key IDs of a keystore.Store with one batched
// request. The Server answers license requests from a KeyProvider, such as a
// directory of key files written by the keyfile package.
package clearkey

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/controlplaneio-fluxcd/cenc-keys/internal/keycodec"
	"github.com/controlplaneio-fluxcd/cenc-keys/internal/keystore"
)

// LicenseTypeTemporary is the only session type requested by the Client.
const LicenseTypeTemporary = "temporary"

// licenseRequest is the body of a Clearkey license request.
type licenseRequest struct {
	KIDs []string `json:"kids"`
	Type string   `json:"type"`
}

// Client requests content keys from a Clearkey license server.
type Client struct {
	url     string
	options clientOptions
	http    *retryablehttp.Client
}

// NewClient returns a Client for the license acquisition URL.
// It enforces HTTPS unless connecting to localhost and allowed.
func NewClient(laURL string, opts ...ClientOption) (*Client, error) {
	options := clientOptions{
		timeout:        DefaultTimeout,
		userAgent:      DefaultUserAgent,
		allowLocalhost: true,
		logger:         logr.Discard(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	parsedURL, err := url.Parse(laURL)
	if err != nil {
		return nil, fmt.Errorf("invalid license URL: %w", err)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid license URL %q: missing host", laURL)
	}

	isLocalhost := strings.EqualFold(parsedURL.Hostname(), "localhost") ||
		parsedURL.Hostname() == "127.0.0.1" ||
		parsedURL.Hostname() == "::1"

	if !strings.EqualFold(parsedURL.Scheme, "https") && (!isLocalhost || !options.allowLocalhost) {
		return nil, ErrHTTPSRequired
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = options.retries
	retryClient.Logger = nil
	// Hand back the last response as is, status handling belongs to RequestKeys.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.HTTPClient.Timeout = options.timeout
	switch {
	case options.transport != nil:
		retryClient.HTTPClient.Transport = options.transport
	case options.insecureSkipVerify:
		retryClient.HTTPClient.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Client{
		url:     laURL,
		options: options,
		http:    retryClient,
	}, nil
}

// URL returns the license acquisition URL.
func (c *Client) URL() string {
	return c.url
}

// RequestKeys requests the keys of all pending key IDs in the store with a
// single POST and attaches the returned keys to the store.
//
// No request is made when nothing is pending. Transport failures return
// ErrTransport and any status other than 200 returns *LicenseServerError,
// in both cases the store is left untouched. A malformed response returns
// ErrProtocol; keys applied from earlier entries of the response are kept.
func (c *Client) RequestKeys(ctx context.Context, store *keystore.Store) error {
	log := c.options.logger

	pending := store.Pending()
	if len(pending) == 0 {
		log.V(1).Info("no pending key IDs, skipping license request")
		return nil
	}

	body, err := buildRequest(pending)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.options.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.options.userAgent)

	log.V(1).Info("sending license request", "url", c.url, "kids", len(pending))

	resp, err := c.http.Do(req)
	if err != nil {
		return TransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	log.V(1).Info("license server responded", "status", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return &LicenseServerError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return TransportError(fmt.Errorf("failed to read response body: %w", err))
	}

	n, err := applyKeys(data, store)
	log.Info("license keys received", "requested", len(pending), "applied", n)
	return err
}

// buildRequest encodes the Clearkey license request body.
func buildRequest(ids []keystore.KeyID) ([]byte, error) {
	request := licenseRequest{
		KIDs: make([]string, 0, len(ids)),
		Type: LicenseTypeTemporary,
	}
	for _, id := range ids {
		request.KIDs = append(request.KIDs, keycodec.Base64URLEncode(id[:]))
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode license request: %w", err)
	}
	return body, nil
}

// applyKeys decodes the key set in data one entry at a time and attaches
// each key to the store. It returns the number of keys applied before
// the first invalid entry.
func applyKeys(data []byte, store *keystore.Store) (int, error) {
	if !gjson.ValidBytes(data) {
		return 0, ProtocolError(errors.New("malformed JSON"))
	}

	keys := gjson.GetBytes(data, "keys")
	if !keys.IsArray() {
		return 0, ProtocolError(errors.New("missing keys array"))
	}

	var applied int
	for i, item := range keys.Array() {
		kid, err := decodeField(item, "kid")
		if err != nil {
			return applied, ProtocolError(fmt.Errorf("keys[%d]: %w", i, err))
		}
		k, err := decodeField(item, "k")
		if err != nil {
			return applied, ProtocolError(fmt.Errorf("keys[%d]: %w", i, err))
		}
		if _, err := store.SetKey(kid, k); err != nil {
			return applied, ProtocolError(fmt.Errorf("keys[%d]: %w", i, err))
		}
		applied++
	}
	return applied, nil
}

// decodeField base64url decodes the string field name of a key set entry.
func decodeField(item gjson.Result, name string) ([]byte, error) {
	field := item.Get(name)
	if field.Type != gjson.String {
		return nil, fmt.Errorf("missing %q field", name)
	}
	b, err := keycodec.Base64URLDecode(field.Str)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}
	return b, nil
}
