// Copyright (c) 2026 Plaquier. All rights reserved.
// Author: m.joris.pro@gmail.com

/*
Package remote implements the outbound HTTP client for the inventory service.

It is the single ingress/egress point for upstream state: every payload shape
quirk of the inventory API (bare arrays vs {items,total} pages, multipart
aggregate submissions, French field names) is normalized here so that internal
components never branch on wire shape.

Architecture:

  - Client: rate-limited, bearer-forwarding HTTP transport.
  - Page normalization: tagged-union list responses folded into one canonical record.
  - Multipart builder: aggregate create/update payload assembly.
*/
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/mjoris/plaquier/internal/platform/constants"
	"github.com/mjoris/plaquier/internal/platform/ctxutil"
	"github.com/mjoris/plaquier/internal/platform/remerr"
)

// Client is the HTTP transport for the inventory service.
//
// # Concurrency
//
// Client is safe for concurrent use. A shared token bucket keeps the console
// polite toward the upstream regardless of how many view scopes are querying.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient constructs a Client for the given base URL.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(constants.OutboundRPS), constants.OutboundBurst),
		logger:  logger,
	}
}

// GetJSON issues a GET and decodes the response body into target.
func (client *Client) GetJSON(ctx context.Context, path string, query url.Values, target any) error {
	body, err := client.do(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return remerr.Wrap(fmt.Errorf("decode %s: %w", path, err), "get "+path)
	}
	return nil
}

// GetRaw issues a GET and returns the raw response body for shape-dependent
// decoding (list endpoints that answer either an array or a page object).
func (client *Client) GetRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return client.do(ctx, http.MethodGet, path, query, nil, "")
}

// PostJSON issues a POST with a JSON body and decodes the response into target.
func (client *Client) PostJSON(ctx context.Context, path string, payload, target any) error {
	return client.sendJSON(ctx, http.MethodPost, path, payload, target)
}

// PutJSON issues a PUT with a JSON body and decodes the response into target.
func (client *Client) PutJSON(ctx context.Context, path string, payload, target any) error {
	return client.sendJSON(ctx, http.MethodPut, path, payload, target)
}

// Delete issues a DELETE and discards any response body.
func (client *Client) Delete(ctx context.Context, path string) error {
	_, err := client.do(ctx, http.MethodDelete, path, nil, nil, "")
	return err
}

// SendMultipart issues a POST or PUT with a multipart payload and decodes the
// response into target (which may be nil).
func (client *Client) SendMultipart(ctx context.Context, method, path string, payload *Multipart, target any) error {
	body, contentType, err := payload.Encode()
	if err != nil {
		return remerr.Wrap(err, "encode multipart "+path)
	}

	responseBody, err := client.do(ctx, method, path, nil, body, contentType)
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(responseBody, target); err != nil {
		return remerr.Wrap(fmt.Errorf("decode %s: %w", path, err), method+" "+path)
	}
	return nil
}

// Ping checks upstream reachability for the readiness probe.
func (client *Client) Ping(ctx context.Context) error {
	_, err := client.do(ctx, http.MethodGet, "/conceptions/select", nil, nil, "")
	return err
}

// sendJSON marshals payload and performs the request.
func (client *Client) sendJSON(ctx context.Context, method, path string, payload, target any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return remerr.Wrap(err, "encode "+path)
	}

	body, err := client.do(ctx, method, path, nil, bytes.NewReader(encoded), "application/json")
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return remerr.Wrap(fmt.Errorf("decode %s: %w", path, err), method+" "+path)
	}
	return nil
}

// do performs the request with rate limiting, bearer forwarding, and error
// classification. It returns the response body on 2xx.
func (client *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) ([]byte, error) {
	action := method + " " + path

	// Polite outbound pacing; aborts immediately if the scope is superseded.
	if err := client.limiter.Wait(ctx); err != nil {
		return nil, remerr.Wrap(err, action)
	}

	target := client.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, remerr.Wrap(err, action)
	}

	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	// The operator token travels opaquely; the console never mints or
	// validates credentials of its own.
	if token := ctxutil.GetBearer(ctx); token != "" {
		request.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}

	response, err := client.http.Do(request)
	if err != nil {
		return nil, remerr.Wrap(err, action)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, remerr.Wrap(err, action)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		client.logger.Warn("inventory_call_failed",
			slog.String("action", action),
			slog.Int("status", response.StatusCode),
		)
		return nil, remerr.FromResponse(response.StatusCode, responseBody, action)
	}

	return responseBody, nil
}
