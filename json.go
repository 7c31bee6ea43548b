// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package beatrpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"syscall"
	"time"

	rpc "github.com/gorilla/rpc/v2/json2"

	"github.com/luxfi/beatrpc/internal/logx"
)

const (
	maxRetries    = 3
	retryBaseWait = 500 * time.Millisecond
)

// StatusMethod is the JSON-RPC method served by the admin surface.
const StatusMethod = "Heartbeat.Status"

// Options holds per-request headers and query parameters.
type Options struct {
	headers     http.Header
	queryParams url.Values
}

// Option configures a JSON request.
type Option func(*Options)

// NewOptions applies ops over empty options.
func NewOptions(ops []Option) *Options {
	o := &Options{
		headers:     http.Header{},
		queryParams: url.Values{},
	}
	for _, op := range ops {
		op(o)
	}
	return o
}

// WithHeader adds a request header.
func WithHeader(key, value string) Option {
	return func(o *Options) { o.headers.Add(key, value) }
}

// WithQueryParam adds a query parameter.
func WithQueryParam(key, value string) Option {
	return func(o *Options) { o.queryParams.Add(key, value) }
}

// statusClient is shared by status queries. Keep-alives are off: a query is
// a single short request against a local admin listener.
var statusClient = &http.Client{
	Timeout:   30 * time.Second,
	Transport: &http.Transport{DisableKeepAlives: true},
}

// transient reports connection level failures worth another attempt. The
// status call is read-only, so repeating it is harmless.
func transient(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

// SendJSONRequest posts a JSON-RPC 2.0 request to uri and decodes the result
// into reply, retrying transient connection failures.
func SendJSONRequest(
	ctx context.Context,
	uri *url.URL,
	method string,
	params interface{},
	reply interface{},
	options ...Option,
) error {
	body, err := rpc.EncodeClientRequest(method, params)
	if err != nil {
		return fmt.Errorf("failed to encode client params: %w", err)
	}
	ops := NewOptions(options)
	u := *uri
	u.RawQuery = ops.queryParams.Encode()
	log := logx.Log.With().Str("method", method).Str("uri", u.String()).Logger()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBaseWait << (attempt - 1)):
			}
		}
		lastErr = postJSON(ctx, u.String(), ops.headers, body, reply)
		if lastErr == nil || !transient(lastErr) {
			return lastErr
		}
		log.Debug().Err(lastErr).Int("attempt", attempt+1).Msg("status request failed")
	}
	return fmt.Errorf("failed to issue request after %d attempts: %w", maxRetries, lastErr)
}

// postJSON performs one request/response exchange.
func postJSON(ctx context.Context, uri string, headers http.Header, body []byte, reply interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = headers.Clone()
	req.Header.Set("Content-Type", "application/json")

	resp, err := statusClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to issue request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("received status code: %d", resp.StatusCode)
	}
	if err := rpc.DecodeClientResponse(resp.Body, reply); err != nil {
		return fmt.Errorf("failed to decode client response: %w", err)
	}
	return nil
}

// QueryStatus calls Heartbeat.Status on the admin JSON-RPC endpoint at uri.
func QueryStatus(ctx context.Context, uri string, options ...Option) (*StatusReply, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse status uri: %w", err)
	}
	var reply StatusReply
	if err := SendJSONRequest(ctx, u, StatusMethod, &StatusArgs{}, &reply, options...); err != nil {
		return nil, err
	}
	return &reply, nil
}
