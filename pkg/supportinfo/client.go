// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package supportinfo

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/whatsapp/wadebug/pkg/config"
	"github.com/whatsapp/wadebug/pkg/defaults"
	apperrors "github.com/whatsapp/wadebug/pkg/errors"
)

// UserAgent identifies wadebug requests in the business API access log.
const UserAgent = "wadebug/1.0"

// API paths relative to the configured base URL.
const (
	LoginPath   = "/v1/users/login"
	SupportPath = "/v1/support"
)

// maxErrorBody caps how much of an error response is kept in the error message.
const maxErrorBody = 512

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client talks to the business API of the deployment.
type Client struct {
	baseURL    *url.URL
	user       string
	password   string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a Client for the webapp section of the configuration.
func NewClient(w *config.WebApp, opts ...ClientOption) (*Client, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimRight(w.BaseURL, "/"))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid webapp baseUrl", err)
	}

	c := &Client{
		baseURL:   u,
		user:      w.User,
		password:  w.Password,
		userAgent: UserAgent,
		httpClient: &http.Client{
			Timeout:   defaults.HTTPClientTimeout,
			Transport: newTransport(w.Insecure),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newTransport(insecure bool) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   defaults.HTTPConnectTimeout,
			KeepAlive: defaults.HTTPKeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   defaults.HTTPTLSHandshakeTimeout,
		ResponseHeaderTimeout: defaults.HTTPResponseHeaderTimeout,
		IdleConnTimeout:       defaults.HTTPIdleConnTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: insecure, //nolint:gosec // deployments commonly use self-signed certificates
		},
	}
}

type loginResponse struct {
	Users []struct {
		Token        string `json:"token"`
		ExpiresAfter string `json:"expires_after"`
	} `json:"users"`
}

// Login exchanges the configured credentials for a bearer token.
func (c *Client) Login(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, LoginPath)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.user, c.password)

	var res loginResponse
	if err := c.do(req, &res); err != nil {
		return "", err
	}
	if len(res.Users) == 0 || res.Users[0].Token == "" {
		return "", apperrors.New(apperrors.ErrCodeUnauthorized, "login response carried no token")
	}
	return res.Users[0].Token, nil
}

// SupportInfo logs in and returns the support info document as raw JSON.
func (c *Client) SupportInfo(ctx context.Context) (any, error) {
	token, err := c.Login(ctx)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodGet, SupportPath)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var doc json.RawMessage
	if err := c.do(req, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to build request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(req, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return apperrors.NewWithContext(statusCode(resp.StatusCode),
			fmt.Sprintf("%s %s returned %s", req.Method, req.URL.Path, resp.Status),
			map[string]any{"body": strings.TrimSpace(string(body))})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeParse,
			fmt.Sprintf("failed to decode %s response", req.URL.Path), err)
	}
	return nil
}

func classifyTransportError(req *http.Request, err error) error {
	msg := fmt.Sprintf("%s %s failed", req.Method, req.URL.Path)
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.Wrap(apperrors.ErrCodeTimeout, msg, err)
	}
	return apperrors.Wrap(apperrors.ErrCodeUnavailable, msg, err)
}

func statusCode(status int) apperrors.ErrorCode {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.ErrCodeUnauthorized
	case status == http.StatusNotFound:
		return apperrors.ErrCodeNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return apperrors.ErrCodeTimeout
	case status >= 500:
		return apperrors.ErrCodeUnavailable
	default:
		return apperrors.ErrCodeInvalidRequest
	}
}
