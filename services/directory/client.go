// Package directory is the REST client of the upstream school directory API.
package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/auth"
)

// Request outcomes reported to the Observer.
const (
	OutcomeOK             = "ok"
	OutcomeUnauthorized   = "unauthorized"
	OutcomeClientError    = "client_error"
	OutcomeServerError    = "server_error"
	OutcomeTransportError = "transport_error"
)

var (
	// errors
	ErrUnauthorized = errors.New("session expired, please log in again")
)

// APIError is a non-2xx answer of the directory.
type APIError struct {
	Status  int             `json:"-"`
	Message string          `json:"error,omitempty"`
	Detail  string          `json:"message,omitempty"`
	Field   string          `json:"field,omitempty"`
	Fields  json.RawMessage `json:"fields,omitempty"`
	Banned  bool            `json:"banned,omitempty"`
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Detail != "":
		return e.Detail
	default:
		return http.StatusText(e.Status)
	}
}

func (e *APIError) IsBanned() bool {
	return e.Banned
}

// envelope is the body of every successful answer.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   int             `json:"count"`
	Token   string          `json:"token"`
	User    *auth.User      `json:"user"`
	Message string          `json:"message"`
}

// Client calls the directory on behalf of the client whose token lives in its store.
type Client struct {
	http           *resty.Client
	kv             core.KeyValueStore
	logger         core.Logger
	onUnauthorized func()
	observe        func(outcome string)
}

var _ auth.Backend = (*Client)(nil)

func New(conf core.DirectoryConfig, logger core.Logger) *Client {
	rc := resty.New().
		SetBaseURL(conf.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(conf.Timeout).
		SetRetryCount(conf.RetryCount)

	return &Client{
		http:    rc,
		logger:  logger,
		observe: func(string) {},
	}
}

func (c *Client) clone() *Client {
	cp := *c
	return &cp
}

// WithStorage returns a copy of c reading and clearing the token in kv.
func (c *Client) WithStorage(kv core.KeyValueStore) *Client {
	cp := c.clone()
	cp.kv = kv
	return cp
}

// OnUnauthorized returns a copy of c calling fn after the session was cleared by a 401.
func (c *Client) OnUnauthorized(fn func()) *Client {
	cp := c.clone()
	cp.onUnauthorized = fn
	return cp
}

// WithObserver returns a copy of c reporting the outcome of every request to fn.
func (c *Client) WithObserver(fn func(outcome string)) *Client {
	cp := c.clone()
	cp.observe = fn
	return cp
}

func (c *Client) token() (string, bool) {
	if c.kv == nil {
		return "", false
	}
	token, ok, err := c.kv.Get(auth.TokenKey)
	if err != nil {
		c.logger.Warn("directory: reading token", errors.Wrap(err, "reading "+auth.TokenKey))
		return "", false
	}
	return token, ok && token != ""
}

// expire forgets the rejected session.
func (c *Client) expire() {
	for _, key := range []string{auth.TokenKey, auth.UserKey} {
		if err := c.kv.Remove(key); err != nil {
			c.logger.Error("directory: clearing session", errors.Wrap(err, "removing "+key))
		}
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, query url.Values) (envelope, error) {
	var env envelope
	req := c.http.R().
		SetContext(ctx).
		SetResult(&env).
		SetError(&APIError{})

	token, authed := c.token()
	if authed {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetBody(body)
	}
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.observe(OutcomeTransportError)
		return envelope{}, errors.Wrapf(err, "%s %s", method, path)
	}

	status := resp.StatusCode()
	switch {
	case resp.IsSuccess():
		c.observe(OutcomeOK)
		return env, nil
	case status == http.StatusUnauthorized && authed:
		c.observe(OutcomeUnauthorized)
		c.expire()
		return envelope{}, ErrUnauthorized
	case status >= http.StatusInternalServerError:
		c.observe(OutcomeServerError)
	default:
		c.observe(OutcomeClientError)
	}

	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	apiErr.Status = status
	return envelope{}, apiErr
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (envelope, error) {
	return c.do(ctx, http.MethodGet, path, nil, query)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (envelope, error) {
	return c.do(ctx, http.MethodPost, path, body, nil)
}

func decodeData(env envelope, dest interface{}) error {
	if len(env.Data) == 0 {
		return errors.New("missing data in response")
	}
	return errors.Wrap(json.Unmarshal(env.Data, dest), "decoding response data")
}
