// Package client is a Go SDK for the moments HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bwise1/moment_stack/internal/model"
	"github.com/google/go-querystring/query"
	"github.com/pkg/errors"
)

const requestSource = "moment-stack-go-client"

type Client struct {
	BaseURL    *url.URL
	Token      string
	HTTPClient *http.Client
}

type Option func(*Client)

// WithToken authenticates write operations with a bearer token from /auth/login.
func WithToken(token string) Option {
	return func(c *Client) { c.Token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, errors.Wrap(err, "parse base URL")
	}
	c := &Client{
		BaseURL: u,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListOptions narrows List and FindNearby. Zero fields are omitted so the
// server defaults apply.
type ListOptions struct {
	Moods     []model.Mood `url:"moods,omitempty,comma"`
	StartDate *time.Time   `url:"start_date,omitempty"`
	EndDate   *time.Time   `url:"end_date,omitempty"`
	UserID    string       `url:"user_id,omitempty"`
	Limit     int          `url:"limit,omitempty"`
	Offset    int          `url:"offset,omitempty"`
}

type NearbyOptions struct {
	Latitude     float64 `url:"lat"`
	Longitude    float64 `url:"lng"`
	RadiusMeters int     `url:"radius,omitempty"`
	ListOptions
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("moments api: %d %s: %s", e.StatusCode, e.Status, e.Message)
}

type envelope struct {
	Message string          `json:"message"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) ListMoments(ctx context.Context, opts *ListOptions) (*model.MomentPage, error) {
	var page model.MomentPage
	if err := c.get(ctx, "moments", opts, &page); err != nil {
		return nil, errors.Wrap(err, "list moments")
	}
	return &page, nil
}

func (c *Client) FindNearby(ctx context.Context, opts NearbyOptions) (*model.NearbyPage, error) {
	var page model.NearbyPage
	if err := c.get(ctx, "moments/nearby", opts, &page); err != nil {
		return nil, errors.Wrap(err, "find nearby moments")
	}
	return &page, nil
}

func (c *Client) ListUserMoments(ctx context.Context, userID string, opts *ListOptions) (*model.OwnerPage, error) {
	var page model.OwnerPage
	if err := c.get(ctx, "users/"+url.PathEscape(userID)+"/moments", opts, &page); err != nil {
		return nil, errors.Wrap(err, "list user moments")
	}
	return &page, nil
}

func (c *Client) GetMoment(ctx context.Context, id string) (*model.MomentWithOwnerInfo, error) {
	var m model.MomentWithOwnerInfo
	if err := c.get(ctx, "moments/"+url.PathEscape(id), nil, &m); err != nil {
		return nil, errors.Wrap(err, "get moment")
	}
	return &m, nil
}

func (c *Client) CreateMoment(ctx context.Context, req model.CreateMomentRequest) (*model.Moment, error) {
	var m model.Moment
	if err := c.send(ctx, http.MethodPost, "moments", req, &m); err != nil {
		return nil, errors.Wrap(err, "create moment")
	}
	return &m, nil
}

func (c *Client) UpdateMoment(ctx context.Context, id string, req model.UpdateMomentRequest) (*model.Moment, error) {
	var m model.Moment
	if err := c.send(ctx, http.MethodPut, "moments/"+url.PathEscape(id), req, &m); err != nil {
		return nil, errors.Wrap(err, "update moment")
	}
	return &m, nil
}

func (c *Client) DeleteMoment(ctx context.Context, id string) error {
	return errors.Wrap(c.send(ctx, http.MethodDelete, "moments/"+url.PathEscape(id), nil, nil), "delete moment")
}

func (c *Client) buildURL(endpoint string, queryParams interface{}) (string, error) {
	rel, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.Wrap(err, "parse endpoint")
	}
	u := c.BaseURL.ResolveReference(rel)

	if queryParams != nil {
		v, err := query.Values(queryParams)
		if err != nil {
			return "", errors.Wrap(err, "encode query parameters")
		}
		u.RawQuery = v.Encode()
	}
	return u.String(), nil
}

func (c *Client) get(ctx context.Context, endpoint string, queryParams, out interface{}) error {
	reqURL, err := c.buildURL(endpoint, queryParams)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	return c.do(req, out)
}

func (c *Client) send(ctx context.Context, method, endpoint string, body, out interface{}) error {
	reqURL, err := c.buildURL(endpoint, nil)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, v interface{}) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Source", requestSource)
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "execute HTTP request")
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return errors.Wrapf(err, "decode response with status %d", resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Status: env.Status, Message: env.Message}
	}

	if v != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, v); err != nil {
			return errors.Wrap(err, "decode response data")
		}
	}
	return nil
}
