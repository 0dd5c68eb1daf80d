// Package pocketbase is a minimal client for the PocketBase HTTP API covering
// collection creation and auth-record management.
package pocketbase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Rana718/pbinit/internal/logger"
	"github.com/Rana718/pbinit/internal/types"
	"github.com/go-resty/resty/v2"
)

const listPageSize = 200

type Options struct {
	URL     string
	Timeout time.Duration // 0 keeps the transport default
	Retries int
	Logger  logger.Logger
}

type Client struct {
	http *resty.Client
	log  logger.Logger
}

// CollectionInfo is the subset of a remote collection pbinit cares about.
type CollectionInfo struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Type   string            `json:"type"`
	Schema []types.FieldSpec `json:"schema"`
}

type listResponse[T any] struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
	Items      []T `json:"items"`
}

func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	client := resty.New().
		SetBaseURL(opts.URL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.Retries > 0 {
		client.SetRetryCount(opts.Retries).
			SetRetryWaitTime(200 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second).
			AddRetryCondition(retryCondition)
	}

	return &Client{http: client, log: log}
}

// retryCondition retries transport errors and server-side failures only.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests
}

// SetToken attaches an auth token to every subsequent request.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

func (c *Client) do(ctx context.Context, method, path string, build func(*resty.Request), result any) error {
	req := c.http.R().SetContext(ctx).SetError(&APIError{})
	if result != nil {
		req.SetResult(result)
	}
	if build != nil {
		build(req)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Debug("pocketbase request failed", "method", method, "path", path, "err", err)
		return fmt.Errorf("%w: %s %s: %w", ErrUnreachable, method, path, err)
	}

	c.log.Debug("pocketbase request", "method", method, "path", path, "status", resp.StatusCode())

	if !resp.IsError() {
		return nil
	}
	if apiErr, ok := resp.Error().(*APIError); ok && apiErr != nil && (apiErr.Status != 0 || apiErr.Message != "") {
		if apiErr.Status == 0 {
			apiErr.Status = resp.StatusCode()
		}
		return apiErr
	}
	return &APIError{Status: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
}

// Health fails when the service cannot be reached or reports unhealthy.
func (c *Client) Health(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, nil); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

const adminAuthPath = "/api/admins/auth-with-password"

// AuthAdmin authenticates against the admins API and stores the token on the
// client. Only the pre-0.23 API is spoken: the collection payloads use the
// legacy schema/options shape, so a server without the admins endpoint is
// reported as unsupported rather than logged into.
func (c *Client) AuthAdmin(ctx context.Context, email, password string) error {
	body := map[string]string{"identity": email, "password": password}
	var out struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, adminAuthPath, func(r *resty.Request) { r.SetBody(body) }, &out)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("admin auth failed: %w: %w", ErrUnsupportedVersion, err)
	}
	if err != nil {
		return fmt.Errorf("admin auth failed: %w", err)
	}
	if out.Token == "" {
		return fmt.Errorf("admin auth: empty token from %s", adminAuthPath)
	}
	c.SetToken(out.Token)
	return nil
}

func (c *Client) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	var all []CollectionInfo
	for page := 1; ; page++ {
		var out listResponse[CollectionInfo]
		err := c.do(ctx, http.MethodGet, "/api/collections", func(r *resty.Request) {
			r.SetQueryParams(map[string]string{
				"page":    strconv.Itoa(page),
				"perPage": strconv.Itoa(listPageSize),
			})
		}, &out)
		if err != nil {
			return nil, fmt.Errorf("failed to list collections: %w", err)
		}
		all = append(all, out.Items...)
		if len(out.Items) == 0 || page >= out.TotalPages {
			return all, nil
		}
	}
}

func (c *Client) CreateCollection(ctx context.Context, def types.CollectionDefinition) (CollectionInfo, error) {
	var out CollectionInfo
	err := c.do(ctx, http.MethodPost, "/api/collections", func(r *resty.Request) { r.SetBody(def) }, &out)
	return out, err
}

// UpdateCollection replaces the schema of an existing collection.
func (c *Client) UpdateCollection(ctx context.Context, idOrName string, def types.CollectionDefinition) (CollectionInfo, error) {
	var out CollectionInfo
	err := c.do(ctx, http.MethodPatch, "/api/collections/{collection}", func(r *resty.Request) {
		r.SetPathParam("collection", idOrName).SetBody(def)
	}, &out)
	return out, err
}

// FindFirstRecord returns the first record matching filter, or an error
// matching ErrNotFound when there is none.
func (c *Client) FindFirstRecord(ctx context.Context, collection, filter string) (Record, error) {
	var out listResponse[Record]
	err := c.do(ctx, http.MethodGet, "/api/collections/{collection}/records", func(r *resty.Request) {
		r.SetPathParam("collection", collection).SetQueryParams(map[string]string{
			"page":      "1",
			"perPage":   "1",
			"filter":    filter,
			"skipTotal": "1",
		})
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, notFound("The requested resource wasn't found.")
	}
	return out.Items[0], nil
}

func (c *Client) CreateRecord(ctx context.Context, collection string, body map[string]any) (Record, error) {
	var out Record
	err := c.do(ctx, http.MethodPost, "/api/collections/{collection}/records", func(r *resty.Request) {
		r.SetPathParam("collection", collection).SetBody(body)
	}, &out)
	return out, err
}

func (c *Client) UpdateRecord(ctx context.Context, collection, id string, body map[string]any) (Record, error) {
	var out Record
	err := c.do(ctx, http.MethodPatch, "/api/collections/{collection}/records/{id}", func(r *resty.Request) {
		r.SetPathParams(map[string]string{"collection": collection, "id": id}).SetBody(body)
	}, &out)
	return out, err
}
