package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Endpoints holds the directory API URLs. The upstream deploys each
// operation behind its own gateway so there is no shared base URL.
type Endpoints struct {
	List     string
	Create   string
	Update   string
	Approval string
}

// Observer receives the outcome of every directory call.
type Observer interface {
	ObserveDirectoryCall(op string, err error, elapsed time.Duration)
}

// Client wraps interactions with the directory API.
type Client struct {
	endpoints  Endpoints
	httpClient *http.Client
	observer   Observer
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithObserver records call outcomes, typically into metrics.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) { c.observer = o }
}

// NewClient constructs a new client.
func NewClient(endpoints Endpoints, opts ...ClientOption) *Client {
	c := &Client{
		endpoints: endpoints,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type listEnvelope struct {
	Data *[]Record `json:"data"`
}

// List fetches every listing.
func (c *Client) List(ctx context.Context) (records []Record, err error) {
	defer c.observe("list", time.Now(), &err)

	body, err := c.do(ctx, http.MethodGet, c.endpoints.List, nil)
	if err != nil {
		return nil, err
	}
	var envelope listEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if envelope.Data == nil {
		return []Record{}, nil
	}
	return *envelope.Data, nil
}

// Create registers a new listing. The response body is not used.
func (c *Client) Create(ctx context.Context, draft Draft) (err error) {
	defer c.observe("create", time.Now(), &err)
	_, err = c.do(ctx, http.MethodPost, c.endpoints.Create, draft.createPayload())
	return err
}

// Update overwrites the listing identified by draft.ID.
func (c *Client) Update(ctx context.Context, draft Draft) (err error) {
	defer c.observe("update", time.Now(), &err)
	if draft.ID == "" {
		return ErrMissingID
	}
	_, err = c.do(ctx, http.MethodPost, c.endpoints.Update, draft.updatePayload())
	return err
}

// approvalPayload names the listing documentId, unlike the update body.
type approvalPayload struct {
	DocumentID string `json:"documentId"`
	Approved   string `json:"approved"`
}

// SetApproval records an approve or reject decision.
func (c *Client) SetApproval(ctx context.Context, id string, approve bool) (err error) {
	defer c.observe("approval", time.Now(), &err)
	if id == "" {
		return ErrMissingID
	}
	decision := ApprovalRejected
	if approve {
		decision = ApprovalApproved
	}
	_, err = c.do(ctx, http.MethodPost, c.endpoints.Approval, approvalPayload{DocumentID: id, Approved: decision.Wire()})
	return err
}

func (c *Client) do(ctx context.Context, method, url string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (c *Client) observe(op string, start time.Time, err *error) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveDirectoryCall(op, *err, time.Since(start))
}
