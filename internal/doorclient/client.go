// Package doorclient talks to the check-in API from door devices.
package doorclient

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

	"doorcheck/entity"
)

// Client is the check-in API client for one operator.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type envelope struct {
	Data          json.RawMessage `json:"data"`
	Success       bool            `json:"success"`
	StatusMessage string          `json:"status_message"`
}

// New creates a new API client.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Resolve looks a scanned code up without checking it in.
func (c *Client) Resolve(ctx context.Context, eventId, code string) (*entity.Resolution, error) {
	var res entity.Resolution
	path := "/v1/events/" + url.PathEscape(eventId) + "/resolve"
	if err := c.post(ctx, path, entity.CodeRequest{Code: code}, &res); err != nil {
		return nil, fmt.Errorf("doorclient.Resolve: %w", err)
	}
	return &res, nil
}

// Commit checks a resolved registration in.
func (c *Client) Commit(ctx context.Context, registrationId string) (*entity.CommitResult, error) {
	var res entity.CommitResult
	path := "/v1/registrations/" + url.PathEscape(registrationId) + "/checkin"
	if err := c.post(ctx, path, nil, &res); err != nil {
		return nil, fmt.Errorf("doorclient.Commit: %w", err)
	}
	return &res, nil
}

// Admit resolves and commits a code in one call.
func (c *Client) Admit(ctx context.Context, eventId, code string) (*entity.AdmitResult, error) {
	var res entity.AdmitResult
	path := "/v1/events/" + url.PathEscape(eventId) + "/checkin"
	if err := c.post(ctx, path, entity.CodeRequest{Code: code}, &res); err != nil {
		return nil, fmt.Errorf("doorclient.Admit: %w", err)
	}
	return &res, nil
}

// Stats returns the event's check-in figures.
func (c *Client) Stats(ctx context.Context, eventId string) (*entity.Stats, error) {
	var stats entity.Stats
	if err := c.get(ctx, "/v1/events/"+url.PathEscape(eventId)+"/stats", &stats); err != nil {
		return nil, fmt.Errorf("doorclient.Stats: %w", err)
	}
	return &stats, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", err)}
	}

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)
	if resp.StatusCode >= 400 {
		if decodeErr == nil && env.StatusMessage != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: env.StatusMessage, Data: env.Data}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
