package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coffeemarket/internal/game"
)

// APIError is a non-2xx response from the game API.
type APIError struct {
	Status  int
	Message string
	Notice  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

type CreatedSession struct {
	ID       string        `json:"id"`
	Snapshot game.Snapshot `json:"snapshot"`
}

type MarketView struct {
	Market         game.MarketStructure    `json:"market"`
	Rank           int                     `json:"rank"`
	IsMarketLeader bool                    `json:"is_market_leader"`
	Offers         []game.AcquisitionOffer `json:"offers"`
}

type ReplayResponse struct {
	Results  []game.ReplayResult `json:"results"`
	Snapshot game.Snapshot       `json:"snapshot"`
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) CreateSession(ctx context.Context) (CreatedSession, error) {
	var out CreatedSession
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/sessions", nil, &out)
	return out, err
}

func (c *Client) State(ctx context.Context, sessionID string) (game.Snapshot, error) {
	var out game.Snapshot
	err := c.jsonRequest(ctx, http.MethodGet, remotePath(sessionID, ""), nil, &out)
	return out, err
}

func (c *Client) Market(ctx context.Context, sessionID string) (MarketView, error) {
	var out MarketView
	err := c.jsonRequest(ctx, http.MethodGet, remotePath(sessionID, "/market"), nil, &out)
	return out, err
}

func (c *Client) UpdateSettings(ctx context.Context, sessionID string, settings game.PlayerSettings) (game.Result, error) {
	var out game.Result
	err := c.jsonRequest(ctx, http.MethodPut, remotePath(sessionID, "/settings"), settings, &out)
	return out, err
}

func (c *Client) PlayRound(ctx context.Context, sessionID string) (game.Result, error) {
	var out game.Result
	err := c.jsonRequest(ctx, http.MethodPost, remotePath(sessionID, "/rounds"), nil, &out)
	return out, err
}

func (c *Client) Acquire(ctx context.Context, sessionID string, competitorID int) (game.Result, error) {
	var out game.Result
	err := c.jsonRequest(ctx, http.MethodPost, remotePath(sessionID, "/acquisitions"), map[string]any{
		"competitor_id": competitorID,
	}, &out)
	return out, err
}

func (c *Client) Replay(ctx context.Context, sessionID string, commands []game.CommandEnvelope) (ReplayResponse, error) {
	var out ReplayResponse
	err := c.jsonRequest(ctx, http.MethodPost, remotePath(sessionID, "/commands"), map[string]any{
		"commands": commands,
	}, &out)
	return out, err
}

func (c *Client) EndSession(ctx context.Context, sessionID string) error {
	return c.jsonRequest(ctx, http.MethodDelete, remotePath(sessionID, ""), nil, nil)
}

func remotePath(sessionID, suffix string) string {
	return "/v1/sessions/" + url.PathEscape(sessionID) + suffix
}

// IsAPIError reports whether err came back from the API rather than the network.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var payload struct {
			Error  string `json:"error"`
			Notice string `json:"notice"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Notice = payload.Notice
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
