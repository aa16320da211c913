package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wricardo/courtqueue/game/engine"
)

// APIError is an error response from the server
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Client drives one area through the REST API
type Client struct {
	baseURL string
	area    string
	client  *http.Client
}

func NewClient(baseURL, area string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		area:    area,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) path(parts ...string) string {
	p := c.baseURL + "/api/queue/" + url.PathEscape(c.area)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func (c *Client) GetSession() (*engine.Session, error) {
	return c.do(http.MethodGet, c.path(), nil)
}

func (c *Client) Configure(mode engine.Mode) (*engine.Session, error) {
	return c.do(http.MethodPost, c.path(), map[string]string{"mode": string(mode)})
}

func (c *Client) AddTeam(name string) (*engine.Session, error) {
	return c.do(http.MethodPost, c.path("teams"), map[string]string{"name": name})
}

func (c *Client) StartGame() (*engine.Session, error) {
	return c.do(http.MethodPost, c.path("start-game"), nil)
}

func (c *Client) UpdateScore(team1, team2 int) (*engine.Session, error) {
	return c.do(http.MethodPost, c.path("score"), map[string]int{"team1": team1, "team2": team2})
}

type resultRequest struct {
	Winner   string `json:"winner,omitempty"`
	Loser    string `json:"loser,omitempty"`
	BothLose bool   `json:"bothLose,omitempty"`
}

func (c *Client) RecordResult(winnerID, loserID string) (*engine.Session, error) {
	return c.do(http.MethodPost, c.path("game-result"), resultRequest{Winner: winnerID, Loser: loserID})
}

func (c *Client) RecordBothLose() (*engine.Session, error) {
	return c.do(http.MethodPost, c.path("game-result"), resultRequest{BothLose: true})
}

func (c *Client) do(method, endpoint string, payload interface{}) (*engine.Session, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return nil, apiErr
	}

	var s engine.Session
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return &s, nil
}
