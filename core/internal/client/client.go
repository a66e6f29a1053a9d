// Package client calls a remote sosfetch server with the same request and
// result types the local service uses.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"sosfetch/core/internal/audit"
	"sosfetch/core/internal/sosreport"
)

type Config struct {
	ServerURL   string
	PSK         string
	InsecureTLS bool
	// Timeout bounds a whole request, generation included.
	Timeout time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.ServerURL == "" {
		return nil, errors.New("server URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 35 * time.Minute
	}
	hc := &http.Client{Timeout: cfg.Timeout}
	if strings.HasPrefix(strings.ToLower(cfg.ServerURL), "https://") {
		hc.Transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureTLS}}
	}
	return &Client{cfg: cfg, http: hc}, nil
}

type errorBody struct {
	Error string         `json:"error"`
	Kind  sosreport.Kind `json:"kind"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}
	endpoint := strings.TrimRight(c.cfg.ServerURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.PSK != "" {
		req.Header.Set("X-PSK", c.cfg.PSK)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &sosreport.Error{Kind: sosreport.TransportFailure, Msg: "Failed to reach sosfetch server: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil || eb.Error == "" {
			return fmt.Errorf("%s %s failed: %s", method, path, resp.Status)
		}
		if eb.Kind == "" {
			return fmt.Errorf("%s (%s)", eb.Error, resp.Status)
		}
		return &sosreport.Error{Kind: eb.Kind, Msg: eb.Error}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) Generate(ctx context.Context, req sosreport.GenerateRequest) (sosreport.GenerateResult, error) {
	var res sosreport.GenerateResult
	err := c.do(ctx, http.MethodPost, "/v1/sosreports", req, &res)
	return res, err
}

// Fetch asks the server to fetch; ArchivePath in the result is on the
// server's filesystem.
func (c *Client) Fetch(ctx context.Context, req sosreport.FetchRequest) (sosreport.FetchResult, error) {
	var res sosreport.FetchResult
	err := c.do(ctx, http.MethodPost, "/v1/sosreports/fetch", req, &res)
	return res, err
}

func (c *Client) Recent(ctx context.Context, host string, limit int) ([]audit.Record, error) {
	path := "/v1/history?limit=" + strconv.Itoa(limit)
	if host != "" {
		path += "&host=" + url.QueryEscape(host)
	}
	var recs []audit.Record
	err := c.do(ctx, http.MethodGet, path, nil, &recs)
	return recs, err
}

// Get returns one audit record by ID.
func (c *Client) Get(ctx context.Context, id string) (*audit.Record, error) {
	var rec audit.Record
	if err := c.do(ctx, http.MethodGet, "/v1/history/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
