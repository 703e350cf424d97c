// Package nms provides a client for the NMS REST API, the upstream source of
// devices, device types, locations and workers.
//
// Each Fetch method issues a single request and validates the response
// before returning it. There are no retries: a failure is returned to the
// caller, which keeps its last-known collection.
package nms

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pilot-net/nms-dashboard/dashboard/internal/config"
	"github.com/pilot-net/nms-dashboard/pkg/types"
	"golang.org/x/time/rate"
)

// API paths, relative to Config.BaseURL.
const (
	PathDevices     = "/devices/all"
	PathDeviceTypes = "/devices/types"
	PathLocations   = "/locations"
	PathWorkers     = "/workers"
)

// maxErrorBody bounds how much of an error response ends up in the error.
const maxErrorBody = 512

// Config holds configuration for the NMS API client.
type Config struct {
	BaseURL   string        // e.g. "https://nms.example.net/api"
	AuthToken string        // Bearer token, sent when non-empty
	Timeout   time.Duration // HTTP timeout (default: config.DefaultHTTPTimeout)
	RateLimit int           // Requests per minute (default: config.DefaultRateLimit)
}

// Client is an NMS REST API client.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	authToken   string
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates a new NMS API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = config.DefaultHTTPTimeout
	}

	rateLimit := cfg.RateLimit
	if rateLimit == 0 {
		rateLimit = config.DefaultRateLimit
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		authToken: cfg.AuthToken,
		// Burst of 4 lets the four collections of one refresh go out together.
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rateLimit)/60.0), 4),
		logger:      logger.With("component", "nms_client"),
	}
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("NMS API %s: status %d: %s", e.Path, e.Code, e.Body)
}

// FetchDevices fetches all devices.
func (c *Client) FetchDevices(ctx context.Context) ([]types.Device, error) {
	body, err := c.get(ctx, PathDevices)
	if err != nil {
		return nil, err
	}
	return DecodeDevices(body)
}

// FetchDeviceTypes fetches all device types.
func (c *Client) FetchDeviceTypes(ctx context.Context) ([]types.DeviceType, error) {
	body, err := c.get(ctx, PathDeviceTypes)
	if err != nil {
		return nil, err
	}
	return DecodeDeviceTypes(body)
}

// FetchLocations fetches all locations.
func (c *Client) FetchLocations(ctx context.Context) ([]types.Location, error) {
	body, err := c.get(ctx, PathLocations)
	if err != nil {
		return nil, err
	}
	return DecodeLocations(body)
}

// FetchWorkers fetches all workers.
func (c *Client) FetchWorkers(ctx context.Context) ([]types.Worker, error) {
	body, err := c.get(ctx, PathWorkers)
	if err != nil {
		return nil, err
	}
	return DecodeWorkers(body)
}

// get makes a GET request to the API and returns the raw body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{Path: path, Code: resp.StatusCode, Body: snippet}
	}

	c.logger.Debug("API response",
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)
	return body, nil
}
