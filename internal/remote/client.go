package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/saulo-duarte/course-progress-agent/internal/config"
	"github.com/saulo-duarte/course-progress-agent/internal/metrics"
	util "github.com/saulo-duarte/course-progress-agent/internal/utils"
)

type Options struct {
	BaseURL       string
	Timeout       time.Duration
	BeaconTimeout time.Duration

	// OAuth, when enabled, wraps the transport with a client-credentials token source.
	OAuth config.OAuthConfig

	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

// Client talks to the course service. It never retries.
type Client struct {
	baseURL       string
	timeout       time.Duration
	beaconTimeout time.Duration
	httpClient    *http.Client
	metrics       *metrics.Metrics

	beacons util.Background
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	beaconTimeout := opts.BeaconTimeout
	if beaconTimeout <= 0 {
		beaconTimeout = 5 * time.Second
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if opts.OAuth.Enabled() {
		cc := clientcredentials.Config{
			ClientID:     opts.OAuth.ClientID,
			ClientSecret: opts.OAuth.ClientSecret,
			TokenURL:     opts.OAuth.TokenURL,
			Scopes:       opts.OAuth.Scopes,
		}
		hc = cc.Client(context.WithValue(context.Background(), oauth2.HTTPClient, hc))
	}

	return &Client{
		baseURL:       baseURL,
		timeout:       timeout,
		beaconTimeout: beaconTimeout,
		httpClient:    hc,
		metrics:       opts.Metrics,
	}, nil
}

func NewFromConfig(cfg *config.Config, m *metrics.Metrics) (*Client, error) {
	return New(Options{
		BaseURL:       cfg.Remote.BaseURL,
		Timeout:       cfg.Remote.Timeout,
		BeaconTimeout: cfg.Remote.BeaconTimeout,
		OAuth:         cfg.Remote.OAuth,
		Metrics:       m,
	})
}

func (c *Client) BaseURL() string { return c.baseURL }

// Drain blocks until every fire-and-forget delivery has finished or ctx ends.
func (c *Client) Drain(ctx context.Context) error {
	return c.beacons.Wait(ctx)
}

// beacon sends body without letting the caller wait. The request outlives the
// caller's context but keeps its values for logging.
func (c *Client) beacon(ctx context.Context, op, path string, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		config.WithContext(ctx).WithError(err).Warn("Beacon payload could not be encoded")
		return
	}
	c.beacons.Go(ctx, op, func(bctx context.Context) error {
		return c.send(bctx, c.beaconTimeout, op, http.MethodPost, path, payload, nil)
	})
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}
	return c.send(ctx, c.timeout, op, method, path, payload, out)
}

func (c *Client) send(ctx context.Context, timeout time.Duration, op, method, path string, payload []byte, out any) (err error) {
	start := time.Now()
	defer func() { c.metrics.ObserveRemote(op, err, time.Since(start)) }()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrNetwork, path, readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseHTTPError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidResponse, path, err)
	}
	return nil
}
