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
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/univ-archive/pkg/config"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8080"

// Config is injected into every Client.
type Config struct {
	BaseURL    string
	APIPrefix  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// ConfigFrom maps application configuration to a client Config.
func ConfigFrom(cfg config.ClientConfig, logger *zap.Logger) Config {
	return Config{BaseURL: cfg.BaseURL, Timeout: cfg.Timeout, Logger: logger}
}

// Client talks to the archive REST API.
type Client struct {
	baseURL string
	prefix  string
	http    *http.Client
	logger  *zap.Logger

	mu    sync.RWMutex
	token string
}

// New builds a client from cfg.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		prefix:  "/" + strings.Trim(cfg.APIPrefix, "/"),
		http:    cfg.HTTPClient,
		logger:  cfg.Logger,
	}
}

// BaseURL returns the API origin.
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken stores the admin session token sent on subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current admin session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// URL resolves an API path such as "/files/x/view" to an absolute URL.
func (c *Client) URL(path string) string {
	return c.baseURL + c.prefix + "/" + strings.TrimLeft(path, "/")
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// send performs a request and returns the response on 2xx. Non-2xx responses are
// turned into RequestErrors and their bodies closed.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return nil, &RequestError{Kind: KindNetwork, Message: "Requête invalide : " + err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, transportError(err)
	}
	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return res, nil
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	var env envelope
	if json.Unmarshal(raw, &env) != nil {
		return nil, httpError(res.StatusCode, "", "")
	}
	reqErr := httpError(res.StatusCode, "", "")
	if env.Error != nil {
		reqErr = httpError(res.StatusCode, env.Error.Code, env.Error.Message)
	}
	if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		reqErr.Data = env.Data
	}
	return nil, reqErr
}

// call performs a request and decodes the data field of the response envelope into out.
func (c *Client) call(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	res, err := c.send(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if out == nil || res.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return transportError(ctxErr)
		}
		return decodeError(err)
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return decodeError(fmt.Errorf("missing data field"))
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return decodeError(err)
	}
	return nil
}

func (c *Client) callJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return decodeError(err)
	}
	return c.call(ctx, method, path, bytes.NewReader(raw), "application/json", out)
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
