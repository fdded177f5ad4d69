// Package slackapi is a small client for the Slack Web API. Every call is
// checked against a per-endpoint table of required and optional arguments,
// sent as a form-encoded POST and decoded from JSON.
package slackapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/ffaiyaz23/botonomous/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is where endpoint names are appended.
	DefaultBaseURL = "https://slack.com/api/"
	contentType    = "application/x-www-form-urlencoded"
)

var tracer = otel.Tracer("botonomous/slackapi")

// Arguments are the fields sent to an endpoint.
type Arguments map[string]any

// ConfigGetter supplies the bot settings merged into every call.
type ConfigGetter interface {
	Get(key string) (string, error)
}

// HTTPClient represents the functionality we need from an *http.Client, or
// similar.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client calls Slack Web API endpoints on behalf of one bot token.
type Client struct {
	cfg     ConfigGetter
	httpc   HTTPClient
	baseURL string

	mu            sync.Mutex
	token         string
	tokenResolved bool
	schema        Schema
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bot token up front instead of resolving it from config.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
		c.tokenResolved = true
	}
}

// WithHTTPClient replaces the default instrumented transport.
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) { c.httpc = h }
}

// WithBaseURL points the client at another API root, e.g. a mock server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		c.baseURL = u
	}
}

// WithSchema replaces the built-in endpoint table.
func WithSchema(s Schema) Option {
	return func(c *Client) { c.schema = s.Clone() }
}

// New returns a client reading its defaults from cfg.
func New(cfg ConfigGetter, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		httpc:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		baseURL: DefaultBaseURL,
		schema:  DefaultSchema(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the bot token. When none was set, it is read from config
// once and kept; later config changes are not seen by this client.
func (c *Client) Token() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tokenResolved {
		return c.token, nil
	}
	if c.token == "" {
		tok, err := c.cfg.Get(config.KeyBotUserToken)
		if err != nil {
			return "", err
		}
		c.token = tok
	}
	c.tokenResolved = true
	return c.token, nil
}

// SetToken overrides the token, including one previously resolved from config.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.tokenResolved = true
	c.mu.Unlock()
}

// DefaultArguments returns the fields merged into every call: token,
// username, as_user and icon_url. Settings that resolve empty are left out.
func (c *Client) DefaultArguments() (Arguments, error) {
	tok, err := c.Token()
	if err != nil {
		return nil, err
	}
	args := Arguments{}
	if tok != "" {
		args["token"] = tok
	}
	for field, key := range map[string]string{
		"username": config.KeyBotUsername,
		"as_user":  config.KeyAsUser,
		"icon_url": config.KeyIconURL,
	} {
		val, err := c.cfg.Get(key)
		if err != nil {
			return nil, err
		}
		if val != "" {
			args[field] = val
		}
	}
	return args, nil
}

// EndpointSchemas returns a copy of the whole endpoint table.
func (c *Client) EndpointSchemas() Schema {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schema.Clone()
}

// EndpointSchema returns the entry for endpoint, and false when the endpoint
// is not in the table.
func (c *Client) EndpointSchema(endpoint string) (EndpointSchema, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	es, ok := c.schema[endpoint]
	if !ok {
		return EndpointSchema{}, false
	}
	return EndpointSchema{
		Required: append([]string(nil), es.Required...),
		Optional: append([]string(nil), es.Optional...),
	}, true
}

// SetEndpointSchemas replaces the endpoint table wholesale.
func (c *Client) SetEndpointSchemas(s Schema) {
	c.mu.Lock()
	c.schema = s.Clone()
	c.mu.Unlock()
}

// FilterArguments keeps only the arguments the endpoint declares. Arguments
// for an endpoint that is not in the table pass through unchanged.
func (c *Client) FilterArguments(endpoint string, args Arguments) Arguments {
	es, ok := c.EndpointSchema(endpoint)
	if !ok {
		return args
	}
	out := Arguments{}
	for _, field := range es.Fields() {
		if val, ok := args[field]; ok {
			out[field] = val
		}
	}
	return out
}

func (c *Client) validate(endpoint string, args Arguments) error {
	es, ok := c.EndpointSchema(endpoint)
	if !ok {
		return nil
	}
	for _, field := range es.Required {
		if val, ok := args[field]; !ok || val == nil {
			return &ValidationError{Endpoint: endpoint, Field: field}
		}
	}
	return nil
}

// prepareBody merges, validates, filters and encodes the arguments.
// Defaults are merged last, so they win over caller arguments with the same key.
func (c *Client) prepareBody(endpoint string, args Arguments) (string, error) {
	defaults, err := c.DefaultArguments()
	if err != nil {
		return "", err
	}
	merged := make(Arguments, len(args)+len(defaults))
	for k, v := range args {
		merged[k] = v
	}
	for k, v := range defaults {
		merged[k] = v
	}

	if err := c.validate(endpoint, merged); err != nil {
		return "", err
	}

	form, err := encodeForm(c.FilterArguments(endpoint, merged))
	if err != nil {
		return "", err
	}
	return form.Encode(), nil
}

// Call sends one request to endpoint and returns the decoded JSON body,
// either a map[string]any or a []any. An "ok": false answer from Slack is
// not an error here; callers interpret the body.
func (c *Client) Call(ctx context.Context, endpoint string, args Arguments) (any, error) {
	ctx, span := tracer.Start(ctx, "slack.api "+endpoint,
		trace.WithAttributes(attribute.String("slack.endpoint", endpoint)),
	)
	defer span.End()

	resp, err := c.call(ctx, endpoint, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		zap.L().Debug("slack api call failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, err
	}
	zap.L().Debug("slack api call", zap.String("endpoint", endpoint))
	return resp, nil
}

func (c *Client) call(ctx context.Context, endpoint string, args Arguments) (any, error) {
	body, err := c.prepareBody(endpoint, args)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(body))
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	hresp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer hresp.Body.Close()

	if hresp.StatusCode >= http.StatusBadRequest {
		return nil, &TransportError{Endpoint: endpoint, StatusCode: hresp.StatusCode}
	}

	raw, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	return decodeResponse(endpoint, raw)
}

func decodeResponse(endpoint string, raw []byte) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, &ResponseDecodeError{Endpoint: endpoint, Body: string(raw), Err: err}
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, nil
	}
	return nil, &ResponseDecodeError{Endpoint: endpoint, Body: string(raw)}
}
