package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-uuid"
	"github.com/nagyist/d2/pkg/config"
)

const (
	DefaultTimeout = 30 * time.Second

	requestIDHeader = "X-Request-ID"
)

type Options struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
	// RetryCount is zero by default; the model layer never retries on its own.
	RetryCount int
}

// RestyGateway is a Gateway backed by a resty client.
type RestyGateway struct {
	client *resty.Client
}

func NewRestyGateway(opts Options) *RestyGateway {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetHeader("Accept", "application/json")

	if opts.Username != "" {
		client.SetBasicAuth(opts.Username, opts.Password)
	}

	return &RestyGateway{client: client}
}

// NewRestyGatewayFromConfig reads the connection settings from c.
func NewRestyGatewayFromConfig(c config.Configer) *RestyGateway {
	return NewRestyGateway(Options{
		BaseURL:    c.MustGetKey(config.BaseURLKey),
		Username:   c.GetKey(config.UsernameKey),
		Password:   c.GetKey(config.PasswordKey),
		Timeout:    c.GetDurationKeyWithDefault(config.TimeoutKey, DefaultTimeout),
		RetryCount: c.GetIntKeyWithDefault(config.RetryCountKey, 0),
	})
}

func (g *RestyGateway) Get(ctx context.Context, path string, params Params) (map[string]any, error) {
	req, entry := g.newRequest(ctx, http.MethodGet, path)
	req.SetQueryParamsFromValues(params.Values())
	return g.execute(entry, req, func(r *resty.Request) (*resty.Response, error) { return r.Get(path) })
}

func (g *RestyGateway) Post(ctx context.Context, path string, body any) (map[string]any, error) {
	req, entry := g.newRequest(ctx, http.MethodPost, path)
	req.SetBody(body)
	return g.execute(entry, req, func(r *resty.Request) (*resty.Response, error) { return r.Post(path) })
}

// Update sends body with PUT, which the API uses for full updates.
func (g *RestyGateway) Update(ctx context.Context, path string, body any) (map[string]any, error) {
	req, entry := g.newRequest(ctx, http.MethodPut, path)
	req.SetBody(body)
	return g.execute(entry, req, func(r *resty.Request) (*resty.Response, error) { return r.Put(path) })
}

func (g *RestyGateway) Delete(ctx context.Context, path string) error {
	req, entry := g.newRequest(ctx, http.MethodDelete, path)
	_, err := g.execute(entry, req, func(r *resty.Request) (*resty.Response, error) { return r.Delete(path) })
	return err
}

func (g *RestyGateway) newRequest(ctx context.Context, method, path string) (*resty.Request, *log.Entry) {
	req := g.client.R().SetContext(ctx)
	fields := log.Fields{"method": method, "path": path}

	if requestID, err := uuid.GenerateUUID(); err == nil {
		req.SetHeader(requestIDHeader, requestID)
		fields["request_id"] = requestID
	}

	return req, log.WithFields(fields)
}

func (g *RestyGateway) execute(entry *log.Entry, req *resty.Request, send func(*resty.Request) (*resty.Response, error)) (map[string]any, error) {
	entry.Debug("api request")
	resp, err := send(req)
	if err != nil {
		entry.WithError(err).Warn("api request failed")
		return nil, err
	}

	if resp.IsError() {
		respErr := ToErrorFromResponse(resp)
		entry.WithField("status", resp.StatusCode()).Warnf("api error: %s", respErr.Message)
		return nil, respErr
	}

	entry.WithField("status", resp.StatusCode()).WithField("duration", resp.Time()).Debug("api response")
	return decodeBody(resp.Body())
}

// decodeBody decodes a JSON object body. Empty bodies (204, most deletes) decode to
// a nil map.
func decodeBody(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.Join(ErrAPI, fmt.Errorf("unable to parse json response: %w", err))
	}

	return result, nil
}
