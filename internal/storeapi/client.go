package storeapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/storefront-admin/internal/domain"
)

// Config holds the settings for the store API client
type Config struct {
	BaseURL string
	Token   string

	// RequestTimeout bounds JSON requests
	RequestTimeout time.Duration

	// StepTimeout bounds each upload attempt. Payloads can be tens of MB, so
	// this is in minutes rather than seconds.
	StepTimeout time.Duration

	// MaxRetries is the number of extra attempts for network-class upload failures
	MaxRetries int

	// RetryBackoff is multiplied by the attempt number between retries
	RetryBackoff time.Duration
}

// DefaultConfig returns the client settings used by the admin console
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		RequestTimeout: 30 * time.Second,
		StepTimeout:    11 * time.Minute,
		MaxRetries:     2,
		RetryBackoff:   2 * time.Second,
	}
}

// Client talks to the external store REST API
type Client struct {
	http *resty.Client
	log  hclog.Logger
	cfg  Config
}

// NewClient creates a store API client
func NewClient(cfg Config, log hclog.Logger) *Client {
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{log})

	if cfg.Token != "" {
		rc.SetAuthToken(cfg.Token)
	}

	return &Client{http: rc, log: log, cfg: cfg}
}

// requestFunc builds a fresh request for one attempt. The returned cleanup
// func releases anything opened for the request body.
type requestFunc func() (*resty.Request, func(), error)

// send executes one logical call, retrying network-class failures up to
// retries extra times with linearly increasing backoff.
func (c *Client) send(
	ctx context.Context,
	op, method, path string,
	timeout time.Duration,
	retries int,
	newRequest requestFunc,
) (*resty.Response, int, error) {
	var lastErr *Error

	for attempt := 1; attempt <= retries+1; attempt++ {
		if attempt > 1 {
			wait := time.Duration(attempt-1) * c.cfg.RetryBackoff
			c.log.Warn("Retrying request",
				"op", op,
				"attempt", attempt,
				"wait", wait,
				"error", lastErr.Message)

			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				lastErr = &Error{Op: op, Kind: domain.FailureCanceled, Message: "request canceled", Err: ctx.Err()}
				lastErr.Attempts = attempt - 1
				return nil, attempt - 1, lastErr
			}
		}

		resp, err := c.attempt(ctx, op, method, path, timeout, newRequest)
		if err == nil {
			return resp, attempt, nil
		}

		err.Attempts = attempt
		lastErr = err
		if !err.Retryable() {
			break
		}
	}

	c.log.Error("Request failed", "op", op, "kind", lastErr.Kind, "attempts", lastErr.Attempts, "error", lastErr.Message)
	return nil, lastErr.Attempts, lastErr
}

func (c *Client) attempt(
	ctx context.Context,
	op, method, path string,
	timeout time.Duration,
	newRequest requestFunc,
) (*resty.Response, *Error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, cleanup, err := newRequest()
	if err != nil {
		return nil, &Error{Op: op, Kind: domain.FailureLocal, Message: fmt.Sprintf("unable to read payload: %v", err), Err: err}
	}
	if cleanup != nil {
		defer cleanup()
	}

	var body errorBody
	resp, err := req.SetContext(attemptCtx).SetError(&body).Execute(method, path)
	if err != nil {
		return nil, classifyTransport(ctx, attemptCtx, op, timeout, err)
	}

	if resp.IsError() {
		return nil, classifyStatus(op, resp, body)
	}

	return resp, nil
}

// classifyTransport maps an error raised before a response arrived
func classifyTransport(parent, attemptCtx context.Context, op string, timeout time.Duration, err error) *Error {
	var netErr net.Error

	switch {
	case parent.Err() != nil:
		return &Error{Op: op, Kind: domain.FailureCanceled, Message: "request canceled", Err: err}
	case errors.Is(attemptCtx.Err(), context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &Error{
			Op:   op,
			Kind: domain.FailureTimeout,
			Message: fmt.Sprintf(
				"took longer than %s; the request may still have succeeded. Check the product list.", timeout),
			Err: err,
		}
	default:
		return &Error{Op: op, Kind: domain.FailureNetwork, Message: err.Error(), Err: err}
	}
}

// classifyStatus maps an HTTP error response from the store API
func classifyStatus(op string, resp *resty.Response, body errorBody) *Error {
	msg := body.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}

	kind := domain.FailureServer
	if resp.StatusCode() == http.StatusRequestEntityTooLarge {
		kind = domain.FailurePayloadTooLarge
	}

	return &Error{Op: op, Kind: kind, StatusCode: resp.StatusCode(), Message: msg}
}

// getJSON issues a GET and decodes the JSON body into out
func (c *Client) getJSON(ctx context.Context, op, path string, out interface{}) error {
	_, _, err := c.send(ctx, op, http.MethodGet, path, c.cfg.RequestTimeout, 0, func() (*resty.Request, func(), error) {
		return c.http.R().SetResult(out), nil, nil
	})
	return err
}

// postJSON issues a POST with a JSON body and decodes the response into out.
// Non-idempotent, so it is never retried.
func (c *Client) postJSON(ctx context.Context, op, path string, in, out interface{}) error {
	_, _, err := c.send(ctx, op, http.MethodPost, path, c.cfg.RequestTimeout, 0, func() (*resty.Request, func(), error) {
		req := c.http.R().SetBody(in)
		if out != nil {
			req.SetResult(out)
		}
		return req, nil, nil
	})
	return err
}

// restyLogger routes resty's internal logging through hclog
type restyLogger struct {
	l hclog.Logger
}

func (r restyLogger) Errorf(format string, v ...interface{}) {
	r.l.Error(fmt.Sprintf(format, v...))
}

func (r restyLogger) Warnf(format string, v ...interface{}) {
	r.l.Warn(fmt.Sprintf(format, v...))
}

func (r restyLogger) Debugf(format string, v ...interface{}) {
	r.l.Debug(fmt.Sprintf(format, v...))
}
