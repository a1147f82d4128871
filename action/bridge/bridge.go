// Package bridge implements action.Actuator by calling the browser extension's
// local HTTP bridge.
package bridge

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

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/mohitkumar/autopilot/action"
	"github.com/mohitkumar/autopilot/logger"
	"go.uber.org/zap"
)

type Config struct {
	BaseUrl       string
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration
}

var _ action.Actuator = new(Actuator)

type Actuator struct {
	conf   Config
	client *http.Client
}

func New(conf Config) *Actuator {
	if conf.Timeout <= 0 {
		conf.Timeout = 10 * time.Second
	}
	if conf.RetryInterval <= 0 {
		conf.RetryInterval = 200 * time.Millisecond
	}
	return &Actuator{
		conf:   conf,
		client: &http.Client{Timeout: conf.Timeout},
	}
}

type locateRequest struct {
	Selector string `json:"selector"`
}

type performRequest struct {
	Command action.Command `json:"command"`
	Element action.Element `json:"element"`
}

type performResponse struct {
	Data map[string]any `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// elementNotFoundCode is the error the bridge answers a 404 with when the
// selector resolves to nothing. Any other 404 is a misrouted call.
const elementNotFoundCode = "element_not_found"

type statusError struct {
	path    string
	status  int
	message string
}

func (e *statusError) Error() string {
	if e.status >= 500 {
		return fmt.Sprintf("bridge %s returned %d: %s", e.path, e.status, e.message)
	}
	return fmt.Sprintf("bridge %s rejected request with %d: %s", e.path, e.status, e.message)
}

func isElementNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == http.StatusNotFound && se.message == elementNotFoundCode
}

func (a *Actuator) Locate(ctx context.Context, selector string) (action.Element, error) {
	var el action.Element
	err := a.call(ctx, "/locate", locateRequest{Selector: selector}, &el)
	if isElementNotFound(err) {
		return action.Element{}, fmt.Errorf("%w: %s", action.ErrElementNotFound, selector)
	}
	if err != nil {
		return action.Element{}, err
	}
	if el.Selector == "" {
		el.Selector = selector
	}
	return el, nil
}

func (a *Actuator) Perform(ctx context.Context, act action.Action, el action.Element) (map[string]any, error) {
	cmd, err := action.ToCommand(act, el)
	if err != nil {
		return nil, err
	}
	var res performResponse
	err = a.call(ctx, "/perform", performRequest{Command: cmd, Element: el}, &res)
	if isElementNotFound(err) {
		return nil, fmt.Errorf("%w: %s", action.ErrElementNotFound, el.Selector)
	}
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// call posts body to the bridge, retrying transport errors and 5xx answers.
// Error statuses come back as *statusError.
func (a *Actuator) call(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := strings.TrimSuffix(a.conf.BaseUrl, "/") + path
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(a.conf.RetryInterval), uint64(a.conf.MaxRetries)), ctx)
	return backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := a.client.Do(req)
		if err != nil {
			logger.Warn("bridge call failed", zap.String("url", url), zap.Error(err))
			return err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		switch status := resp.StatusCode; {
		case status >= 500:
			return &statusError{path: path, status: status, message: bridgeError(data)}
		case status >= 400:
			return backoff.Permanent(&statusError{path: path, status: status, message: bridgeError(data)})
		}
		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return backoff.Permanent(fmt.Errorf("invalid bridge response: %w", err))
		}
		return nil
	}, b)
}

func bridgeError(data []byte) string {
	var e errorResponse
	if err := json.Unmarshal(data, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(data))
}
