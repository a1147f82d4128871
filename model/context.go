package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var ErrInvalidContext = errors.New("invalid execution context")

type MessageType string

const FILL_TEXT MessageType = "FillText"
const CLICK_ELEMENT MessageType = "ClickElement"
const SELECT_PROJECT MessageType = "SelectProject"
const SELECT_CHAT MessageType = "SelectChat"

var MESSAGE_TYPES = []MessageType{FILL_TEXT, CLICK_ELEMENT, SELECT_PROJECT, SELECT_CHAT}

func (m MessageType) Valid() bool {
	for _, t := range MESSAGE_TYPES {
		if t == m {
			return true
		}
	}
	return false
}

// ExecutionContext describes where an action was recorded or is attempted.
// Timestamp is assigned once at creation.
type ExecutionContext struct {
	Url             string    `json:"url"`
	Hostname        string    `json:"hostname"`
	Pathname        string    `json:"pathname"`
	Title           string    `json:"title"`
	Timestamp       time.Time `json:"timestamp"`
	PageFingerprint string    `json:"pageFingerprint,omitempty"`
}

func NewExecutionContext(rawUrl string, title string, fingerprint string, now time.Time) (ExecutionContext, error) {
	u, err := url.Parse(rawUrl)
	if err != nil {
		return ExecutionContext{}, fmt.Errorf("invalid url %q: %w", rawUrl, err)
	}
	if u.Hostname() == "" {
		return ExecutionContext{}, fmt.Errorf("url %q has no hostname", rawUrl)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return ExecutionContext{
		Url:             rawUrl,
		Hostname:        strings.ToLower(u.Hostname()),
		Pathname:        path,
		Title:           title,
		Timestamp:       now,
		PageFingerprint: fingerprint,
	}, nil
}

// Normalize brings a context received from a client to the shape contexts get
// at creation. The url wins over hostname and pathname when both are sent. A
// zero timestamp is set to now.
func (c ExecutionContext) Normalize(now time.Time) (ExecutionContext, error) {
	ts := c.Timestamp
	if ts.IsZero() {
		ts = now
	}
	if c.Url != "" {
		n, err := NewExecutionContext(c.Url, c.Title, c.PageFingerprint, ts)
		if err != nil {
			return ExecutionContext{}, fmt.Errorf("%w: %v", ErrInvalidContext, err)
		}
		return n, nil
	}
	host := strings.ToLower(strings.TrimSpace(c.Hostname))
	if host == "" {
		return ExecutionContext{}, fmt.Errorf("%w: url or hostname required", ErrInvalidContext)
	}
	path := c.Pathname
	if path == "" {
		path = "/"
	}
	return ExecutionContext{
		Hostname:        host,
		Pathname:        path,
		Title:           c.Title,
		Timestamp:       ts,
		PageFingerprint: c.PageFingerprint,
	}, nil
}

func (c ExecutionContext) HasFingerprint() bool {
	return c.PageFingerprint != ""
}

type AutomationRequest struct {
	MessageType MessageType      `json:"messageType"`
	Payload     map[string]any   `json:"payload"`
	Context     ExecutionContext `json:"context"`
}
