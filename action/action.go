// Package action holds the closed set of actuations a pattern can perform and
// the port through which they reach a live page.
package action

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mohitkumar/autopilot/model"
)

var ErrElementNotFound = errors.New("element not found")
var ErrInvalidPayload = errors.New("invalid payload")

type Element struct {
	Selector   string            `json:"selector"`
	Tag        string            `json:"tag,omitempty"`
	Text       string            `json:"text,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Actuator locates and manipulates page elements. Locate must return an error
// wrapping ErrElementNotFound when nothing matches the selector.
type Actuator interface {
	Locate(ctx context.Context, selector string) (Element, error)
	Perform(ctx context.Context, act Action, el Element) (map[string]any, error)
}

// Action is implemented only by the variants in this package.
type Action interface {
	MessageType() model.MessageType
	isAction()
}

type FillText struct {
	Text string
}

type ClickElement struct{}

type SelectProject struct {
	Project string
}

type SelectChat struct {
	Chat string
}

func (FillText) MessageType() model.MessageType      { return model.FILL_TEXT }
func (ClickElement) MessageType() model.MessageType  { return model.CLICK_ELEMENT }
func (SelectProject) MessageType() model.MessageType { return model.SELECT_PROJECT }
func (SelectChat) MessageType() model.MessageType    { return model.SELECT_CHAT }

func (FillText) isAction()      {}
func (ClickElement) isAction()  {}
func (SelectProject) isAction() {}
func (SelectChat) isAction()    {}

// FromRequest builds the variant for a message type out of a request payload.
func FromRequest(messageType model.MessageType, payload map[string]any) (Action, error) {
	switch messageType {
	case model.FILL_TEXT:
		text, err := stringField(payload, "text", true)
		if err != nil {
			return nil, err
		}
		return FillText{Text: text}, nil
	case model.CLICK_ELEMENT:
		return ClickElement{}, nil
	case model.SELECT_PROJECT:
		project, err := stringField(payload, "project", true)
		if err != nil {
			return nil, err
		}
		return SelectProject{Project: project}, nil
	case model.SELECT_CHAT:
		chat, err := stringField(payload, "chat", true)
		if err != nil {
			return nil, err
		}
		return SelectChat{Chat: chat}, nil
	default:
		return nil, fmt.Errorf("unsupported message type %q", messageType)
	}
}

func stringField(payload map[string]any, key string, required bool) (string, error) {
	v, ok := payload[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("%w: %s is required", ErrInvalidPayload, key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidPayload, key, v)
	}
	if required && strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %s can not be empty", ErrInvalidPayload, key)
	}
	return s, nil
}
