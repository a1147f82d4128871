package persistence

import (
	"errors"
	"fmt"

	"github.com/mohitkumar/autopilot/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

var ErrNotFound = errors.New("not found")

// PatternFilter narrows LoadAll. Empty fields match everything.
type PatternFilter struct {
	Hostname    string
	MessageType model.MessageType
}

func (f PatternFilter) Matches(p model.AutomationPatternData) bool {
	if f.Hostname != "" && f.Hostname != p.Context.Hostname {
		return false
	}
	if f.MessageType != "" && f.MessageType != p.MessageType {
		return false
	}
	return true
}

type PatternStore interface {
	Save(p model.AutomationPatternData) error

	Get(id string) (*model.AutomationPatternData, error)

	LoadAll(filter PatternFilter) ([]model.AutomationPatternData, error)

	Delete(id string) error
}

type WorkflowStore interface {
	Save(def model.WorkflowDefinition) error

	Get(name string) (*model.WorkflowDefinition, error)

	Delete(name string) error
}
