package service

import (
	"context"
	"sync"
	"time"

	"github.com/mohitkumar/autopilot/action"
	"github.com/mohitkumar/autopilot/model"
)

var learnedAt = time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

type fakeActuator struct {
	mu        sync.Mutex
	locateErr error
	performed []action.Action
	// entered is signalled when Locate starts; Locate then waits for gate.
	entered chan struct{}
	gate    chan struct{}
}

func (f *fakeActuator) Locate(ctx context.Context, selector string) (action.Element, error) {
	f.mu.Lock()
	entered, gate, err := f.entered, f.gate, f.locateErr
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return action.Element{}, err
	}
	return action.Element{Selector: selector}, nil
}

func (f *fakeActuator) Perform(ctx context.Context, act action.Action, el action.Element) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.performed = append(f.performed, act)
	return map[string]any{"selector": el.Selector}, nil
}

func (f *fakeActuator) actions() []action.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]action.Action, len(f.performed))
	copy(out, f.performed)
	return out
}

type recordingCollector struct {
	mu        sync.Mutex
	successes []string
	failures  []string
	runs      []string
}

func (r *recordingCollector) RecordExecutionSuccess(p model.AutomationPatternData, result model.ExecutionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, p.Id)
}

func (r *recordingCollector) RecordExecutionFailure(p model.AutomationPatternData, kind string, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, kind)
}

func (r *recordingCollector) RecordWorkflowRun(name string, runId string, result model.WorkflowExecutionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, name)
}

func chatContext(path string) model.ExecutionContext {
	return model.ExecutionContext{
		Url:       "https://chat.example.com" + path,
		Hostname:  "chat.example.com",
		Pathname:  path,
		Timestamp: learnedAt,
	}
}
