// Package pattern implements the learned automation pattern: its matching,
// reliability model and execution feedback loop.
package pattern

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mohitkumar/autopilot/action"
	"github.com/mohitkumar/autopilot/logger"
	"github.com/mohitkumar/autopilot/matcher"
	"github.com/mohitkumar/autopilot/model"
	"github.com/mohitkumar/autopilot/util"
	"go.uber.org/zap"
)

// MinExecutionConfidence is the hard floor a match must reach before a
// pattern acts on a page.
const MinExecutionConfidence = 0.6

var _ matcher.Pattern = new(AutomationPattern)

type AutomationPattern struct {
	execMu sync.Mutex

	mu                   sync.RWMutex
	id                   string
	messageType          model.MessageType
	payload              map[string]any
	selector             string
	context              model.ExecutionContext
	confidence           Confidence
	usageCount           int
	successfulExecutions int
	history              history
	lastExecutedAt       *time.Time

	clock util.Clock
}

type Option func(*AutomationPattern)

func WithClock(clock util.Clock) Option {
	return func(p *AutomationPattern) {
		p.clock = clock
	}
}

func New(data model.AutomationPatternData, opts ...Option) *AutomationPattern {
	p := &AutomationPattern{
		id:                   data.Id,
		messageType:          data.MessageType,
		payload:              data.Payload,
		selector:             data.Selector,
		context:              data.Context,
		confidence:           Confidence(data.Confidence).clamp(),
		usageCount:           data.UsageCount,
		successfulExecutions: data.SuccessfulExecutions,
		lastExecutedAt:       data.LastExecutedAt,
		clock:                util.SystemClock,
	}
	for _, h := range data.History {
		p.history.push(h)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Learn creates a never-executed pattern from a demonstrated request.
func Learn(id string, req model.AutomationRequest, selector string, opts ...Option) *AutomationPattern {
	return New(model.AutomationPatternData{
		Id:          id,
		MessageType: req.MessageType,
		Payload:     req.Payload,
		Selector:    selector,
		Context:     req.Context,
		Confidence:  float64(InitialConfidence),
	}, opts...)
}

func (p *AutomationPattern) Id() string {
	return p.id
}

func (p *AutomationPattern) MessageType() model.MessageType {
	return p.messageType
}

func (p *AutomationPattern) Payload() map[string]any {
	return p.payload
}

func (p *AutomationPattern) Selector() string {
	return p.selector
}

func (p *AutomationPattern) Context() model.ExecutionContext {
	return p.context
}

func (p *AutomationPattern) Confidence() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return float64(p.confidence)
}

func (p *AutomationPattern) UsageCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.usageCount
}

// Data returns a snapshot suitable for persistence.
func (p *AutomationPattern) Data() model.AutomationPatternData {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return model.AutomationPatternData{
		Id:                   p.id,
		MessageType:          p.messageType,
		Payload:              p.payload,
		Selector:             p.selector,
		Context:              p.context,
		Confidence:           float64(p.confidence),
		UsageCount:           p.usageCount,
		SuccessfulExecutions: p.successfulExecutions,
		History:              p.history.all(),
		LastExecutedAt:       p.lastExecutedAt,
	}
}

func (p *AutomationPattern) EvaluateMatch(req model.AutomationRequest) model.PatternMatchingCriteria {
	return matcher.EvaluateMatch(p, req, p.clock.Now())
}

type MatchedEvent struct {
	Request    model.AutomationRequest
	Confidence float64
}

// ExecutePattern validates the match, drives the actuator and folds the
// outcome into the pattern's statistics. Rejections before the actuator is
// called leave the statistics untouched.
func (p *AutomationPattern) ExecutePattern(ctx context.Context, actuator action.Actuator, ev MatchedEvent) (*model.ExecutionResult, error) {
	p.execMu.Lock()
	defer p.execMu.Unlock()

	if !p.IsValidForContext(ev.Request.Context) {
		return nil, &ExecutionError{PatternId: p.id, Kind: KIND_CONTEXT_INVALID, Reason: "context validation failed"}
	}
	if ev.Confidence < MinExecutionConfidence {
		return nil, &ExecutionError{
			PatternId: p.id,
			Kind:      KIND_CONFIDENCE_TOO_LOW,
			Reason:    fmt.Sprintf("confidence too low: %.2f < %.2f", ev.Confidence, MinExecutionConfidence),
		}
	}

	data, execErr := p.actuate(ctx, actuator, ev.Request)
	result := p.record(data, execErr)

	if execErr != nil {
		logger.Warn("pattern execution failed", zap.String("pattern", p.id), zap.String("kind", string(execErr.Kind)), zap.Error(execErr.Cause))
		return nil, execErr
	}
	logger.Debug("pattern executed", zap.String("pattern", p.id), zap.String("messageType", string(p.messageType)))
	return &result, nil
}

func (p *AutomationPattern) actuate(ctx context.Context, actuator action.Actuator, req model.AutomationRequest) (map[string]any, *ExecutionError) {
	act, err := action.FromRequest(p.messageType, mergePayload(p.payload, req.Payload))
	if err != nil {
		return nil, p.failure(KIND_ACTION_FAILED, "can not build action", err)
	}
	el, err := actuator.Locate(ctx, p.selector)
	if err != nil {
		return nil, p.actuatorFailure("locate "+p.selector, err)
	}
	data, err := actuator.Perform(ctx, act, el)
	if err != nil {
		return nil, p.actuatorFailure("perform "+string(p.messageType), err)
	}
	return data, nil
}

func (p *AutomationPattern) actuatorFailure(step string, err error) *ExecutionError {
	if errors.Is(err, action.ErrElementNotFound) {
		return p.failure(KIND_ELEMENT_NOT_FOUND, step, err)
	}
	return p.failure(KIND_ACTION_FAILED, step, err)
}

func (p *AutomationPattern) failure(kind FailureKind, step string, err error) *ExecutionError {
	return &ExecutionError{
		PatternId: p.id,
		Kind:      kind,
		Reason:    fmt.Sprintf("%s: %v", step, err),
		Cause:     err,
	}
}

// record applies one actuation outcome: counters, confidence and history.
func (p *AutomationPattern) record(data map[string]any, execErr *ExecutionError) model.ExecutionResult {
	now := p.clock.Now()
	result := model.ExecutionResult{
		Success:   execErr == nil,
		Data:      data,
		Timestamp: now,
	}
	if execErr != nil {
		result.Error = execErr.Reason
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.usageCount++
	if result.Success {
		p.successfulExecutions++
	}
	p.confidence = p.confidence.Apply(result.Success)
	p.history.push(result)
	p.lastExecutedAt = &now
	return result
}

func mergePayload(stored, requested map[string]any) map[string]any {
	out := make(map[string]any, len(stored)+len(requested))
	for k, v := range stored {
		out[k] = v
	}
	for k, v := range requested {
		out[k] = v
	}
	return out
}
