package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mohitkumar/autopilot/action"
	"github.com/mohitkumar/autopilot/analytics"
	"github.com/mohitkumar/autopilot/logger"
	"github.com/mohitkumar/autopilot/matcher"
	"github.com/mohitkumar/autopilot/model"
	"github.com/mohitkumar/autopilot/pattern"
	"github.com/mohitkumar/autopilot/persistence"
	"github.com/mohitkumar/autopilot/util"
	"github.com/mohitkumar/autopilot/workflow"
	"go.uber.org/zap"
)

var ErrInvalidLearnRequest = errors.New("invalid learn request")

var _ workflow.PatternRunner = new(PatternService)

// LearnRequest is a demonstrated user action on a page.
type LearnRequest struct {
	MessageType     model.MessageType `json:"messageType"`
	Payload         map[string]any    `json:"payload"`
	Selector        string            `json:"selector"`
	Url             string            `json:"url"`
	Title           string            `json:"title"`
	PageFingerprint string            `json:"pageFingerprint,omitempty"`
	PageOutline     []string          `json:"pageOutline,omitempty"`
}

type PatternExecution struct {
	PatternId string                        `json:"patternId"`
	Criteria  model.PatternMatchingCriteria `json:"criteria"`
	Result    *model.ExecutionResult        `json:"result,omitempty"`
}

type ReliabilityReport struct {
	Id                string                 `json:"id"`
	Level             model.ReliabilityLevel `json:"level"`
	Score             float64                `json:"score"`
	SuccessRate       float64                `json:"successRate"`
	Confidence        float64                `json:"confidence"`
	UsageCount        int                    `json:"usageCount"`
	ShouldBeRetrained bool                   `json:"shouldBeRetrained"`
}

type SweepReport struct {
	Checked int      `json:"checked"`
	Flagged []string `json:"flagged"`
	Pruned  []string `json:"pruned"`
}

type PatternService struct {
	store     persistence.PatternStore
	actuator  action.Actuator
	collector analytics.PatternDataCollector
	clock     util.Clock
	locks     sync.Map
}

func NewPatternService(store persistence.PatternStore, actuator action.Actuator, collector analytics.PatternDataCollector, clock util.Clock) *PatternService {
	if collector == nil {
		collector = analytics.NoopDataCollector{}
	}
	if clock == nil {
		clock = util.SystemClock
	}
	return &PatternService{
		store:     store,
		actuator:  actuator,
		collector: collector,
		clock:     clock,
	}
}

func (s *PatternService) lockFor(id string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *PatternService) Learn(req LearnRequest) (*pattern.AutomationPattern, error) {
	if !req.MessageType.Valid() {
		return nil, fmt.Errorf("%w: unknown message type %q", ErrInvalidLearnRequest, req.MessageType)
	}
	if req.Selector == "" {
		return nil, fmt.Errorf("%w: selector can not be empty", ErrInvalidLearnRequest)
	}
	if _, err := action.FromRequest(req.MessageType, req.Payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLearnRequest, err)
	}
	fingerprint := req.PageFingerprint
	if fingerprint == "" && len(req.PageOutline) > 0 {
		fingerprint = util.Fingerprint(req.PageOutline)
	}
	execCtx, err := model.NewExecutionContext(req.Url, req.Title, fingerprint, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLearnRequest, err)
	}

	p := pattern.Learn(uuid.New().String(), model.AutomationRequest{
		MessageType: req.MessageType,
		Payload:     req.Payload,
		Context:     execCtx,
	}, req.Selector, pattern.WithClock(s.clock))
	if err := s.store.Save(p.Data()); err != nil {
		logger.Error("error saving learned pattern", zap.String("pattern", p.Id()), zap.Error(err))
		return nil, err
	}
	logger.Info("pattern learned", zap.String("pattern", p.Id()), zap.String("messageType", string(p.MessageType())), zap.String("host", execCtx.Hostname))
	return p, nil
}

func (s *PatternService) Get(id string) (*pattern.AutomationPattern, error) {
	data, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", pattern.ErrPatternNotFound, id)
		}
		return nil, err
	}
	return pattern.New(*data, pattern.WithClock(s.clock)), nil
}

// Delete waits for a running execution of the pattern so the execution can
// not save it back afterwards.
func (s *PatternService) Delete(id string) error {
	mu := s.lockFor(id)
	mu.Lock()
	err := s.delete(id)
	mu.Unlock()
	if err != nil {
		return err
	}
	s.locks.Delete(id)
	return nil
}

func (s *PatternService) delete(id string) error {
	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return fmt.Errorf("%w: %s", pattern.ErrPatternNotFound, id)
		}
		return err
	}
	return nil
}

// pruneIfUnreliable deletes the pattern when its current stored state still
// needs retraining and is unreliable.
func (s *PatternService) pruneIfUnreliable(id string) (bool, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	p, err := s.Get(id)
	if err != nil {
		if errors.Is(err, pattern.ErrPatternNotFound) {
			return false, nil
		}
		return false, err
	}
	if !p.ShouldBeRetrained() || p.ReliabilityLevel() != model.RELIABILITY_UNRELIABLE {
		return false, nil
	}
	if err := s.delete(id); err != nil {
		if errors.Is(err, pattern.ErrPatternNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *PatternService) Reliability(id string) (*ReliabilityReport, error) {
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return &ReliabilityReport{
		Id:                p.Id(),
		Level:             p.ReliabilityLevel(),
		Score:             p.ReliabilityScore(),
		SuccessRate:       p.SuccessRate(),
		Confidence:        p.Confidence(),
		UsageCount:        p.UsageCount(),
		ShouldBeRetrained: p.ShouldBeRetrained(),
	}, nil
}

func (s *PatternService) normalize(req model.AutomationRequest) (model.AutomationRequest, error) {
	execCtx, err := req.Context.Normalize(s.clock.Now())
	if err != nil {
		return req, err
	}
	req.Context = execCtx
	return req, nil
}

// Match returns the good matches for req among the patterns learned on the
// same host, best first.
func (s *PatternService) Match(req model.AutomationRequest) ([]matcher.Candidate, error) {
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.LoadAll(persistence.PatternFilter{
		Hostname:    req.Context.Hostname,
		MessageType: req.MessageType,
	})
	if err != nil {
		return nil, err
	}
	patterns := make([]*pattern.AutomationPattern, 0, len(stored))
	for _, data := range stored {
		patterns = append(patterns, pattern.New(data, pattern.WithClock(s.clock)))
	}
	return matcher.Rank(patterns, req, s.clock.Now()), nil
}

func (s *PatternService) FindBestMatch(req model.AutomationRequest) (*matcher.Candidate, error) {
	candidates, err := s.Match(req)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, pattern.ErrNoMatchingPattern
	}
	return &candidates[0], nil
}

// Execute runs the best matching pattern for req.
func (s *PatternService) Execute(ctx context.Context, req model.AutomationRequest) (*PatternExecution, error) {
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	best, err := s.FindBestMatch(req)
	if err != nil {
		return nil, err
	}
	out := &PatternExecution{
		PatternId: best.Pattern.Id(),
		Criteria:  best.Criteria,
	}
	out.Result, err = s.execute(ctx, best.Pattern.Id(), func(p *pattern.AutomationPattern) pattern.MatchedEvent {
		return pattern.MatchedEvent{Request: req, Confidence: best.Criteria.OverallScore}
	})
	return out, err
}

// RunPattern executes a pattern by id for a workflow phase. Payload templates
// are resolved against the workflow data.
func (s *PatternService) RunPattern(ctx context.Context, patternId string, data map[string]any, execCtx model.ExecutionContext) (*model.ExecutionResult, error) {
	execCtx, err := execCtx.Normalize(s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, patternId, func(p *pattern.AutomationPattern) pattern.MatchedEvent {
		criteria := p.EvaluateMatch(model.AutomationRequest{
			MessageType: p.MessageType(),
			Payload:     p.Payload(),
			Context:     execCtx,
		})
		return pattern.MatchedEvent{
			Request: model.AutomationRequest{
				MessageType: p.MessageType(),
				Payload:     util.ResolvePayload(data, p.Payload()),
				Context:     execCtx,
			},
			Confidence: criteria.OverallScore,
		}
	})
}

func (s *PatternService) execute(ctx context.Context, id string, event func(p *pattern.AutomationPattern) pattern.MatchedEvent) (*model.ExecutionResult, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	result, execErr := p.ExecutePattern(ctx, s.actuator, event(p))
	if execErr != nil {
		typed, ok := pattern.AsExecutionError(execErr)
		if !ok {
			return nil, execErr
		}
		if typed.Executed() {
			if err := s.store.Save(p.Data()); err != nil {
				return nil, fmt.Errorf("saving pattern %s: %w", id, err)
			}
		}
		s.collector.RecordExecutionFailure(p.Data(), string(typed.Kind), typed.Reason)
		return nil, execErr
	}
	if err := s.store.Save(p.Data()); err != nil {
		return nil, fmt.Errorf("saving pattern %s: %w", id, err)
	}
	s.collector.RecordExecutionSuccess(p.Data(), *result)
	return result, nil
}

// Sweep checks every stored pattern and flags those that need retraining.
// With prune set, flagged patterns that are also unreliable are deleted.
func (s *PatternService) Sweep(prune bool) (*SweepReport, error) {
	stored, err := s.store.LoadAll(persistence.PatternFilter{})
	if err != nil {
		return nil, err
	}
	report := &SweepReport{Flagged: []string{}, Pruned: []string{}}
	for _, data := range stored {
		report.Checked++
		p := pattern.New(data, pattern.WithClock(s.clock))
		if !p.ShouldBeRetrained() {
			continue
		}
		level := p.ReliabilityLevel()
		report.Flagged = append(report.Flagged, p.Id())
		logger.Warn("pattern should be retrained", zap.String("pattern", p.Id()), zap.String("host", p.Context().Hostname), zap.String("reliability", string(level)), zap.Float64("successRate", p.SuccessRate()))
		if prune && level == model.RELIABILITY_UNRELIABLE {
			pruned, err := s.pruneIfUnreliable(p.Id())
			if err != nil {
				return report, err
			}
			if pruned {
				s.locks.Delete(p.Id())
				report.Pruned = append(report.Pruned, p.Id())
				logger.Info("unreliable pattern pruned", zap.String("pattern", p.Id()))
			}
		}
	}
	return report, nil
}
