package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohitkumar/autopilot/logger"
	"github.com/mohitkumar/autopilot/model"
	"github.com/mohitkumar/autopilot/pattern"
	"github.com/mohitkumar/autopilot/util"
	"go.uber.org/zap"
)

// InputKey is where the run input lives in the workflow data.
const InputKey = "input"

// PatternRunner executes one pattern by id on behalf of a workflow phase.
// Failures of the pattern itself are reported as *pattern.ExecutionError.
type PatternRunner interface {
	RunPattern(ctx context.Context, patternId string, data map[string]any, execCtx model.ExecutionContext) (*model.ExecutionResult, error)
}

type RunRequest struct {
	Context       model.ExecutionContext
	Input         map[string]any
	ExcludePhases []string
}

type Executor struct {
	runner PatternRunner
	clock  util.Clock
}

func NewExecutor(runner PatternRunner, clock util.Clock) *Executor {
	if clock == nil {
		clock = util.SystemClock
	}
	return &Executor{
		runner: runner,
		clock:  clock,
	}
}

type executionState struct {
	completed    []string
	completedSet map[string]struct{}
	skipped      []string
	data         map[string]any
	errors       []string
	success      bool
}

func (s *executionState) complete(phaseId string) {
	s.completed = append(s.completed, phaseId)
	s.completedSet[phaseId] = struct{}{}
}

func (s *executionState) skip(phaseId string) {
	s.skipped = append(s.skipped, phaseId)
}

func (s *executionState) abort(err error) {
	s.errors = append(s.errors, err.Error())
	s.success = false
}

// Execute runs the phases in a single linear pass. Pattern failures are
// collected into the result errors; any other error aborts the run.
func (e *Executor) Execute(ctx context.Context, wf *Workflow, req RunRequest) model.WorkflowExecutionResult {
	start := e.clock.Now()
	state := &executionState{
		completed:    []string{},
		completedSet: make(map[string]struct{}),
		skipped:      []string{},
		data:         map[string]any{InputKey: req.Input},
		errors:       []string{},
		success:      true,
	}
	excluded := util.ToSet(req.ExcludePhases)

	logger.Info("running workflow", zap.String("workflow", wf.Name()), zap.String("host", req.Context.Hostname))
	for _, phase := range wf.phases {
		if _, ok := excluded[phase.Id]; ok {
			state.skip(phase.Id)
			continue
		}
		if missing, ok := e.unmetDependency(phase, state); !ok {
			logger.Debug("phase dependency not completed, skipping", zap.String("workflow", wf.Name()), zap.String("phase", phase.Id), zap.String("dependency", missing))
			state.skip(phase.Id)
			continue
		}
		run, err := e.checkConditions(ctx, phase, state)
		if err != nil {
			state.abort(err)
			break
		}
		if !run {
			state.skip(phase.Id)
			continue
		}
		if err := e.runPhase(ctx, phase, req.Context, state); err != nil {
			state.abort(err)
			break
		}
		state.complete(phase.Id)
	}

	result := model.WorkflowExecutionResult{
		Success:         state.success,
		ExecutionTime:   e.clock.Now().Sub(start),
		CompletedPhases: state.completed,
		SkippedPhases:   state.skipped,
		Data:            state.data,
		Errors:          state.errors,
	}
	if !result.Success {
		logger.Error("workflow run aborted", zap.String("workflow", wf.Name()), zap.Strings("errors", result.Errors))
	} else {
		logger.Info("workflow run finished", zap.String("workflow", wf.Name()), zap.Int("completed", len(result.CompletedPhases)), zap.Int("errors", len(result.Errors)))
	}
	return result
}

func (e *Executor) unmetDependency(phase model.WorkflowPhase, state *executionState) (string, bool) {
	for _, dep := range phase.Dependencies {
		if _, ok := state.completedSet[dep]; !ok {
			return dep, false
		}
	}
	return "", true
}

// checkConditions applies the phase conditions in order and reports whether
// the phase should run.
func (e *Executor) checkConditions(ctx context.Context, phase model.WorkflowPhase, state *executionState) (bool, error) {
	for _, cond := range phase.ConditionalExecution {
		value, err := evaluateCondition(ctx, cond.Condition, state.data, phase.Id)
		if err != nil {
			return false, fmt.Errorf("phase %s: %w", phase.Id, err)
		}
		act := cond.FalseAction
		if act == "" {
			act = model.PHASE_SKIP
		}
		if value {
			act = cond.TrueAction
			if act == "" {
				act = model.PHASE_CONTINUE
			}
		}
		switch act {
		case model.PHASE_SKIP:
			return false, nil
		case model.PHASE_FAIL:
			return false, fmt.Errorf("phase %s: condition %q failed the workflow", phase.Id, cond.Condition)
		}
	}
	return true, nil
}

func (e *Executor) runPhase(ctx context.Context, phase model.WorkflowPhase, execCtx model.ExecutionContext, state *executionState) error {
	outputs := make(map[string]any, len(phase.PatternIds))
	state.data[phase.Id] = outputs
	for _, patternId := range phase.PatternIds {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("phase %s: %w", phase.Id, err)
		}
		res, err := e.runner.RunPattern(ctx, patternId, state.data, execCtx)
		if err != nil {
			if isPatternFailure(err) {
				state.errors = append(state.errors, fmt.Sprintf("phase %s: %s", phase.Id, err.Error()))
				continue
			}
			return fmt.Errorf("phase %s, pattern %s: %w", phase.Id, patternId, err)
		}
		if res.Data != nil {
			outputs[patternId] = res.Data
		} else {
			outputs[patternId] = map[string]any{}
		}
	}
	return nil
}

func isPatternFailure(err error) bool {
	if _, ok := pattern.AsExecutionError(err); ok {
		return true
	}
	return errors.Is(err, pattern.ErrPatternNotFound)
}
