// Package workflow builds validated phase graphs out of workflow definitions
// and runs them against the pattern layer.
package workflow

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mohitkumar/autopilot/model"
)

var (
	ErrInvalidDefinition = errors.New("invalid workflow definition")
	ErrCyclicDependency  = errors.New("cyclic phase dependency")
)

// ValidationError reports why a definition was rejected by Build.
type ValidationError struct {
	Workflow string
	Phase    string
	Reason   string
	Err      error
}

func (e *ValidationError) Error() string {
	if e.Phase == "" {
		return fmt.Sprintf("workflow %s: %s", e.Workflow, e.Reason)
	}
	return fmt.Sprintf("workflow %s, phase %s: %s", e.Workflow, e.Phase, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Workflow is a validated, order-sorted phase graph. It is immutable once built.
type Workflow struct {
	name        string
	description string
	phases      []model.WorkflowPhase
	index       map[string]int
	parallel    model.ParallelExecution
}

func (w *Workflow) Name() string {
	return w.name
}

// Phases returns the phases in execution order.
func (w *Workflow) Phases() []model.WorkflowPhase {
	out := make([]model.WorkflowPhase, len(w.phases))
	copy(out, w.phases)
	return out
}

func (w *Workflow) Phase(id string) (model.WorkflowPhase, bool) {
	i, ok := w.index[id]
	if !ok {
		return model.WorkflowPhase{}, false
	}
	return w.phases[i], true
}

func (w *Workflow) Definition() model.WorkflowDefinition {
	return model.WorkflowDefinition{
		Name:              w.name,
		Description:       w.description,
		Phases:            w.Phases(),
		ParallelExecution: w.parallel,
	}
}

func Build(def model.WorkflowDefinition) (*Workflow, error) {
	invalid := func(phase string, format string, args ...any) error {
		return &ValidationError{Workflow: def.Name, Phase: phase, Reason: fmt.Sprintf(format, args...), Err: ErrInvalidDefinition}
	}
	if def.Name == "" {
		return nil, invalid("", "name can not be empty")
	}
	if len(def.Phases) == 0 {
		return nil, invalid("", "workflow should have at least one phase")
	}

	phases := make([]model.WorkflowPhase, len(def.Phases))
	copy(phases, def.Phases)
	sort.SliceStable(phases, func(i, j int) bool {
		return phases[i].Order < phases[j].Order
	})

	index := make(map[string]int, len(phases))
	for i, phase := range phases {
		if phase.Id == "" {
			return nil, invalid("", "phase at order %d has no id", phase.Order)
		}
		if phase.Id == InputKey {
			return nil, invalid(phase.Id, "phase id %s is reserved for the run input", InputKey)
		}
		if _, ok := index[phase.Id]; ok {
			return nil, invalid(phase.Id, "duplicate phase id")
		}
		index[phase.Id] = i
	}

	for _, phase := range phases {
		for _, dep := range phase.Dependencies {
			if _, ok := index[dep]; !ok {
				return nil, invalid(phase.Id, "unknown dependency %s", dep)
			}
		}
		for _, cond := range phase.ConditionalExecution {
			if cond.Condition == "" {
				return nil, invalid(phase.Id, "condition can not be empty")
			}
			if !cond.TrueAction.Valid() || !cond.FalseAction.Valid() {
				return nil, invalid(phase.Id, "unknown phase action in condition %q", cond.Condition)
			}
			if cond.TargetPhase != "" {
				if _, ok := index[cond.TargetPhase]; !ok {
					return nil, invalid(phase.Id, "unknown target phase %s", cond.TargetPhase)
				}
			}
		}
	}

	if phase, found := findCycle(phases, index); found {
		return nil, &ValidationError{
			Workflow: def.Name,
			Phase:    phase,
			Reason:   "dependency cycle detected",
			Err:      ErrCyclicDependency,
		}
	}

	return &Workflow{
		name:        def.Name,
		description: def.Description,
		phases:      phases,
		index:       index,
		parallel:    def.ParallelExecution,
	}, nil
}

const (
	white = iota
	gray
	black
)

// findCycle walks the dependency edges depth first from every phase and
// returns the phase holding the first back edge.
func findCycle(phases []model.WorkflowPhase, index map[string]int) (string, bool) {
	color := make([]int, len(phases))
	var visit func(i int) (string, bool)
	visit = func(i int) (string, bool) {
		color[i] = gray
		for _, dep := range phases[i].Dependencies {
			j := index[dep]
			switch color[j] {
			case gray:
				return phases[i].Id, true
			case white:
				if phase, found := visit(j); found {
					return phase, true
				}
			}
		}
		color[i] = black
		return "", false
	}
	for i := range phases {
		if color[i] == white {
			if phase, found := visit(i); found {
				return phase, true
			}
		}
	}
	return "", false
}
