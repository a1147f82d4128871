package model

import "time"

type PhaseAction string

const PHASE_CONTINUE PhaseAction = "continue"
const PHASE_SKIP PhaseAction = "skip"
const PHASE_FAIL PhaseAction = "fail"

func (a PhaseAction) Valid() bool {
	switch a {
	case "", PHASE_CONTINUE, PHASE_SKIP, PHASE_FAIL:
		return true
	}
	return false
}

type PhaseCondition struct {
	Condition   string      `json:"condition"`
	TrueAction  PhaseAction `json:"trueAction,omitempty"`
	FalseAction PhaseAction `json:"falseAction,omitempty"`
	TargetPhase string      `json:"targetPhase,omitempty"`
}

type WorkflowPhase struct {
	Id                   string           `json:"id"`
	Order                int              `json:"order"`
	PatternIds           []string         `json:"patternIds"`
	Dependencies         []string         `json:"dependencies,omitempty"`
	ConditionalExecution []PhaseCondition `json:"conditionalExecution,omitempty"`
}

type ParallelExecution struct {
	Enabled        bool `json:"enabled"`
	MaxConcurrency int  `json:"maxConcurrency,omitempty"`
}

type WorkflowDefinition struct {
	Name              string            `json:"name"`
	Description       string            `json:"description,omitempty"`
	Phases            []WorkflowPhase   `json:"phases"`
	ParallelExecution ParallelExecution `json:"parallelExecution"`
}

type WorkflowRunRequest struct {
	Name          string           `json:"name"`
	Context       ExecutionContext `json:"context"`
	Input         map[string]any   `json:"input"`
	ExcludePhases []string         `json:"excludePhases,omitempty"`
}

type WorkflowExecutionResult struct {
	Success         bool           `json:"success"`
	ExecutionTime   time.Duration  `json:"executionTime"`
	CompletedPhases []string       `json:"completedPhases"`
	SkippedPhases   []string       `json:"skippedPhases"`
	Data            map[string]any `json:"data"`
	Errors          []string       `json:"errors"`
}
