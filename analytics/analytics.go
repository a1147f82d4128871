package analytics

import "github.com/mohitkumar/autopilot/model"

type DataCollectorConfig struct {
	FileName      string
	CollectorType DataCollectorType
}

type DataCollectorType string

const LOG_FILE_DATA_COLLECTOR DataCollectorType = "LOG_FILE_DATA_COLLECTOR"
const NOOP_DATA_COLLECTOR DataCollectorType = "NOOP_DATA_COLLECTOR"

// PatternDataCollector receives the outcome of every pattern execution.
type PatternDataCollector interface {
	RecordExecutionSuccess(p model.AutomationPatternData, result model.ExecutionResult)
	RecordExecutionFailure(p model.AutomationPatternData, kind string, reason string)
	RecordWorkflowRun(name string, runId string, result model.WorkflowExecutionResult)
}

func NewDataCollector(config DataCollectorConfig) (PatternDataCollector, error) {
	switch config.CollectorType {
	case LOG_FILE_DATA_COLLECTOR:
		return NewLogFileDataCollector(config.FileName)
	}
	return NoopDataCollector{}, nil
}

type NoopDataCollector struct{}

func (NoopDataCollector) RecordExecutionSuccess(model.AutomationPatternData, model.ExecutionResult) {}

func (NoopDataCollector) RecordExecutionFailure(model.AutomationPatternData, string, string) {}

func (NoopDataCollector) RecordWorkflowRun(string, string, model.WorkflowExecutionResult) {}
