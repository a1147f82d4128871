package model

import "time"

type ReliabilityLevel string

const RELIABILITY_HIGH ReliabilityLevel = "high"
const RELIABILITY_MEDIUM ReliabilityLevel = "medium"
const RELIABILITY_LOW ReliabilityLevel = "low"
const RELIABILITY_UNRELIABLE ReliabilityLevel = "unreliable"

// AutomationPatternData is the persisted shape of a learned pattern.
type AutomationPatternData struct {
	Id                   string            `json:"id"`
	MessageType          MessageType       `json:"messageType"`
	Payload              map[string]any    `json:"payload"`
	Selector             string            `json:"selector"`
	Context              ExecutionContext  `json:"context"`
	Confidence           float64           `json:"confidence"`
	UsageCount           int               `json:"usageCount"`
	SuccessfulExecutions int               `json:"successfulExecutions"`
	History              []ExecutionResult `json:"history,omitempty"`
	LastExecutedAt       *time.Time        `json:"lastExecutedAt,omitempty"`
}

type ExecutionResult struct {
	Success   bool           `json:"success"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type PatternMatchingCriteria struct {
	MessageTypeMatch     bool    `json:"messageTypeMatch"`
	PayloadSimilarity    float64 `json:"payloadSimilarity"`
	ContextCompatibility float64 `json:"contextCompatibility"`
	ConfidenceThreshold  float64 `json:"confidenceThreshold"`
	OverallScore         float64 `json:"overallScore"`
}
