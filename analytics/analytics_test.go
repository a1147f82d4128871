package analytics

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mohitkumar/autopilot/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLogFileDataCollector(t *testing.T) {
	var buf bytes.Buffer
	collector := newCollector("buffer", zapcore.AddSync(&buf))
	p := model.AutomationPatternData{
		Id:          "prompt",
		MessageType: model.FILL_TEXT,
		Context:     model.ExecutionContext{Hostname: "chat.example.com"},
		Confidence:  1.05,
		UsageCount:  1,
	}

	collector.RecordExecutionSuccess(p, model.ExecutionResult{Success: true, Data: map[string]any{"filled": true}})
	collector.RecordExecutionFailure(p, "ELEMENT_NOT_FOUND", "locate #prompt")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var success, failure map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &success))
	require.NoError(t, json.Unmarshal(lines[1], &failure))
	require.Equal(t, "success", success["msg"])
	require.Equal(t, "prompt", success["pattern"])
	require.Equal(t, "chat.example.com", success["host"])
	require.Equal(t, "failure", failure["msg"])
	require.Equal(t, "ELEMENT_NOT_FOUND", failure["kind"])
}

func TestNewDataCollector(t *testing.T) {
	c, err := NewDataCollector(DataCollectorConfig{})
	require.NoError(t, err)
	require.IsType(t, NoopDataCollector{}, c)

	file := filepath.Join(t.TempDir(), "analytics.log")
	c, err = NewDataCollector(DataCollectorConfig{FileName: file, CollectorType: LOG_FILE_DATA_COLLECTOR})
	require.NoError(t, err)
	require.IsType(t, &LogFileDataCollector{}, c)
	c.RecordWorkflowRun("image", "run-1", model.WorkflowExecutionResult{Success: true})
	require.NoError(t, c.(*LogFileDataCollector).Close())
	require.FileExists(t, file)
}
