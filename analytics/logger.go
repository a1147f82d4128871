package analytics

import (
	"os"

	"github.com/mohitkumar/autopilot/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogFileDataCollector struct {
	fileName string
	logger   *zap.Logger
}

func NewLogFileDataCollector(fileName string) (*LogFileDataCollector, error) {
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return newCollector(fileName, zapcore.AddSync(logFile)), nil
}

func newCollector(fileName string, writer zapcore.WriteSyncer) *LogFileDataCollector {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = ""
	encoderConfig.CallerKey = ""
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), writer, zapcore.InfoLevel)
	return &LogFileDataCollector{
		fileName: fileName,
		logger:   zap.New(core),
	}
}

func (lc *LogFileDataCollector) RecordExecutionSuccess(p model.AutomationPatternData, result model.ExecutionResult) {
	lc.logger.Info("success",
		zap.String("pattern", p.Id),
		zap.String("messageType", string(p.MessageType)),
		zap.String("host", p.Context.Hostname),
		zap.Float64("confidence", p.Confidence),
		zap.Int("usageCount", p.UsageCount),
		zap.Any("data", result.Data))
}

func (lc *LogFileDataCollector) RecordExecutionFailure(p model.AutomationPatternData, kind string, reason string) {
	lc.logger.Info("failure",
		zap.String("pattern", p.Id),
		zap.String("messageType", string(p.MessageType)),
		zap.String("host", p.Context.Hostname),
		zap.Float64("confidence", p.Confidence),
		zap.String("kind", kind),
		zap.String("reason", reason))
}

func (lc *LogFileDataCollector) RecordWorkflowRun(name string, runId string, result model.WorkflowExecutionResult) {
	lc.logger.Info("workflow",
		zap.String("name", name),
		zap.String("id", runId),
		zap.Bool("success", result.Success),
		zap.Duration("executionTime", result.ExecutionTime),
		zap.Strings("completed", result.CompletedPhases),
		zap.Strings("skipped", result.SkippedPhases),
		zap.Strings("errors", result.Errors))
}

func (lc *LogFileDataCollector) Close() error {
	return lc.logger.Sync()
}
