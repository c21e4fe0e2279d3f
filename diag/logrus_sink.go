package diag

import (
	"io"

	"github.com/sirupsen/logrus"
)

// LogrusSink forwards diagnostics to a logrus logger at debug level
type LogrusSink struct {
	Logger *logrus.Logger
}

// NewLogrusSink creates a debug-level logger writing to w; format is "text" or "json"
func NewLogrusSink(w io.Writer, format string) *LogrusSink {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(logrus.DebugLevel)
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return &LogrusSink{Logger: logger}
}

func (s *LogrusSink) Write(line string) {
	s.Logger.Debug(line)
}

// WriteRecord logs the record message with op, component and elapsed as fields
func (s *LogrusSink) WriteRecord(r Record) {
	fields := logrus.Fields{}
	if r.Component != "" {
		fields["component"] = r.Component
	}
	if r.Op != "" {
		fields["op"] = r.Op
	}
	if r.Elapsed > 0 {
		fields["elapsed"] = r.Elapsed.String()
	}
	s.Logger.WithFields(fields).Debug(r.Message)
}
