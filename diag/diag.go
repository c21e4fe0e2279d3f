// Package diag carries diagnostic records from the session to a logging sink.
package diag

import (
	"fmt"
	"time"

	"github.com/m-manu/ftp-sidekick/fmte"
)

// Record is one diagnostic event of an operation
type Record struct {
	Component string
	Op        string
	Message   string
	Elapsed   time.Duration
}

// String renders the record as "Component->Op(): message [in 0.123s]"
func (r Record) String() string {
	var prefix string
	switch {
	case r.Component != "" && r.Op != "":
		prefix = r.Component + "->" + r.Op + "(): "
	case r.Component != "":
		prefix = r.Component + ": "
	case r.Op != "":
		prefix = r.Op + "(): "
	}
	if r.Elapsed > 0 {
		return fmt.Sprintf("%s%s in %.3fs", prefix, r.Message, r.Elapsed.Seconds())
	}
	return prefix + r.Message
}

// Sink accepts formatted diagnostic lines
type Sink interface {
	Write(line string)
}

// RecordSink is a Sink that wants the structured record rather than the formatted line
type RecordSink interface {
	Sink
	WriteRecord(r Record)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(line string)

func (f SinkFunc) Write(line string) {
	f(line)
}

// ConsoleSink prints diagnostics on standard output
type ConsoleSink struct{}

func (ConsoleSink) Write(line string) {
	fmte.Printf("%s\n", line)
}

// Emit sends r to sink, falling back to the console when sink is nil
func Emit(sink Sink, r Record) {
	if sink == nil {
		sink = ConsoleSink{}
	}
	if rs, ok := sink.(RecordSink); ok {
		rs.WriteRecord(r)
		return
	}
	sink.Write(r.String())
}
