package fmte

import (
	"io"
	"os"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var p *message.Printer

var mx sync.Mutex // Shared mutex across stdout and stderr to ensure ordering across

var verbosePrint = false

var out io.Writer = os.Stdout

var errOut io.Writer = os.Stderr

func init() {
	p = message.NewPrinter(language.English)
}

// SetVerbose turns verbose print functions within fmte package on or off
func SetVerbose(on bool) {
	mx.Lock()
	verbosePrint = on
	mx.Unlock()
}

// SetOutput redirects normal and error output (nil restores stdout/stderr)
func SetOutput(stdout, stderr io.Writer) {
	mx.Lock()
	defer mx.Unlock()
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	out, errOut = stdout, stderr
}

// Printf is goroutine-safe fmt.Printf for English
func Printf(format string, a ...any) {
	mx.Lock()
	_, _ = p.Fprintf(out, format, a...)
	mx.Unlock()
}

// PrintfV is goroutine-safe fmt.Printf for English (Verbose mode)
func PrintfV(format string, a ...any) {
	mx.Lock()
	if verbosePrint {
		_, _ = p.Fprintf(out, format, a...)
	}
	mx.Unlock()
}

// PrintfErr is goroutine-safe fmt.Printf to StdErr for English
func PrintfErr(format string, a ...any) {
	mx.Lock()
	_, _ = p.Fprintf(errOut, format, a...)
	mx.Unlock()
}
