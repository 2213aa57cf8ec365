package irc

import (
	"fmt"
	stdlog "log"

	"github.com/go-log/log"
)

// Debug enables wire-level logging of every line sent and received
var Debug bool

func init() {
	log.DefaultLogger = &StdLogger{}
}

// SetLogger replaces the logger used by the engine. A nil logger restores
// the StdLogger default.
func SetLogger(logger log.Logger) {
	if logger == nil {
		logger = &StdLogger{}
	}
	log.DefaultLogger = logger
}

// StdLogger writes engine output through the standard log package, so the
// application's log flags and output apply
type StdLogger struct {
	// Prefix is put in front of every line, e.g. "irc: "
	Prefix string
}

func (l *StdLogger) Log(v ...interface{}) {
	stdlog.Output(3, l.Prefix+fmt.Sprintln(v...))
}

func (l *StdLogger) Logf(format string, v ...interface{}) {
	stdlog.Output(3, l.Prefix+fmt.Sprintf(format, v...))
}

// NopLogger silences the engine
type NopLogger struct{}

func (NopLogger) Log(v ...interface{})                 {}
func (NopLogger) Logf(format string, v ...interface{}) {}
