package rvm

import (
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

// log is the package-wide logger, following the same commonlog facade the
// teacher wires for its LSP server so that a host process configuring
// commonlog once (via commonlog.Initialize) gets RVM's log lines in its own
// format. Its only caller is warnEmptyKeyof; the server package prints its
// startup lines with fmt rather than through this logger.
var log = commonlog.GetLogger("rvm")

// SetLogger overrides the package logger. Intended for hosts that want RVM
// log lines routed through their own commonlog backend rather than the
// default simple one.
func SetLogger(l commonlog.Logger) {
	log = l
}

var loggedEmptyKeyof bool

// warnEmptyKeyof emits a single debug line the first time keyof is applied
// to an operand that is neither an object literal nor a class (a tuple or a
// primitive, for instance) in this process's lifetime;
// spec.md §9's Open Question (b) resolves this to "empty union, flagged"
// rather than an error.
func warnEmptyKeyof() {
	if loggedEmptyKeyof {
		return
	}
	loggedEmptyKeyof = true
	log.Debug("keyof applied to an operand that is neither an object literal nor a class; returning never (unspecified case)")
}
