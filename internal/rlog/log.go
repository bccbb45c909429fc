// Package rlog provides the logger-style side channel used to report
// non-fatal warnings (signed division lossiness, arithmetic shift
// lossiness, large immediates) and, when Options.TraceSpills is set,
// allocator spill/reload activity. Warnings never abort compilation.
package rlog

import "github.com/sirupsen/logrus"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// ---------------------
// ----- Globals -----
// ---------------------

// log is the package-level logger used by every warning/trace call.
var log = logrus.New()

// ---------------------
// ----- Functions -----
// ---------------------

// Warnf logs a non-fatal compiler warning. Callers never treat a warning as
// an error: lowering continues.
func Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

// Tracef logs allocator spill/reload activity when TraceSpills is enabled.
func Tracef(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

// SetLevel adjusts the logger's verbosity. Passing logrus.DebugLevel makes
// Tracef output visible; this mirrors Options.TraceSpills emitting extra
// detail to both the log and the assembly Comment stream.
func SetLevel(level logrus.Level) {
	log.SetLevel(level)
}
