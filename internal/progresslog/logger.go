// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package progresslog

import (
	"sync"
	"time"

	"github.com/decred/slog"
)

// logInterval is the minimum time between progress messages.
const logInterval = 10 * time.Second

// pickNoun returns the singular or plural form of a noun depending on the
// provided count.
func pickNoun(n uint64, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// Logger provides periodic logging of generation progress.
type Logger struct {
	sync.Mutex
	subsystemLogger slog.Logger
	progressAction  string

	// lastLogTime tracks the last time a log statement was shown.
	lastLogTime time.Time

	// lastReseeds is the reseed total reported by the previous call.
	lastReseeds uint64

	// These fields accumulate information between log statements.
	values  uint64
	bytes   uint64
	reseeds uint64
}

// New returns a new progress logger.
func New(progressAction string, logger slog.Logger) *Logger {
	return &Logger{
		lastLogTime:     time.Now(),
		progressAction:  progressAction,
		subsystemLogger: logger,
	}
}

// LogProgress accumulates a generated value of the given number of bytes and
// periodically (every 10 seconds) logs an information message to show
// progress to the user.  totalReseeds is the running total of reseeds
// performed by the generator.
//
// The force flag may be used to force a log message to be shown regardless of
// the time the last one was shown.
//
// The progress message is templated as follows:
//
//	{progressAction} {numValues} {values|value} in the last {timePeriod}
//	({numBytes} {bytes|byte}, {numReseeds} {reseeds|reseed})
func (l *Logger) LogProgress(numBytes int, totalReseeds uint64, forceLog bool) {
	l.Lock()
	defer l.Unlock()

	l.values++
	l.bytes += uint64(numBytes)
	l.reseeds += totalReseeds - l.lastReseeds
	l.lastReseeds = totalReseeds
	l.logLocked(forceLog)
}

// Flush logs any accumulated progress that has not been shown yet.
func (l *Logger) Flush() {
	l.Lock()
	defer l.Unlock()

	if l.values == 0 {
		return
	}
	l.logLocked(true)
}

// logLocked logs and resets the accumulated totals when forced or when the log
// interval has elapsed.
//
// This function MUST be called with the logger lock held.
func (l *Logger) logLocked(forceLog bool) {
	now := time.Now()
	duration := now.Sub(l.lastLogTime)
	if !forceLog && duration < logInterval {
		return
	}

	l.subsystemLogger.Infof("%s %d %s in the last %0.2fs (%d %s, %d %s)",
		l.progressAction, l.values, pickNoun(l.values, "value", "values"),
		duration.Seconds(), l.bytes, pickNoun(l.bytes, "byte", "bytes"),
		l.reseeds, pickNoun(l.reseeds, "reseed", "reseeds"))

	l.values = 0
	l.bytes = 0
	l.reseeds = 0
	l.lastLogTime = now
}

// SetLastLogTime updates the last time data was logged to the provided time.
func (l *Logger) SetLastLogTime(time time.Time) {
	l.Lock()
	l.lastLogTime = time
	l.Unlock()
}
