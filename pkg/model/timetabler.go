// Package model loads exam scheduling inputs and places every student's final exams into rooms and time slots.
//
// The backtracking timetabler explores candidates in a fixed order and performs no constraint propagation, so its
// worst case is exponential in the amount of sessions. Options.MaxNodes and context cancellation bound a run.
package model

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Timetabler interface {
	Build(
		ctx context.Context,
		modelInput ModelInput,
	) (timetable []ExamSession, nodes uint64, backtracks uint64, err error)

	Verify(
		timetable []ExamSession,
		modelInput ModelInput,
	) Report
}

// Observes the search. Implementations must not retain the sessions they receive
type Tracer interface {
	Commit(session ExamSession, depth int)
	Rollback(session ExamSession, depth int)
	Exhausted(class string, remaining int, depth int)
}

type Options struct {
	Granularity time.Duration // Distance between consecutive start times; DefaultGranularity if zero
	MaxNodes    uint64        // Maximum amount of checked candidates; unlimited if zero
	Logger      *zap.Logger
	Tracer      Tracer
}

type noopTracer struct{}

func (noopTracer) Commit(ExamSession, int)    {}
func (noopTracer) Rollback(ExamSession, int)  {}
func (noopTracer) Exhausted(string, int, int) {}
