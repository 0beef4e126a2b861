package model

import (
	"fmt"
	"strings"
)

// Raised while loading the input, before any scheduling takes place
type LoadError struct {
	Reason string
	Err    error
}

func (err LoadError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("cannot load input: %v: %v", err.Reason, err.Err)
	}
	return fmt.Sprintf("cannot load input: %v", err.Reason)
}

func (err LoadError) Unwrap() error {
	return err.Err
}

const (
	ReasonExhausted = "search exhausted every candidate"
	ReasonBudget    = "search node budget exhausted"
	ReasonCancelled = "search cancelled"
)

// Returned when the search cannot produce a complete schedule. No partial schedule accompanies it
type UnschedulableError struct {
	Class     string // Class at the deepest work item that ran out of candidates
	Remaining int    // Students of Class still unseated at that point
	Reason    string
	Err       error
}

func (err UnschedulableError) Error() string {
	if err.Class == "" {
		return fmt.Sprintf("no feasible schedule: %v", err.Reason)
	}
	return fmt.Sprintf("no feasible schedule: %v (class \"%v\" with %d unseated students)", err.Reason, err.Class, err.Remaining)
}

func (err UnschedulableError) Unwrap() error {
	return err.Err
}

type Constraint string

const (
	ConstraintRoomCapacity      Constraint = "room capacity"
	ConstraintRoomAvailability  Constraint = "room availability fit"
	ConstraintRoomOverlap       Constraint = "room non-overlap"
	ConstraintStudentConflict   Constraint = "student conflict-free"
	ConstraintDuplicateSeating  Constraint = "no duplicate seating"
	ConstraintUnknownEntity     Constraint = "known entities"
	ConstraintEmptyStudentGroup Constraint = "non-empty student group"
)

// Describes why a candidate is inadmissible. Used for diagnostics only
type ConstraintError struct {
	Constraint Constraint
	Candidate  Candidate
	Students   []string // Offending students, if the constraint involves students
}

func (err ConstraintError) Error() string {
	if len(err.Students) > 0 {
		return fmt.Sprintf("%v violated by %v in room \"%v\" at %v: %v", err.Constraint, err.Candidate.Class, err.Candidate.Room, err.Candidate.Slot, strings.Join(err.Students, ", "))
	}
	return fmt.Sprintf("%v violated by %v in room \"%v\" at %v", err.Constraint, err.Candidate.Class, err.Candidate.Room, err.Candidate.Slot)
}

// Signals that a schedule failed verification
type ConstraintViolationError struct {
	Report Report
}

func (err ConstraintViolationError) Error() string {
	failed := err.Report.Failed()
	names := make([]string, 0, len(failed))
	for _, check := range failed {
		names = append(names, fmt.Sprintf("%v (%d)", check.Name, len(check.Violations)))
	}
	return fmt.Sprintf("schedule violates constraints: %v", strings.Join(names, ", "))
}
