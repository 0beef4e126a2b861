package model

import (
	"iter"
	"slices"
	"strings"
	"time"
)

// Default distance between two consecutive start times inside an availability window
const DefaultGranularity = 30 * time.Minute

// A proposed placement of (part of) a class
type Candidate struct {
	Class    string
	Room     string
	Slot     Interval
	Students []string
}

type candidateGenerator interface {
	// Returns a lazy and finite sequence of candidates to seat the remaining students of the class.
	// Ranging over the sequence again restarts it. Generation only reads the state.
	//
	// Candidates are ordered by room (descending capacity, then identifier), availability window (by start) and start time (earliest first).
	// Each candidate seats, in enrollment order, up to room-capacity remaining students who are free during its slot; slots where no remaining student is free are skipped.
	Candidates(class ClassExam, remaining []string, state *scheduleState) iter.Seq[Candidate]
}

func newCandidateGenerator(modelInput ModelInput, granularity time.Duration) candidateGenerator {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}

	rooms := slices.Clone(modelInput.Rooms)
	slices.SortStableFunc(rooms, func(a, b Room) int {
		if a.Capacity != b.Capacity {
			if a.Capacity > b.Capacity {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Id, b.Id)
	})

	return &candidateGeneratorImplementation{
		rooms:       rooms,
		granularity: granularity,
	}
}
