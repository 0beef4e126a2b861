package model

import "github.com/samber/lo"

type consistencyCheckerStandard struct {
	rooms   map[string]Room
	classes map[string]bool
}

func (checker *consistencyCheckerStandard) Fits(room string, students int) bool {
	return uint64(students) <= checker.rooms[room].Capacity
}

func (checker *consistencyCheckerStandard) Available(room string, slot Interval) bool {
	return lo.SomeBy(checker.rooms[room].Availability, func(window Interval) bool {
		return window.Contains(slot)
	})
}

func (checker *consistencyCheckerStandard) Busy(students []string, slot Interval, state *scheduleState) []string {
	return lo.Filter(students, func(student string, _ int) bool {
		return !state.StudentFree(student, slot)
	})
}

func (checker *consistencyCheckerStandard) AlreadySeated(class string, students []string, state *scheduleState) []string {
	return lo.Filter(students, func(student string, _ int) bool {
		return state.Seated(class, student)
	})
}

func (checker *consistencyCheckerStandard) Check(candidate Candidate, state *scheduleState) error {
	violation := func(constraint Constraint, students []string) error {
		return ConstraintError{Constraint: constraint, Candidate: candidate, Students: students}
	}

	if _, ok := checker.rooms[candidate.Room]; !ok || !checker.classes[candidate.Class] {
		return violation(ConstraintUnknownEntity, nil)
	} else if len(candidate.Students) == 0 {
		return violation(ConstraintEmptyStudentGroup, nil)
	}

	// Check that:
	// - Students fit in the room
	// - Slot lies within the room's availability
	// - Room is not occupied during the slot
	// - No student is busy during the slot
	// - No student already sits in a session of the same class
	if !checker.Fits(candidate.Room, len(candidate.Students)) {
		return violation(ConstraintRoomCapacity, nil)
	}
	if !checker.Available(candidate.Room, candidate.Slot) {
		return violation(ConstraintRoomAvailability, nil)
	}
	if !state.RoomFree(candidate.Room, candidate.Slot) {
		return violation(ConstraintRoomOverlap, nil)
	}
	if busy := checker.Busy(candidate.Students, candidate.Slot, state); len(busy) > 0 {
		return violation(ConstraintStudentConflict, busy)
	}
	if seated := checker.AlreadySeated(candidate.Class, candidate.Students, state); len(seated) > 0 {
		return violation(ConstraintDuplicateSeating, seated)
	}
	return nil
}
