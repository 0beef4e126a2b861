package model

import (
	"iter"
	"time"
)

type candidateGeneratorImplementation struct {
	rooms       []Room // Sorted by descending capacity and identifier
	granularity time.Duration
}

func (generator *candidateGeneratorImplementation) Candidates(class ClassExam, remaining []string, state *scheduleState) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		if class.Duration <= 0 || len(remaining) == 0 {
			return
		}

		for _, room := range generator.rooms {
			for _, window := range room.Availability {
				// Skip windows that cannot hold a single exam
				if window.Duration() < class.Duration {
					continue
				}

				for start := window.Start; !start.Add(class.Duration).After(window.End); start = start.Add(generator.granularity) {
					slot := Interval{Start: start, End: start.Add(class.Duration)}

					students := generator.seat(class, room, slot, remaining, state)
					if len(students) == 0 {
						continue
					}

					if !yield(Candidate{
						Class:    class.Id,
						Room:     room.Id,
						Slot:     slot,
						Students: students,
					}) {
						return
					}
				}
			}
		}
	}
}

// Picks, in enrollment order, up to room-capacity remaining students that are free during the slot
func (generator *candidateGeneratorImplementation) seat(class ClassExam, room Room, slot Interval, remaining []string, state *scheduleState) []string {
	students := make([]string, 0, min(uint64(len(remaining)), room.Capacity))
	for _, student := range remaining {
		if uint64(len(students)) >= room.Capacity {
			break
		}
		if state.StudentFree(student, slot) && !state.Seated(class.Id, student) {
			students = append(students, student)
		}
	}
	return students
}
