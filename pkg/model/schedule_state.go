package model

import (
	"log"
	"slices"

	"github.com/samber/lo"
)

// Mutable state owned by a single search. Busy, occupied and seated sets are always derivable from the committed sessions
type scheduleState struct {
	indexer indexer

	roomOccupied [][]Interval     // Occupied intervals per room
	studentBusy  [][]Interval     // Busy intervals per student
	seated       []map[int]bool   // Seated students per class
	sessions     []ExamSession    // Committed sessions
	placements   []sessionIndices // Indices of the committed sessions (same order as sessions)
}

type sessionIndices struct {
	room, class int
	students    []int
}

// Marks the state as it was right before a commit
type snapshot struct {
	sessions int
}

func newScheduleState(indexer indexer) *scheduleState {
	rooms, students, classes := indexer.Sizes()

	state := &scheduleState{
		indexer:      indexer,
		roomOccupied: make([][]Interval, rooms),
		studentBusy:  make([][]Interval, students),
		seated:       make([]map[int]bool, classes),
		sessions:     make([]ExamSession, 0),
		placements:   make([]sessionIndices, 0),
	}
	for i := range state.seated {
		state.seated[i] = make(map[int]bool)
	}
	return state
}

// Checks whether the room has no committed session intersecting the slot. Unknown rooms are never free
func (state *scheduleState) RoomFree(room string, slot Interval) bool {
	index, ok := state.indexer.Room(room)
	if !ok {
		return false
	}
	return !lo.SomeBy(state.roomOccupied[index], slot.Overlaps)
}

// Checks whether the student has no committed session intersecting the slot. Unknown students are never free
func (state *scheduleState) StudentFree(student string, slot Interval) bool {
	index, ok := state.indexer.Student(student)
	if !ok {
		return false
	}
	return !lo.SomeBy(state.studentBusy[index], slot.Overlaps)
}

// Checks whether the student already sits in a session of the class
func (state *scheduleState) Seated(class, student string) bool {
	classIndex, ok1 := state.indexer.Class(class)
	studentIndex, ok2 := state.indexer.Student(student)
	return ok1 && ok2 && state.seated[classIndex][studentIndex]
}

// Commits the session and returns the snapshot that undoes it. The session must have been checked beforehand
func (state *scheduleState) Commit(session ExamSession) snapshot {
	mark := snapshot{sessions: len(state.sessions)}

	room, ok1 := state.indexer.Room(session.Room)
	class, ok2 := state.indexer.Class(session.Class)
	if !ok1 || !ok2 {
		log.Panicf("cannot commit session %v: unknown room \"%v\" or class \"%v\"", session.Id, session.Room, session.Class)
	}
	students := lo.Map(session.Students, func(student string, _ int) int {
		index, ok := state.indexer.Student(student)
		if !ok {
			log.Panicf("cannot commit session %v: unknown student \"%v\"", session.Id, student)
		}
		return index
	})

	state.roomOccupied[room] = append(state.roomOccupied[room], session.Slot)
	for _, student := range students {
		state.studentBusy[student] = append(state.studentBusy[student], session.Slot)
		state.seated[class][student] = true
	}
	session.Students = slices.Clone(session.Students)
	state.sessions = append(state.sessions, session)
	state.placements = append(state.placements, sessionIndices{room: room, class: class, students: students})

	return mark
}

// Restores the state to the snapshot. Rollbacks must happen in the reverse order of their commits
func (state *scheduleState) Rollback(mark snapshot) {
	if len(state.sessions) != mark.sessions+1 {
		log.Panicf("rollback out of order: expected %d committed sessions but found %d", mark.sessions+1, len(state.sessions))
	}

	last := state.placements[len(state.placements)-1]
	occupied := state.roomOccupied[last.room]
	state.roomOccupied[last.room] = occupied[:len(occupied)-1]
	for _, student := range last.students {
		busy := state.studentBusy[student]
		state.studentBusy[student] = busy[:len(busy)-1]
		delete(state.seated[last.class], student)
	}

	state.sessions = state.sessions[:mark.sessions]
	state.placements = state.placements[:mark.sessions]
}

// Amount of committed sessions
func (state *scheduleState) Len() int {
	return len(state.sessions)
}

// Returns an independent copy of the committed sessions
func (state *scheduleState) Sessions() []ExamSession {
	return lo.Map(state.sessions, func(session ExamSession, _ int) ExamSession {
		session.Students = slices.Clone(session.Students)
		return session
	})
}
