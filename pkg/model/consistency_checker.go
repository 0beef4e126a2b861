package model

type consistencyChecker interface {
	// Checks whether the amount of students is smaller than or equal to the room's capacity (i.e. the students fit in the room)
	Fits(room string, students int) bool

	// Checks whether the slot lies within one of the room's availability windows
	Available(room string, slot Interval) bool

	// Returns the students that are already busy during the slot
	Busy(students []string, slot Interval, state *scheduleState) []string

	// Returns the students that already sit in a session of the class
	AlreadySeated(class string, students []string, state *scheduleState) []string

	// Checks the candidate against every hard constraint. Returns nil if the candidate is admissible or a ConstraintError describing the first violated constraint otherwise
	Check(candidate Candidate, state *scheduleState) error
}

func newConsistencyChecker(modelInput ModelInput) consistencyChecker {
	rooms := make(map[string]Room, len(modelInput.Rooms))
	for _, room := range modelInput.Rooms {
		rooms[room.Id] = room
	}
	classes := make(map[string]bool, len(modelInput.Classes))
	for _, class := range modelInput.Classes {
		classes[class.Id] = true
	}
	return &consistencyCheckerStandard{rooms: rooms, classes: classes}
}
