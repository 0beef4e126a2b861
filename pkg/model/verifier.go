package model

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

const (
	CheckRoomCapacity            = "verify_room_capacity"
	CheckNoRoomOverlaps          = "verify_no_room_overlaps"
	CheckStudentExamConflicts    = "verify_student_exam_conflicts"
	CheckExamRoomFit             = "verify_exam_room_fit"
	CheckAllStudentsHaveFinals   = "verify_all_students_have_all_finals"
	CheckNoStudentDuplicate      = "verify_no_student_duplicate_in_class"
	CheckAllStudentExamsAccounts = "verify_all_student_exams_are_accounted_for"
)

type Violation struct {
	Message  string
	Entities []string // Sessions, students, rooms or classes involved
}

type CheckResult struct {
	Name       string
	Violations []Violation
}

func (result CheckResult) Passed() bool {
	return len(result.Violations) == 0
}

type Report struct {
	Checks []CheckResult
}

func (report Report) Passed() bool {
	return lo.EveryBy(report.Checks, CheckResult.Passed)
}

func (report Report) Failed() []CheckResult {
	return lo.Reject(report.Checks, func(check CheckResult, _ int) bool { return check.Passed() })
}

// Returns a ConstraintViolationError if any check failed, nil otherwise
func (report Report) Err() error {
	if report.Passed() {
		return nil
	}
	return ConstraintViolationError{Report: report}
}

// Independently re-checks a schedule against the input. Every check runs regardless of the others' outcome
func Verify(timetable []ExamSession, modelInput ModelInput) Report {
	rooms := lo.KeyBy(modelInput.Rooms, func(room Room) string { return room.Id })
	classes := lo.KeyBy(modelInput.Classes, func(class ClassExam) string { return class.Id })

	return Report{
		Checks: []CheckResult{
			verifyRoomCapacity(timetable, rooms),
			verifyNoRoomOverlaps(timetable),
			verifyStudentExamConflicts(timetable),
			verifyExamRoomFit(timetable, rooms),
			verifyAllStudentsHaveAllFinals(timetable, modelInput),
			verifyNoStudentDuplicateInClass(timetable),
			verifyAllStudentExamsAreAccountedFor(timetable, classes),
		},
	}
}

func verifyRoomCapacity(timetable []ExamSession, rooms map[string]Room) CheckResult {
	result := CheckResult{Name: CheckRoomCapacity}
	for _, session := range timetable {
		room, ok := rooms[session.Room]
		if !ok {
			result.Violations = append(result.Violations, Violation{
				Message:  fmt.Sprintf("%v is assigned to unknown room %v", session.Id, session.Room),
				Entities: []string{session.Id, session.Room},
			})
		} else if uint64(len(session.Students)) > room.Capacity {
			result.Violations = append(result.Violations, Violation{
				Message:  fmt.Sprintf("%v has %d students but room capacity is %d (%v)", session.Id, len(session.Students), room.Capacity, room.Id),
				Entities: []string{session.Id, room.Id},
			})
		}
	}
	return result
}

func verifyNoRoomOverlaps(timetable []ExamSession) CheckResult {
	result := CheckResult{Name: CheckNoRoomOverlaps}
	perRoom := lo.GroupBy(timetable, func(session ExamSession) string { return session.Room })

	for _, room := range sortedKeys(perRoom) {
		for _, pair := range overlappingPairs(perRoom[room]) {
			result.Violations = append(result.Violations, Violation{
				Message:  fmt.Sprintf("room %v has overlapping exams %v (%v) and %v (%v)", room, pair[0].Id, pair[0].Slot, pair[1].Id, pair[1].Slot),
				Entities: []string{room, pair[0].Id, pair[1].Id},
			})
		}
	}
	return result
}

func verifyStudentExamConflicts(timetable []ExamSession) CheckResult {
	result := CheckResult{Name: CheckStudentExamConflicts}
	perStudent := make(map[string][]ExamSession)
	for _, session := range timetable {
		for _, student := range session.Students {
			perStudent[student] = append(perStudent[student], session)
		}
	}

	for _, student := range sortedKeys(perStudent) {
		for _, pair := range overlappingPairs(perStudent[student]) {
			result.Violations = append(result.Violations, Violation{
				Message:  fmt.Sprintf("%v has overlapping exams %v (group %v) and %v (group %v)", student, pair[0].Class, pair[0].Id, pair[1].Class, pair[1].Id),
				Entities: []string{student, pair[0].Id, pair[1].Id},
			})
		}
	}
	return result
}

func verifyExamRoomFit(timetable []ExamSession, rooms map[string]Room) CheckResult {
	result := CheckResult{Name: CheckExamRoomFit}
	for _, session := range timetable {
		room := rooms[session.Room]
		fits := session.Slot.End.After(session.Slot.Start) && lo.SomeBy(room.Availability, func(window Interval) bool {
			return window.Contains(session.Slot)
		})
		if !fits {
			result.Violations = append(result.Violations, Violation{
				Message:  fmt.Sprintf("exam %v in group %v scheduled %v does not fit in room %v availability", session.Class, session.Id, session.Slot, session.Room),
				Entities: []string{session.Id, session.Room},
			})
		}
	}
	return result
}

func verifyAllStudentsHaveAllFinals(timetable []ExamSession, modelInput ModelInput) CheckResult {
	result := CheckResult{Name: CheckAllStudentsHaveFinals}
	attendances := countAttendances(timetable)

	for _, class := range modelInput.Classes {
		for _, student := range class.Students {
			switch count := attendances[[2]string{student, class.Id}]; {
			case count == 0:
				result.Violations = append(result.Violations, Violation{
					Message:  fmt.Sprintf("%v is missing the final for %v", student, class.Id),
					Entities: []string{student, class.Id},
				})
			case count > 1:
				result.Violations = append(result.Violations, Violation{
					Message:  fmt.Sprintf("%v attends the final for %v %d times", student, class.Id, count),
					Entities: []string{student, class.Id},
				})
			}
		}
	}
	return result
}

func verifyNoStudentDuplicateInClass(timetable []ExamSession) CheckResult {
	result := CheckResult{Name: CheckNoStudentDuplicate}
	groups := make(map[[2]string][]string) // (student, class) -> sessions
	for _, session := range timetable {
		for _, student := range session.Students {
			key := [2]string{student, session.Class}
			groups[key] = append(groups[key], session.Id)
		}
	}

	keys := lo.Keys(groups)
	slices.SortFunc(keys, func(a, b [2]string) int { return slices.Compare(a[:], b[:]) })
	for _, key := range keys {
		if sessions := groups[key]; len(sessions) > 1 {
			result.Violations = append(result.Violations, Violation{
				Message:  fmt.Sprintf("%v is assigned to multiple groups for class %v: %v", key[0], key[1], sessions),
				Entities: append([]string{key[0], key[1]}, sessions...),
			})
		}
	}
	return result
}

func verifyAllStudentExamsAreAccountedFor(timetable []ExamSession, classes map[string]ClassExam) CheckResult {
	result := CheckResult{Name: CheckAllStudentExamsAccounts}
	enrolled := make(map[[2]string]bool)
	expected := 0
	for _, class := range classes {
		for _, student := range class.Students {
			enrolled[[2]string{student, class.Id}] = true
		}
		expected += len(class.Students)
	}

	seated := 0
	for _, session := range timetable {
		if _, ok := classes[session.Class]; !ok {
			result.Violations = append(result.Violations, Violation{
				Message:  fmt.Sprintf("%v belongs to unknown class %v", session.Id, session.Class),
				Entities: []string{session.Id, session.Class},
			})
		}
		if len(session.Students) == 0 {
			result.Violations = append(result.Violations, Violation{
				Message:  fmt.Sprintf("%v has no students", session.Id),
				Entities: []string{session.Id},
			})
		}
		for _, student := range session.Students {
			if !enrolled[[2]string{student, session.Class}] {
				result.Violations = append(result.Violations, Violation{
					Message:  fmt.Sprintf("%v sits the exam of %v in %v without being enrolled", student, session.Class, session.Id),
					Entities: []string{student, session.Class, session.Id},
				})
			}
		}
		seated += len(session.Students)
	}

	if seated != expected {
		result.Violations = append(result.Violations, Violation{
			Message: fmt.Sprintf("schedule seats %d student-exams but %d are expected", seated, expected),
		})
	}
	return result
}

func countAttendances(timetable []ExamSession) map[[2]string]int {
	attendances := make(map[[2]string]int)
	for _, session := range timetable {
		for _, student := range session.Students {
			attendances[[2]string{student, session.Class}]++
		}
	}
	return attendances
}

// Returns every pair of sessions whose slots intersect, in timetable order
func overlappingPairs(sessions []ExamSession) [][2]ExamSession {
	pairs := make([][2]ExamSession, 0)
	for i := range len(sessions) - 1 {
		for j := i + 1; j < len(sessions); j++ {
			if sessions[i].Slot.Overlaps(sessions[j].Slot) {
				pairs = append(pairs, [2]ExamSession{sessions[i], sessions[j]})
			}
		}
	}
	return pairs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}
