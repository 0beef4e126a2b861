package model

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

const testDay = "2025-06-02T"

// Returns the given clock time (e.g. "08:30") on the test day
func at(clock string) time.Time {
	parsed, err := time.Parse(TimeLayout, testDay+clock+":00")
	if err != nil {
		panic(err)
	}
	return parsed
}

func slot(from, until string) Interval {
	return Interval{Start: at(from), End: at(until)}
}

func window(from, until string) RawAvailability {
	return RawAvailability{From: testDay + from + ":00", Until: testDay + until + ":00"}
}

func enroll(student string, classes ...string) RawStudent {
	return RawStudent{Iri: student, EnrolledIn: classes}
}

func buildInput(t *testing.T, rawInput RawModelInput) ModelInput {
	t.Helper()
	modelInput, err := ProcessRawInput(rawInput)
	require.NoError(t, err)
	return modelInput
}

func failedChecks(report Report) []string {
	return lo.Map(report.Failed(), func(check CheckResult, _ int) string { return check.Name })
}

func sessionsOf(timetable []ExamSession, class string) []ExamSession {
	return lo.Filter(timetable, func(session ExamSession, _ int) bool { return session.Class == class })
}

// One room with capacity 2 open 08:00-11:00 and a one-hour class with three students
func splitScenario() RawModelInput {
	return RawModelInput{
		Students: []RawStudent{enroll("s1", "C1"), enroll("s2", "C1"), enroll("s3", "C1")},
		Classes:  []RawClass{{Iri: "C1", ExamDuration: 1}},
		Rooms:    []RawRoom{{Iri: "R1", Capacity: 2, Availability: []RawAvailability{window("08:00", "11:00")}}},
	}
}

// Scheduling A at its first slot leaves no room for B; only the third slot of A admits a full schedule
func backtrackScenario() RawModelInput {
	return RawModelInput{
		Students: []RawStudent{enroll("s1", "A", "B"), enroll("s2", "A", "B")},
		Classes:  []RawClass{{Iri: "A", ExamDuration: 1}, {Iri: "B", ExamDuration: 1.5}},
		Rooms: []RawRoom{{
			Iri:          "R1",
			Capacity:     2,
			Availability: []RawAvailability{window("10:00", "11:00"), window("08:00", "09:30")},
		}},
	}
}
