package model

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/onsi/gomega"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBacktrackingTimetablerSplitsOversizedClass(t *testing.T) {
	//** Arrange
	modelInput := buildInput(t, splitScenario())
	timetabler := NewBacktrackingTimetabler(Options{})

	//** Act
	timetable, nodes, backtracks, err := timetabler.Build(context.Background(), modelInput)

	//** Assert
	require.NoError(t, err)
	expected := []ExamSession{
		{Id: "group_0001", Class: "C1", Room: "R1", Slot: slot("08:00", "09:00"), Students: []string{"s1", "s2"}},
		{Id: "group_0002", Class: "C1", Room: "R1", Slot: slot("09:00", "10:00"), Students: []string{"s3"}},
	}
	assert.Equal(t, expected, timetable)
	assert.Equal(t, uint64(4), nodes) // 08:00 for s3 and 08:30 collide with the first session
	assert.Zero(t, backtracks)
	assert.True(t, timetabler.Verify(timetable, modelInput).Passed())
}

func TestBacktrackingTimetablerUnschedulable(t *testing.T) {
	//** Arrange
	modelInput := buildInput(t, RawModelInput{
		Students: []RawStudent{enroll("s1", "C1"), enroll("s2", "C1")},
		Classes:  []RawClass{{Iri: "C1", ExamDuration: 1.5}},
		Rooms:    []RawRoom{{Iri: "R1", Capacity: 5, Availability: []RawAvailability{window("08:00", "09:00")}}},
	})
	timetabler := NewBacktrackingTimetabler(Options{})

	//** Act
	timetable, _, _, err := timetabler.Build(context.Background(), modelInput)

	//** Assert
	assert.Nil(t, timetable)
	var unschedulable UnschedulableError
	require.True(t, errors.As(err, &unschedulable), "expected an UnschedulableError, got %v", err)
	assert.Equal(t, "C1", unschedulable.Class)
	assert.Equal(t, 2, unschedulable.Remaining)
	assert.Equal(t, ReasonExhausted, unschedulable.Reason)
}

func TestBacktrackingTimetablerBacktracks(t *testing.T) {
	//** Arrange
	modelInput := buildInput(t, backtrackScenario())
	timetabler := NewBacktrackingTimetabler(Options{})

	//** Act
	timetable, nodes, backtracks, err := timetabler.Build(context.Background(), modelInput)

	//** Assert
	require.NoError(t, err)
	expected := []ExamSession{
		{Id: "group_0001", Class: "A", Room: "R1", Slot: slot("10:00", "11:00"), Students: []string{"s1", "s2"}},
		{Id: "group_0002", Class: "B", Room: "R1", Slot: slot("08:00", "09:30"), Students: []string{"s1", "s2"}},
	}
	assert.Equal(t, expected, timetable)
	assert.Equal(t, uint64(2), backtracks)
	assert.Equal(t, uint64(4), nodes)
}

func TestBacktrackingTimetablerIgnoresStudentsWithoutEnrollments(t *testing.T) {
	//** Arrange
	raw := splitScenario()
	raw.Students = append(raw.Students, enroll("idle"))
	modelInput := buildInput(t, raw)

	//** Act
	timetable, _, _, err := NewBacktrackingTimetabler(Options{}).Build(context.Background(), modelInput)

	//** Assert
	require.NoError(t, err)
	for _, session := range timetable {
		assert.NotContains(t, session.Students, "idle")
	}
}

func TestBacktrackingTimetablerEmptyInput(t *testing.T) {
	//** Act
	timetable, nodes, _, err := NewBacktrackingTimetabler(Options{}).Build(context.Background(), ModelInput{})

	//** Assert
	require.NoError(t, err)
	assert.Empty(t, timetable)
	assert.Zero(t, nodes)
}

func TestBacktrackingTimetablerIsDeterministic(t *testing.T) {
	//** Arrange
	modelInput := buildInput(t, randomScenario(rand.New(rand.NewSource(7)), 8, 40, 4))
	timetabler := NewBacktrackingTimetabler(Options{})

	//** Act
	first, firstNodes, _, err1 := timetabler.Build(context.Background(), modelInput)
	second, secondNodes, _, err2 := timetabler.Build(context.Background(), modelInput)

	//** Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
	assert.Equal(t, firstNodes, secondNodes)
}

func TestBacktrackingTimetablerBudget(t *testing.T) {
	//** Arrange
	modelInput := buildInput(t, splitScenario())
	timetabler := NewBacktrackingTimetabler(Options{MaxNodes: 1})

	//** Act
	timetable, nodes, _, err := timetabler.Build(context.Background(), modelInput)

	//** Assert
	assert.Nil(t, timetable)
	assert.Equal(t, uint64(1), nodes)
	var unschedulable UnschedulableError
	require.True(t, errors.As(err, &unschedulable))
	assert.Contains(t, unschedulable.Reason, ReasonBudget)
}

func TestBacktrackingTimetablerCancellation(t *testing.T) {
	//** Arrange
	modelInput := buildInput(t, splitScenario())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	//** Act
	timetable, _, _, err := NewBacktrackingTimetabler(Options{}).Build(ctx, modelInput)

	//** Assert
	assert.Nil(t, timetable)
	assert.True(t, errors.Is(err, context.Canceled))
	var unschedulable UnschedulableError
	require.True(t, errors.As(err, &unschedulable))
	assert.Contains(t, unschedulable.Reason, ReasonCancelled)
}

type recordingTracer struct {
	commits, rollbacks, exhausted int
}

func (tracer *recordingTracer) Commit(ExamSession, int)    { tracer.commits++ }
func (tracer *recordingTracer) Rollback(ExamSession, int)  { tracer.rollbacks++ }
func (tracer *recordingTracer) Exhausted(string, int, int) { tracer.exhausted++ }

func TestBacktrackingTimetablerTracesAndLogs(t *testing.T) {
	//** Arrange
	core, logs := observer.New(zap.DebugLevel)
	tracer := &recordingTracer{}
	timetabler := NewBacktrackingTimetabler(Options{Logger: zap.New(core), Tracer: tracer})

	//** Act
	_, _, backtracks, err := timetabler.Build(context.Background(), buildInput(t, backtrackScenario()))

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, 4, tracer.commits) // Three placements of A and one of B
	assert.Equal(t, int(backtracks), tracer.rollbacks)
	assert.Equal(t, 2, tracer.exhausted)
	assert.Equal(t, 1, logs.FilterMessage("schedule built").Len())
	assert.Equal(t, tracer.rollbacks, logs.FilterMessage("session rolled back").Len())
}

// Random instances with plenty of room time; every schedule found must pass the verifier and partition each class
func TestBacktrackingTimetablerRandomInstances(t *testing.T) {
	g := gomega.NewWithT(t)
	random := rand.New(rand.NewSource(42))

	for i := range 10 {
		//** Arrange
		modelInput := buildInput(t, randomScenario(random, 4+i, 20+5*i, 2+i%3))
		timetabler := NewBacktrackingTimetabler(Options{Granularity: time.Hour})

		//** Act
		timetable, _, _, err := timetabler.Build(context.Background(), modelInput)

		//** Assert
		g.Expect(err).NotTo(gomega.HaveOccurred())
		g.Expect(Verify(timetable, modelInput).Failed()).To(gomega.BeEmpty())

		rooms := lo.KeyBy(modelInput.Rooms, func(room Room) string { return room.Id })
		for _, class := range modelInput.Classes {
			sessions := sessionsOf(timetable, class.Id)
			seated := lo.FlatMap(sessions, func(session ExamSession, _ int) []string { return session.Students })
			g.Expect(seated).To(gomega.ConsistOf(class.Students))
			for _, session := range sessions {
				g.Expect(session.Students).NotTo(gomega.BeEmpty())
				g.Expect(uint64(len(session.Students))).To(gomega.BeNumerically("<=", rooms[session.Room].Capacity))
				g.Expect(session.Slot.Duration()).To(gomega.Equal(class.Duration))
			}
		}
	}
}

// Builds an instance whose rooms are open for a whole week, so that it's always satisfiable
func randomScenario(random *rand.Rand, classes, students, rooms int) RawModelInput {
	raw := RawModelInput{}
	for i := range classes {
		raw.Classes = append(raw.Classes, RawClass{Iri: fmt.Sprintf("C%02d", i), ExamDuration: float64(1 + random.Intn(3))})
	}
	for i := range students {
		picks := random.Perm(classes)[:min(classes, 1+random.Intn(3))]
		enrolledIn := lo.Map(picks, func(class int, _ int) string { return raw.Classes[class].Iri })
		raw.Students = append(raw.Students, enroll(fmt.Sprintf("s%03d", i), enrolledIn...))
	}
	for i := range rooms {
		availability := make([]RawAvailability, 0)
		for day := 2; day <= 6; day++ {
			availability = append(availability, RawAvailability{
				From:  fmt.Sprintf("2025-06-%02dT08:00:00", day),
				Until: fmt.Sprintf("2025-06-%02dT20:00:00", day),
			})
		}
		raw.Rooms = append(raw.Rooms, RawRoom{Iri: fmt.Sprintf("R%02d", i), Capacity: uint64(5 + random.Intn(20)), Availability: availability})
	}
	return raw
}
