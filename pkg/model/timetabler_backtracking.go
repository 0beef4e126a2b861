package model

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Schedules classes through a depth-first search over (class, remaining students) work items.
//
// Classes are ordered once by descending enrollment (ties by identifier). For the head work item every candidate
// produced by the generator is checked, committed and explored recursively; a failed subtree is rolled back and the
// next candidate is tried. When a candidate leaves students unseated, a continuation work item for the same class is
// placed right after the current position, which is how oversized classes get split.
//
// The search is exponential in the worst case: the ordering heuristic and capacity-driven splitting are its only
// pruning, so it targets instances of tens of classes and hundreds of students. Use Options.MaxNodes or a context
// deadline to bound larger runs.
type backtrackingTimetabler struct {
	options Options
}

type workItem struct {
	class     ClassExam
	remaining []string
}

func NewBacktrackingTimetabler(options Options) Timetabler {
	if options.Granularity <= 0 {
		options.Granularity = DefaultGranularity
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	if options.Tracer == nil {
		options.Tracer = noopTracer{}
	}
	return &backtrackingTimetabler{options: options}
}

func (timetabler *backtrackingTimetabler) Build(ctx context.Context, modelInput ModelInput) (timetable []ExamSession, nodes uint64, backtracks uint64, err error) {
	logger := timetabler.options.Logger
	if ctx == nil {
		ctx = context.Background()
	}

	//** Initialize dependencies
	indexer := newIndexer(modelInput)
	search := &backtrackingSearch{
		ctx:       ctx,
		options:   timetabler.options,
		logger:    logger,
		generator: newCandidateGenerator(modelInput, timetabler.options.Granularity),
		checker:   newConsistencyChecker(modelInput),
		state:     newScheduleState(indexer),
	}

	//** Build work queue (largest classes first)
	queue := lo.Map(orderClasses(modelInput.Classes), func(class ClassExam, _ int) workItem {
		return workItem{class: class, remaining: slices.Clone(class.Students)}
	})
	logger.Info("scheduling classes",
		zap.Int("classes", len(queue)),
		zap.Int("rooms", len(modelInput.Rooms)),
		zap.Int("students", len(modelInput.Students)),
		zap.Duration("granularity", timetabler.options.Granularity),
	)

	//** Search
	if !search.solve(queue, 0) {
		reason := ReasonExhausted
		if search.stop != nil {
			reason = search.stop.Error()
		}
		err := UnschedulableError{
			Class:     search.blocked.class.Id,
			Remaining: len(search.blocked.remaining),
			Reason:    reason,
			Err:       search.stop,
		}
		logger.Warn("no feasible schedule", zap.Error(err), zap.Uint64("nodes", search.nodes), zap.Uint64("backtracks", search.backtracks))
		return nil, search.nodes, search.backtracks, err
	}

	//** Freeze schedule and verify it
	timetable = search.state.Sessions()
	if report := timetabler.Verify(timetable, modelInput); !report.Passed() {
		logger.Panic("scheduler produced an invalid schedule", zap.Error(report.Err()))
	}

	logger.Info("schedule built",
		zap.Int("sessions", len(timetable)),
		zap.Uint64("nodes", search.nodes),
		zap.Uint64("backtracks", search.backtracks),
	)
	return timetable, search.nodes, search.backtracks, nil
}

func (timetabler *backtrackingTimetabler) Verify(timetable []ExamSession, modelInput ModelInput) Report {
	return Verify(timetable, modelInput)
}

// Orders classes by descending enrollment, ties broken by identifier
func orderClasses(classes []ClassExam) []ClassExam {
	ordered := slices.Clone(classes)
	slices.SortStableFunc(ordered, func(a, b ClassExam) int {
		if len(a.Students) != len(b.Students) {
			return len(b.Students) - len(a.Students)
		}
		return strings.Compare(a.Id, b.Id)
	})
	return ordered
}

type backtrackingSearch struct {
	ctx       context.Context
	options   Options
	logger    *zap.Logger
	generator candidateGenerator
	checker   consistencyChecker
	state     *scheduleState

	nodes      uint64
	backtracks uint64
	stop       error    // Set once the search must be abandoned regardless of the remaining candidates
	blocked    workItem // Deepest work item that ran out of candidates
	blockedAt  int
}

// Returns whether every work item of the queue could be scheduled on top of the current state
func (search *backtrackingSearch) solve(queue []workItem, depth int) bool {
	if search.stop != nil {
		return false
	} else if len(queue) == 0 {
		return true
	}

	head := queue[0]
	if len(head.remaining) == 0 {
		return search.solve(queue[1:], depth)
	}

	for candidate := range search.generator.Candidates(head.class, head.remaining, search.state) {
		if search.stop = search.budget(); search.stop != nil {
			return false
		}
		search.nodes++

		if err := search.checker.Check(candidate, search.state); err != nil {
			search.logger.Debug("candidate rejected", zap.Error(err))
			continue
		}

		if search.try(candidate, head, queue[1:], depth) {
			return true
		} else if search.stop != nil {
			return false
		}
		search.backtracks++
	}

	if search.blocked.class.Id == "" || depth >= search.blockedAt {
		search.blocked, search.blockedAt = head, depth
	}
	search.options.Tracer.Exhausted(head.class.Id, len(head.remaining), depth)
	return false
}

// Commits the candidate and explores the rest of the queue. The commit is rolled back on every path but success
func (search *backtrackingSearch) try(candidate Candidate, head workItem, rest []workItem, depth int) (scheduled bool) {
	session := ExamSession{
		Id:       fmt.Sprintf("group_%04d", search.state.Len()+1),
		Class:    candidate.Class,
		Room:     candidate.Room,
		Slot:     candidate.Slot,
		Students: candidate.Students,
	}

	mark := search.state.Commit(session)
	search.options.Tracer.Commit(session, depth)
	search.logger.Debug("session committed",
		zap.String("session", session.Id),
		zap.String("class", session.Class),
		zap.String("room", session.Room),
		zap.Stringer("slot", session.Slot),
		zap.Int("students", len(session.Students)),
		zap.Int("depth", depth),
	)

	defer func() {
		if !scheduled {
			search.state.Rollback(mark)
			search.options.Tracer.Rollback(session, depth)
			search.logger.Debug("session rolled back", zap.String("session", session.Id), zap.Int("depth", depth))
		}
	}()

	// Place the continuation (if any) right after the current position
	next := rest
	if remaining := lo.Without(head.remaining, candidate.Students...); len(remaining) > 0 {
		next = append([]workItem{{class: head.class, remaining: remaining}}, rest...)
	}

	return search.solve(next, depth+1)
}

func (search *backtrackingSearch) budget() error {
	if err := search.ctx.Err(); err != nil {
		return fmt.Errorf("%v: %w", ReasonCancelled, err)
	}
	if search.options.MaxNodes > 0 && search.nodes >= search.options.MaxNodes {
		return fmt.Errorf("%v (%d nodes)", ReasonBudget, search.options.MaxNodes)
	}
	return nil
}
