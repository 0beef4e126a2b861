package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"

	"github.com/limaJavier/examscheduling/pkg/model"
)

// Run is a persisted scheduling result.
type Run struct {
	ID          string    `db:"id"`
	Fingerprint string    `db:"fingerprint"`
	Nodes       uint64    `db:"nodes"`
	Backtracks  uint64    `db:"backtracks"`
	Sessions    int       `db:"sessions"`
	CreatedAt   time.Time `db:"created_at"`

	Timetable []model.ExamSession `db:"-"`
}

type sessionRow struct {
	RunID     string         `db:"run_id"`
	SessionID string         `db:"session_id"`
	Position  int            `db:"position"` // Commit order within the run
	ClassIri  string         `db:"class_iri"`
	RoomIri   string         `db:"room_iri"`
	StartsAt  time.Time      `db:"starts_at"`
	EndsAt    time.Time      `db:"ends_at"`
	Students  pq.StringArray `db:"students"`
}

// ScheduleRepository persists runs and their sessions.
type ScheduleRepository struct {
	db *sqlx.DB
}

func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Save stores the run and its sessions atomically. Saving an existing run is a no-op.
func (r *ScheduleRepository) Save(ctx context.Context, run *Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.Sessions = len(run.Timetable)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const runQuery = `INSERT INTO schedule_runs (id, fingerprint, nodes, backtracks, sessions, created_at)
VALUES (:id, :fingerprint, :nodes, :backtracks, :sessions, :created_at)
ON CONFLICT (id) DO NOTHING`
	if _, err := tx.NamedExecContext(ctx, runQuery, run); err != nil {
		return fmt.Errorf("insert schedule run: %w", err)
	}

	const sessionQuery = `INSERT INTO exam_sessions (run_id, session_id, position, class_iri, room_iri, starts_at, ends_at, students)
VALUES (:run_id, :session_id, :position, :class_iri, :room_iri, :starts_at, :ends_at, :students)
ON CONFLICT (run_id, session_id) DO NOTHING`
	for position, session := range run.Timetable {
		row := sessionRow{
			RunID:     run.ID,
			SessionID: session.Id,
			Position:  position,
			ClassIri:  session.Class,
			RoomIri:   session.Room,
			StartsAt:  session.Slot.Start,
			EndsAt:    session.Slot.End,
			Students:  pq.StringArray(session.Students),
		}
		if _, err := tx.NamedExecContext(ctx, sessionQuery, row); err != nil {
			return fmt.Errorf("insert exam session %v: %w", session.Id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save run: %w", err)
	}
	return nil
}

// Get loads a run with its timetable. Returns sql.ErrNoRows (wrapped) when the run doesn't exist.
func (r *ScheduleRepository) Get(ctx context.Context, id string) (*Run, error) {
	const runQuery = `SELECT id, fingerprint, nodes, backtracks, sessions, created_at FROM schedule_runs WHERE id = $1`
	var run Run
	if err := r.db.GetContext(ctx, &run, runQuery, id); err != nil {
		return nil, fmt.Errorf("get schedule run: %w", err)
	}

	const sessionsQuery = `SELECT run_id, session_id, position, class_iri, room_iri, starts_at, ends_at, students
FROM exam_sessions WHERE run_id = $1 ORDER BY position ASC`
	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, sessionsQuery, id); err != nil {
		return nil, fmt.Errorf("list exam sessions: %w", err)
	}

	run.Timetable = lo.Map(rows, func(row sessionRow, _ int) model.ExamSession {
		return model.ExamSession{
			Id:       row.SessionID,
			Class:    row.ClassIri,
			Room:     row.RoomIri,
			Slot:     model.Interval{Start: row.StartsAt.UTC(), End: row.EndsAt.UTC()},
			Students: lo.Ternary(row.Students == nil, []string{}, []string(row.Students)),
		}
	})
	return &run, nil
}
