package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/limaJavier/examscheduling/pkg/cache"
	"github.com/limaJavier/examscheduling/pkg/config"
	appErrors "github.com/limaJavier/examscheduling/pkg/errors"
	"github.com/limaJavier/examscheduling/pkg/export"
	"github.com/limaJavier/examscheduling/pkg/metrics"
	"github.com/limaJavier/examscheduling/pkg/model"
	"github.com/limaJavier/examscheduling/pkg/store"
)

var fingerprintNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/limaJavier/examscheduling"))

// Repository persists generated runs.
type Repository interface {
	Save(ctx context.Context, run *store.Run) error
	Get(ctx context.Context, id string) (*store.Run, error)
}

// Cache keeps recent runs by fingerprint.
type Cache interface {
	Get(ctx context.Context, fingerprint string) (*cache.Entry, bool, error)
	Set(ctx context.Context, fingerprint string, entry cache.Entry) error
}

// Run is the outcome of a scheduling request.
type Run struct {
	ID         string
	Timetable  []model.ExamSession
	Nodes      uint64
	Backtracks uint64
	Cached     bool
}

// ScheduleService runs the scheduler behind an optional cache and store.
type ScheduleService struct {
	cfg        config.SchedulerConfig
	timetabler model.Timetabler
	repo       Repository
	cache      Cache
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewScheduleService builds the service. repo, cache and metrics are optional.
func NewScheduleService(cfg config.SchedulerConfig, repo Repository, runCache Cache, m *metrics.Metrics, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	options := model.Options{
		Granularity: cfg.Granularity,
		MaxNodes:    cfg.MaxNodes,
		Logger:      logger.Named("scheduler"),
	}
	if m != nil {
		options.Tracer = m
	}
	return &ScheduleService{
		cfg:        cfg,
		timetabler: model.NewBacktrackingTimetabler(options),
		repo:       repo,
		cache:      runCache,
		metrics:    m,
		logger:     logger,
	}
}

// Fingerprint identifies an input together with the options that influence the search. Equal fingerprints yield
// equal schedules.
func (s *ScheduleService) Fingerprint(input model.ModelInput) string {
	canonical, err := json.Marshal(struct {
		Input       model.ModelInput
		Granularity time.Duration
		MaxNodes    uint64
	}{input, s.cfg.Granularity, s.cfg.MaxNodes})
	if err != nil {
		// ModelInput only holds strings, numbers and times
		panic(fmt.Sprintf("cannot fingerprint input: %v", err))
	}
	return uuid.NewSHA1(fingerprintNamespace, canonical).String()
}

// ParseInput decodes a raw input document, reporting load failures as invalid input.
func (s *ScheduleService) ParseInput(bytes []byte) (model.ModelInput, error) {
	input, err := model.InputFromBytes(bytes)
	if err != nil {
		return model.ModelInput{}, appErrors.FromModelError(err)
	}
	return input, nil
}

// Generate schedules the input, reusing a previous result for the same fingerprint when one is available.
func (s *ScheduleService) Generate(ctx context.Context, input model.ModelInput) (*Run, error) {
	started := time.Now()
	fingerprint := s.Fingerprint(input)
	logger := s.logger.With(zap.String("run_id", fingerprint))

	if run, ok := s.lookup(ctx, fingerprint, logger); ok {
		s.metrics.ObserveRun(metrics.ResultCached, time.Since(started))
		return run, nil
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	timetable, nodes, backtracks, err := s.timetabler.Build(ctx, input)
	if err != nil {
		var unschedulable model.UnschedulableError
		if errors.As(err, &unschedulable) {
			s.metrics.ObserveRun(metrics.ResultUnschedulable, time.Since(started))
			return nil, appErrors.FromModelError(err)
		}
		s.metrics.ObserveRun(metrics.ResultFailed, time.Since(started))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build schedule")
	}

	run := &Run{ID: fingerprint, Timetable: timetable, Nodes: nodes, Backtracks: backtracks}

	if s.repo != nil {
		record := &store.Run{ID: run.ID, Fingerprint: fingerprint, Nodes: nodes, Backtracks: backtracks, Timetable: timetable}
		if err := s.repo.Save(ctx, record); err != nil {
			s.metrics.ObserveRun(metrics.ResultFailed, time.Since(started))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule")
		}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, fingerprint, cache.Entry{RunID: run.ID, Nodes: nodes, Backtracks: backtracks, Timetable: timetable}); err != nil {
			logger.Warn("cannot cache schedule", zap.Error(err))
		}
	}

	s.metrics.ObserveRun(metrics.ResultScheduled, time.Since(started))
	logger.Info("schedule generated",
		zap.Int("sessions", len(timetable)),
		zap.Uint64("nodes", nodes),
		zap.Uint64("backtracks", backtracks),
		zap.Duration("elapsed", time.Since(started)),
	)
	return run, nil
}

// Get returns a previously generated run.
func (s *ScheduleService) Get(ctx context.Context, id string) (*Run, error) {
	if run, ok := s.lookup(ctx, id, s.logger.With(zap.String("run_id", id))); ok {
		return run, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
}

// Verify checks a timetable against the input.
func (s *ScheduleService) Verify(_ context.Context, input model.ModelInput, timetable []model.ExamSession) model.Report {
	return s.timetabler.Verify(timetable, input)
}

// VerifyDocument decodes an input and a published schedule and verifies the latter against the former.
func (s *ScheduleService) VerifyDocument(ctx context.Context, inputJson, scheduleJson map[string]any) (*VerificationResult, error) {
	input, err := model.InputFromMap(inputJson)
	if err != nil {
		return nil, appErrors.FromModelError(err)
	}
	timetable, err := export.DecodeDocument(scheduleJson)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return NewVerificationResult(s.Verify(ctx, input, timetable)), nil
}

// Looks the run up in the cache first and in the store afterwards. Lookup failures are logged and treated as misses
func (s *ScheduleService) lookup(ctx context.Context, id string, logger *zap.Logger) (*Run, bool) {
	if s.cache != nil {
		entry, found, err := s.cache.Get(ctx, id)
		if err != nil {
			logger.Warn("cannot read cached schedule", zap.Error(err))
		} else if found {
			return &Run{ID: entry.RunID, Timetable: entry.Timetable, Nodes: entry.Nodes, Backtracks: entry.Backtracks, Cached: true}, true
		}
	}

	if s.repo != nil {
		record, err := s.repo.Get(ctx, id)
		if err == nil {
			return &Run{ID: record.ID, Timetable: record.Timetable, Nodes: record.Nodes, Backtracks: record.Backtracks, Cached: true}, true
		} else if !errors.Is(err, sql.ErrNoRows) {
			logger.Warn("cannot read stored schedule", zap.Error(err))
		}
	}
	return nil, false
}
