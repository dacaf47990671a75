package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sistema-ministerial-api/internal/dto"
	"github.com/noah-isme/sistema-ministerial-api/internal/models"
	"github.com/noah-isme/sistema-ministerial-api/internal/repository"
	"github.com/noah-isme/sistema-ministerial-api/internal/rules"
	appErrors "github.com/noah-isme/sistema-ministerial-api/pkg/errors"
)

type assignmentRepository interface {
	TryLockWeek(ctx context.Context, exec sqlx.ExtContext, congregationID string, week models.Week) (bool, error)
	ListByWeek(ctx context.Context, exec sqlx.ExtContext, congregationID string, week models.Week) ([]models.Assignment, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, congregationID, id string) (*models.Assignment, error)
	History(ctx context.Context, congregationID string, from, to models.Week) ([]models.AssignmentHistory, error)
	Upsert(ctx context.Context, exec sqlx.ExtContext, assignments []models.Assignment) error
	Update(ctx context.Context, exec sqlx.ExtContext, assignment *models.Assignment) error
	DuplicateStudents(ctx context.Context, exec sqlx.ExtContext, congregationID string, week models.Week) ([]string, error)
}

type rosterSource interface {
	Roster(ctx context.Context, congregationID string) ([]models.Student, error)
}

// GeneratorConfig governs the generation engine.
type GeneratorConfig struct {
	MinorAge            int
	AllowDoubleBooking  bool
	FairnessWindowWeeks int
	HistoryWeeks        int
}

// AssignmentService generates weekly designations and applies instructor review.
type AssignmentService struct {
	tx          txProvider
	assignments assignmentRepository
	parts       meetingPartRepository
	roster      rosterSource
	table       rules.Table
	cfg         GeneratorConfig
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAssignmentService wires generation dependencies.
func NewAssignmentService(
	tx txProvider,
	assignments assignmentRepository,
	parts meetingPartRepository,
	roster rosterSource,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg GeneratorConfig,
) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HistoryWeeks <= 0 {
		cfg.HistoryWeeks = 52
	}
	return &AssignmentService{
		tx:          tx,
		assignments: assignments,
		parts:       parts,
		roster:      roster,
		table:       rules.NewTable(cfg.MinorAge),
		cfg:         cfg,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *AssignmentService) engine(allowOverride *bool) *rules.Engine {
	allow := s.cfg.AllowDoubleBooking
	if allowOverride != nil {
		allow = *allowOverride
	}
	return rules.NewEngine(s.table, rules.Options{AllowDoubleBooking: allow, FairnessWindowWeeks: s.cfg.FairnessWindowWeeks})
}

// weekSnapshot is everything loaded for one congregation week.
type weekSnapshot struct {
	students []models.Student
	history  []models.AssignmentHistory
	existing []models.Assignment
	parts    []models.MeetingPart
}

func (w weekSnapshot) rules(week models.Week) *rules.Snapshot {
	return &rules.Snapshot{
		Week:     week,
		Registry: rules.NewRegistry(w.students),
		History:  rules.NewHistory(w.history, week),
	}
}

// loadSnapshot reads roster, history, assignments and, when withParts is set, the
// program concurrently. exec scopes the assignment read to a transaction.
func (s *AssignmentService) loadSnapshot(ctx context.Context, exec sqlx.ExtContext, congregationID string, week models.Week, withParts bool) (weekSnapshot, error) {
	var snap weekSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.timed("snapshot_roster", func() error {
		students, err := s.roster.Roster(gctx, congregationID)
		snap.students = students
		return err
	}))
	g.Go(s.timed("snapshot_history", func() error {
		history, err := s.assignments.History(gctx, congregationID, week.Add(-s.cfg.HistoryWeeks), week)
		snap.history = history
		return err
	}))
	g.Go(s.timed("snapshot_week", func() error {
		existing, err := s.assignments.ListByWeek(gctx, exec, congregationID, week)
		snap.existing = existing
		return err
	}))
	if withParts {
		g.Go(s.timed("snapshot_program", func() error {
			parts, err := s.parts.ListByWeek(gctx, congregationID, week)
			snap.parts = parts
			return err
		}))
	}
	if err := g.Wait(); err != nil {
		return weekSnapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load week snapshot")
	}
	return snap, nil
}

func (s *AssignmentService) timed(label string, fn func() error) func() error {
	return func() error {
		start := time.Now()
		err := fn()
		s.metrics.ObserveDBQuery(label, time.Since(start))
		return err
	}
}

// Generate fills the week's parts. Runs for the same congregation week are
// serialised by a transaction-scoped advisory lock; a concurrent run fails with LOCKED.
func (s *AssignmentService) Generate(ctx context.Context, congregationID string, req dto.GenerateAssignmentsRequest) (resp *dto.GenerateAssignmentsResponse, err error) {
	start := s.now()
	outcome := "error"
	defer func() {
		if err == nil {
			outcome = "success"
		} else if appErrors.FromError(err).Code == appErrors.ErrLocked.Code {
			outcome = "locked"
		}
		if resp != nil {
			st := resp.Statistics
			s.metrics.ObserveGeneration(outcome, time.Since(start), st.Filled, st.Unfillable, st.AssistantPending)
			return
		}
		s.metrics.ObserveGeneration(outcome, time.Since(start), 0, 0, 0)
	}()

	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}
	week, err := models.ParseWeek(req.Week)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid week")
	}
	var supplied []models.MeetingPart
	if len(req.Parts) > 0 {
		if supplied, err = BuildProgram(congregationID, week, req.Parts); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	locked, err := s.assignments.TryLockWeek(ctx, tx, congregationID, week)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock week")
	}
	if !locked {
		err = appErrors.Clone(appErrors.ErrLocked, "generation already running for week "+week.String())
		return nil, err
	}

	snap, err := s.loadSnapshot(ctx, tx, congregationID, week, true)
	if err != nil {
		return nil, err
	}
	if len(snap.parts) == 0 {
		if len(supplied) == 0 {
			err = appErrors.Clone(appErrors.ErrNotFound, "program not found for week "+week.String())
			return nil, err
		}
		if err = s.parts.CreateBatch(ctx, tx, supplied); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "program already exists for week "+week.String())
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
		}
		snap.parts = supplied
	}

	engine := s.engine(req.AllowDoubleBooking)
	plan := engine.Plan(rules.PlanInput{
		Snapshot:   snap.rules(week),
		Parts:      snap.parts,
		Existing:   snap.existing,
		Regenerate: req.Regenerate,
	})

	changed := plan.Changed()
	if len(changed) > 0 {
		if err = s.assignments.Upsert(ctx, tx, changed); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "assignments changed concurrently")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save assignments")
		}
	}
	if !engine.Options().AllowDoubleBooking {
		dups, dupErr := s.assignments.DuplicateStudents(ctx, tx, congregationID, week)
		if dupErr != nil {
			err = appErrors.Wrap(dupErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify assignments")
			return nil, err
		}
		if len(dups) > 0 {
			err = appErrors.Clone(appErrors.ErrConflict, "students assigned more than once: "+strings.Join(dups, ", "))
			return nil, err
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit assignments")
	}

	written := make(map[string]models.Assignment, len(changed))
	for _, a := range changed {
		written[a.PartID] = a
	}
	final := plan.Assignments()
	for i, a := range final {
		if w, ok := written[a.PartID]; ok {
			final[i] = w
		}
	}

	elapsed := time.Since(start)
	resp = &dto.GenerateAssignmentsResponse{
		Week:             week.String(),
		Assignments:      s.views(final, snap.parts, snap.students),
		Unfillable:       plan.Unfillable,
		AssistantPending: plan.AssistantPending,
		Statistics: dto.GenerationStatistics{
			TotalParts:       plan.Statistics.TotalParts,
			Filled:           plan.Statistics.Filled,
			Unfillable:       plan.Statistics.Unfillable,
			AssistantPending: plan.Statistics.AssistantPending,
			Preserved:        plan.Statistics.Preserved,
			Written:          plan.Statistics.Written,
			ActiveStudents:   plan.Statistics.ActiveStudents,
			DurationMs:       elapsed.Milliseconds(),
		},
	}
	s.logger.Info("assignments generated",
		zap.String("congregation_id", congregationID),
		zap.String("week", week.String()),
		zap.Int("parts", plan.Statistics.TotalParts),
		zap.Int("filled", plan.Statistics.Filled),
		zap.Int("unfillable", plan.Statistics.Unfillable),
		zap.Int("assistant_pending", plan.Statistics.AssistantPending),
		zap.Int("written", plan.Statistics.Written),
		zap.Bool("regenerate", req.Regenerate),
		zap.Duration("duration", elapsed),
	)
	return resp, nil
}

// ListWeek returns the week's assignments in program order.
func (s *AssignmentService) ListWeek(ctx context.Context, congregationID string, week models.Week) ([]dto.AssignmentView, error) {
	snap, err := s.loadSnapshot(ctx, nil, congregationID, week, true)
	if err != nil {
		return nil, err
	}
	return s.views(snap.existing, snap.parts, snap.students), nil
}

// Eligible previews the candidates for one part. Students already holding a part
// that week are listed with Busy set.
func (s *AssignmentService) Eligible(ctx context.Context, congregationID string, week models.Week, partID string) ([]dto.EligibleCandidate, error) {
	part, err := s.parts.FindByID(ctx, congregationID, partID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "meeting part not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting part")
	}
	if !part.Week.Equal(week) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "meeting part not found for week "+week.String())
	}
	snap, err := s.loadSnapshot(ctx, nil, congregationID, week, false)
	if err != nil {
		return nil, err
	}

	ruleSnap := snap.rules(week)
	ruleSnap.Unavailable = rules.Busy{}
	busy := rules.Busy{}
	for _, a := range snap.existing {
		if a.Status == models.AssignmentStatusCancelled {
			ruleSnap.Unavailable.Mark(a.Primary())
			continue
		}
		if a.PartID != part.ID {
			busy.Mark(a.Primary(), a.Assistant())
		}
	}

	candidates := s.engine(nil).Eligible(ruleSnap, part.Type, rules.Busy{})
	out := make([]dto.EligibleCandidate, 0, len(candidates))
	for _, c := range candidates {
		row := dto.EligibleCandidate{
			StudentID:  c.Student.ID,
			FullName:   c.Student.FullName,
			Gender:     string(c.Student.Gender),
			Cargo:      string(c.Student.Cargo),
			WeeksSince: c.WeeksSince,
			Busy:       busy.Has(c.Student.ID),
		}
		if c.LastAssigned != nil {
			last := c.LastAssigned.String()
			row.LastAssigned = &last
		}
		out = append(out, row)
	}
	return out, nil
}

// Confirm records instructor approval of a generated or reassigned part.
func (s *AssignmentService) Confirm(ctx context.Context, congregationID, id string) (*models.Assignment, error) {
	return s.review(ctx, congregationID, id, func(a *models.Assignment, _ *reviewContext) error {
		if !models.CanTransition(a.State, models.PartStateConfirmed) {
			return appErrors.Clone(appErrors.ErrConflict, "cannot confirm a "+string(a.State)+" part")
		}
		if a.Primary() == "" {
			return appErrors.Clone(appErrors.ErrConflict, "assign a student before confirming")
		}
		a.State = models.PartStateConfirmed
		return nil
	})
}

// Reassign replaces the students of a part. The choice is checked against the same
// qualification, pairing and uniqueness rules the generator applies.
func (s *AssignmentService) Reassign(ctx context.Context, congregationID, id string, req dto.ReassignRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reassignment payload")
	}
	return s.review(ctx, congregationID, id, func(a *models.Assignment, rc *reviewContext) error {
		if !models.CanTransition(a.State, models.PartStateReassigned) {
			return appErrors.Clone(appErrors.ErrConflict, "cannot reassign a "+string(a.State)+" part")
		}
		engine := s.engine(nil)
		primary, ok := rc.snapshot.Registry.Get(req.PrimaryStudentID)
		if !ok || !primary.Active {
			return appErrors.Clone(appErrors.ErrValidation, "primary student not found or inactive")
		}
		if !s.table.Qualified(primary, rc.part.Type) {
			return appErrors.Clone(appErrors.ErrValidation, "student is not qualified for "+string(rc.part.Type))
		}
		if rc.snapshot.Unavailable.Has(primary.ID) || (!engine.Options().AllowDoubleBooking && rc.busy.Has(primary.ID)) {
			return appErrors.Clone(appErrors.ErrConflict, "student already has a part this week")
		}

		a.PrimaryStudentID = &primary.ID
		a.AssistantStudentID = nil
		a.AssistantPending = false
		switch {
		case req.AssistantStudentID != nil && !rc.part.NeedsAssistant:
			return appErrors.Clone(appErrors.ErrValidation, "part does not take an assistant")
		case req.AssistantStudentID != nil:
			assistant, found := rc.snapshot.Registry.Get(*req.AssistantStudentID)
			if !found {
				return appErrors.Clone(appErrors.ErrValidation, "assistant not found")
			}
			rc.busy.Mark(primary.ID)
			if reason := engine.CheckAssistant(rc.snapshot, rc.part.Type, primary, assistant, rc.busy); reason != "" {
				return appErrors.Clone(appErrors.ErrValidation, "assistant rejected: "+string(reason))
			}
			a.AssistantStudentID = &assistant.ID
		case rc.part.NeedsAssistant:
			a.AssistantPending = true
		}
		a.State = models.PartStateReassigned
		a.Status = models.AssignmentStatusDesignated
		if req.Notes != "" {
			a.Notes = req.Notes
		}
		return nil
	})
}

// UpdateStatus marks a designation as done or cancelled. Cancelling returns the part
// to PENDING so the next generation run refills it without the cancelled primary.
func (s *AssignmentService) UpdateStatus(ctx context.Context, congregationID, id string, req dto.UpdateAssignmentStatusRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	status := models.AssignmentStatus(req.Status)
	return s.review(ctx, congregationID, id, func(a *models.Assignment, _ *reviewContext) error {
		switch status {
		case models.AssignmentStatusDone:
			if a.State != models.PartStateConfirmed && a.State != models.PartStateReassigned {
				return appErrors.Clone(appErrors.ErrConflict, "only reviewed parts can be marked as done")
			}
			if a.Status == models.AssignmentStatusCancelled {
				return appErrors.Clone(appErrors.ErrConflict, "designation was cancelled")
			}
		case models.AssignmentStatusCancelled:
			if a.Status == models.AssignmentStatusDone {
				return appErrors.Clone(appErrors.ErrConflict, "designation already done")
			}
			if a.Primary() == "" {
				return appErrors.Clone(appErrors.ErrConflict, "part has no designation to cancel")
			}
			a.State = models.PartStatePending
		}
		a.Status = status
		if req.Notes != "" {
			a.Notes = req.Notes
		}
		return nil
	})
}

type reviewContext struct {
	part     *models.MeetingPart
	snapshot *rules.Snapshot
	busy     rules.Busy
}

// review loads an assignment under the week lock, applies mutate and saves it.
func (s *AssignmentService) review(ctx context.Context, congregationID, id string, mutate func(*models.Assignment, *reviewContext) error) (result *models.Assignment, err error) {
	current, err := s.assignments.FindByID(ctx, nil, congregationID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	locked, err := s.assignments.TryLockWeek(ctx, tx, congregationID, current.Week)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock week")
	}
	if !locked {
		err = appErrors.Clone(appErrors.ErrLocked, "week "+current.Week.String()+" is being generated")
		return nil, err
	}

	part, err := s.parts.FindByID(ctx, congregationID, current.PartID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting part")
	}
	snap, err := s.loadSnapshot(ctx, tx, congregationID, current.Week, false)
	if err != nil {
		return nil, err
	}

	rc := &reviewContext{part: part, snapshot: snap.rules(current.Week), busy: rules.Busy{}}
	rc.snapshot.Unavailable = rules.Busy{}
	var assignment *models.Assignment
	for i := range snap.existing {
		a := snap.existing[i]
		if a.ID == id {
			assignment = &a
			continue
		}
		if a.Status == models.AssignmentStatusCancelled {
			rc.snapshot.Unavailable.Mark(a.Primary())
			continue
		}
		rc.busy.Mark(a.Primary(), a.Assistant())
	}
	if assignment == nil {
		assignment = current
	}

	if err = mutate(assignment, rc); err != nil {
		return nil, err
	}
	if err = s.assignments.Update(ctx, tx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit assignment")
	}
	s.logger.Info("assignment reviewed",
		zap.String("assignment_id", id),
		zap.String("state", string(assignment.State)),
		zap.String("status", string(assignment.Status)),
	)
	return assignment, nil
}

func (s *AssignmentService) views(assignments []models.Assignment, parts []models.MeetingPart, students []models.Student) []dto.AssignmentView {
	partByID := make(map[string]models.MeetingPart, len(parts))
	for _, p := range parts {
		partByID[p.ID] = p
	}
	names := make(map[string]string, len(students))
	for _, st := range students {
		names[st.ID] = st.FullName
	}

	ordered := make([]models.Assignment, len(assignments))
	copy(ordered, assignments)
	rank := make(map[string]int, len(parts))
	for i, p := range rules.SortParts(parts) {
		rank[p.ID] = i
	}
	sortAssignments(ordered, rank)

	views := make([]dto.AssignmentView, 0, len(ordered))
	for _, a := range ordered {
		part := partByID[a.PartID]
		views = append(views, dto.AssignmentView{
			Assignment:    a,
			PartTitle:     part.Title,
			PartOrdinal:   part.Ordinal,
			PartSection:   part.Section,
			PrimaryName:   names[a.Primary()],
			AssistantName: names[a.Assistant()],
		})
	}
	return views
}

func sortAssignments(assignments []models.Assignment, rank map[string]int) {
	sort.SliceStable(assignments, func(i, j int) bool {
		ri, okI := rank[assignments[i].PartID]
		rj, okJ := rank[assignments[j].PartID]
		if okI != okJ {
			return okI
		}
		return ri < rj
	})
}
