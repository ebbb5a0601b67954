package timeclock

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
	"github.com/angelmondragon/venueops-backend/pkg/metrics"
	"github.com/angelmondragon/venueops-backend/pkg/outbox"
	"github.com/angelmondragon/venueops-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/venueops-backend/pkg/ratelimit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	msPerHour = int64(time.Hour / time.Millisecond)
	// parallelThreshold is the event count above which reports fold per user
	// concurrently.
	parallelThreshold = 2000
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userDirectory interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

// ShiftQuery selects the punches of a report.
type ShiftQuery struct {
	UserID *uuid.UUID
	From   time.Time
	To     time.Time
}

// UserShiftReport is one user's shifts decorated with directory info.
type UserShiftReport struct {
	UserID           uuid.UUID       `json:"user_id"`
	FirstName        string          `json:"first_name"`
	LastName         string          `json:"last_name"`
	Email            string          `json:"email,omitempty"`
	Shifts           []Shift         `json:"shifts"`
	TotalWorkedMs    int64           `json:"total_worked_ms"`
	TotalWorkedHours decimal.Decimal `json:"total_worked_hours"`
	OpenShift        bool            `json:"open_shift"`
}

// PunchInput records one punch for UserID.
type PunchInput struct {
	UserID     uuid.UUID
	HourCodeID uuid.UUID
	ActorID    uuid.UUID
}

// PunchResult reports the stored punch and the polarity it took.
type PunchResult struct {
	EventID   uuid.UUID       `json:"event_id"`
	UserID    uuid.UUID       `json:"user_id"`
	Type      enums.PunchType `json:"type"`
	PunchedAt time.Time       `json:"punched_at"`
}

// Service reconstructs shift reports and records punches.
type Service interface {
	ShiftsByUser(ctx context.Context, query ShiftQuery) ([]UserShiftReport, error)
	Punch(ctx context.Context, input PunchInput) (*PunchResult, error)
}

type ServiceParams struct {
	Tx          txRunner
	Repo        Repository
	Users       userDirectory
	Outbox      outbox.Emitter
	Limiter     ratelimit.Limiter
	Metrics     *metrics.EngineMetrics
	Logger      *logger.Logger
	Parallelism int
	Clock       func() time.Time
}

type service struct {
	tx          txRunner
	repo        Repository
	users       userDirectory
	outbox      outbox.Emitter
	limiter     ratelimit.Limiter
	metrics     *metrics.EngineMetrics
	logg        *logger.Logger
	parallelism int
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("timeclock repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	limiter := params.Limiter
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:          params.Tx,
		repo:        params.Repo,
		users:       params.Users,
		outbox:      params.Outbox,
		limiter:     limiter,
		metrics:     params.Metrics,
		logg:        logg,
		parallelism: params.Parallelism,
		now:         now,
	}, nil
}

func (s *service) ShiftsByUser(ctx context.Context, query ShiftQuery) (reports []UserShiftReport, err error) {
	start := time.Now()
	defer func() { s.observe("shifts_by_user", start, err) }()

	if query.From.IsZero() || query.To.IsZero() || !query.From.Before(query.To) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation, "from must be before to")
	}

	events, err := s.repo.FindEvents(ctx, EventFilter{
		UserID: query.UserID,
		From:   query.From.UTC(),
		To:     query.To.UTC(),
	})
	if err != nil {
		return nil, db.ClassifyError(err, "load timeclock events")
	}

	var folded map[uuid.UUID]*UserShifts
	if s.parallelism > 1 && len(events) >= parallelThreshold {
		folded, err = ReconstructParallel(ctx, events, s.parallelism)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconstruct shifts")
		}
	} else {
		folded = Reconstruct(events)
	}
	if len(folded) == 0 {
		return []UserShiftReport{}, nil
	}

	ids := make([]uuid.UUID, 0, len(folded))
	for id := range folded {
		ids = append(ids, id)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, db.ClassifyError(err, "load users")
	}
	byID := make(map[uuid.UUID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	reports = make([]UserShiftReport, 0, len(folded))
	for id, acc := range folded {
		u := byID[id]
		reports = append(reports, UserShiftReport{
			UserID:           id,
			FirstName:        u.FirstName,
			LastName:         u.LastName,
			Email:            u.Email,
			Shifts:           acc.Shifts,
			TotalWorkedMs:    acc.TotalWorkedMs,
			TotalWorkedHours: WorkedHours(acc.TotalWorkedMs),
			OpenShift:        acc.OpenShift(),
		})
	}
	sort.Slice(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.UserID.String() < b.UserID.String()
	})
	return reports, nil
}

// WorkedHours renders milliseconds as hours rounded to two places.
func WorkedHours(ms int64) decimal.Decimal {
	return decimal.NewFromInt(ms).Div(decimal.NewFromInt(msPerHour)).Round(2)
}

// Punch stores a punch and reports whether it opened or closed a shift.
// Punches pair up in order over the user's whole history, so an odd number
// of earlier punches means a shift is open, even one that began yesterday.
func (s *service) Punch(ctx context.Context, input PunchInput) (result *PunchResult, err error) {
	start := time.Now()
	defer func() { s.observe("punch", start, err) }()

	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation, "user id required")
	}
	if input.HourCodeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation, "hour code id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation, "actor id required")
	}
	if err := s.limiter.Allow(ctx, ratelimit.ActionPunch, input.UserID.String()); err != nil {
		return nil, err
	}

	now := s.now().UTC()

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		prior, err := repo.CountEventsBefore(ctx, input.UserID, now)
		if err != nil {
			return db.ClassifyError(err, "count prior punches")
		}
		punchType := enums.PunchClockIn
		if prior%2 == 1 {
			punchType = enums.PunchClockOut
		}

		event := &models.TimeClockEvent{
			UserID:     input.UserID,
			HourCodeID: input.HourCodeID,
			CreatedBy:  input.ActorID,
			CreatedAt:  now,
		}
		if err := repo.CreateEvent(ctx, event); err != nil {
			return db.ClassifyError(err, "record punch")
		}

		result = &PunchResult{
			EventID:   event.ID,
			UserID:    event.UserID,
			Type:      punchType,
			PunchedAt: event.CreatedAt,
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPunchRecorded,
			AggregateType: enums.AggregateTimeClock,
			AggregateID:   event.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID},
			OccurredAt:    now,
			Data: payloads.PunchRecordedEvent{
				EventID:   event.ID,
				UserID:    event.UserID,
				PunchType: string(punchType),
				PunchedAt: now,
			},
		}); err != nil {
			return db.ClassifyError(err, "queue punch event")
		}
		return nil
	})
	if err != nil {
		return nil, db.ClassifyError(err, "punch")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":    result.UserID.String(),
		"punch_type": result.Type,
	})
	s.logg.Info(logCtx, "timeclock.punch_recorded")
	return result, nil
}

func (s *service) observe(op string, start time.Time, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = string(pkgerrors.CodeOf(err))
	}
	s.metrics.Observe(op, outcome, time.Since(start))
}
