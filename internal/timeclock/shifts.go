package timeclock

import (
	"context"
	"time"

	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Shift is a clock-in paired with its clock-out. ClockOut is nil while the
// shift is still open.
type Shift struct {
	ClockIn  time.Time  `json:"clock_in"`
	ClockOut *time.Time `json:"clock_out,omitempty"`
}

// Open reports whether the shift still waits for its clock-out.
func (s Shift) Open() bool {
	return s.ClockOut == nil
}

// UserShifts is one user's reconstructed shifts and closed worked time.
type UserShifts struct {
	UserID        uuid.UUID `json:"user_id"`
	Shifts        []Shift   `json:"shifts"`
	TotalWorkedMs int64     `json:"total_worked_ms"`
}

// OpenShift reports whether the user's last shift has no clock-out.
func (u *UserShifts) OpenShift() bool {
	return len(u.Shifts) > 0 && u.Shifts[len(u.Shifts)-1].Open()
}

func (u *UserShifts) apply(at time.Time) {
	if n := len(u.Shifts); n > 0 && u.Shifts[n-1].Open() {
		out := at
		u.Shifts[n-1].ClockOut = &out
		u.TotalWorkedMs += out.Sub(u.Shifts[n-1].ClockIn).Milliseconds()
		return
	}
	u.Shifts = append(u.Shifts, Shift{ClockIn: at})
}

// Reconstruct folds punches, already ordered by created_at, into shifts per
// user. A punch opens a shift when the user has none open and closes the open
// one otherwise. A trailing open shift is kept as is and never counted toward
// TotalWorkedMs. Only users with at least one punch appear in the result.
func Reconstruct(events []models.TimeClockEvent) map[uuid.UUID]*UserShifts {
	out := make(map[uuid.UUID]*UserShifts)
	for _, event := range events {
		acc, ok := out[event.UserID]
		if !ok {
			acc = &UserShifts{UserID: event.UserID}
			out[event.UserID] = acc
		}
		acc.apply(event.CreatedAt)
	}
	return out
}

// ReconstructParallel partitions events by user and folds each partition on
// its own goroutine, bounded by workers. The result equals Reconstruct(events).
func ReconstructParallel(ctx context.Context, events []models.TimeClockEvent, workers int) (map[uuid.UUID]*UserShifts, error) {
	order := make([]uuid.UUID, 0)
	partitions := make(map[uuid.UUID][]models.TimeClockEvent)
	for _, event := range events {
		if _, ok := partitions[event.UserID]; !ok {
			order = append(order, event.UserID)
		}
		partitions[event.UserID] = append(partitions[event.UserID], event)
	}

	results := make([]*UserShifts, len(order))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, userID := range order {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = Reconstruct(partitions[userID])[userID]
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]*UserShifts, len(results))
	for _, acc := range results {
		out[acc.UserID] = acc
	}
	return out, nil
}
