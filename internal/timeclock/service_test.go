package timeclock

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/venueops-backend/internal/users"
	"github.com/angelmondragon/venueops-backend/pkg/db/dbtest"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTimeclockService(t *testing.T, clock func() time.Time) (Service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.Client(t)
	svc, err := NewService(ServiceParams{
		Tx:     client,
		Repo:   NewRepository(conn),
		Users:  users.NewRepository(conn),
		Outbox: outbox.NewService(outbox.NewRepository(conn), nil),
		Clock:  clock,
	})
	require.NoError(t, err)
	return svc, conn
}

func seedUser(t *testing.T, conn *gorm.DB, first, last string) uuid.UUID {
	t.Helper()
	u, err := users.NewRepository(conn).Create(context.Background(), users.CreateUserDTO{
		Email:     first + "@venue.test",
		FirstName: first,
		LastName:  last,
	})
	require.NoError(t, err)
	return u.ID
}

func seedPunches(t *testing.T, conn *gorm.DB, user uuid.UUID, times ...time.Time) {
	t.Helper()
	repo := NewRepository(conn)
	for _, when := range times {
		require.NoError(t, repo.CreateEvent(context.Background(), &models.TimeClockEvent{
			UserID:     user,
			HourCodeID: uuid.New(),
			CreatedBy:  user,
			CreatedAt:  when,
		}))
	}
}

func TestShiftsByUserReportsSortedUsers(t *testing.T) {
	svc, conn := newTimeclockService(t, nil)
	zoe := seedUser(t, conn, "Zoe", "Adams")
	ann := seedUser(t, conn, "Ann", "Brown")
	stranger := uuid.New()

	seedPunches(t, conn, ann, at(9, 0), at(12, 0), at(13, 0), at(17, 0))
	seedPunches(t, conn, zoe, at(10, 0), at(11, 20), at(15, 0))
	seedPunches(t, conn, stranger, at(8, 0), at(9, 0))
	seedPunches(t, conn, ann, day.AddDate(0, 0, 1).Add(9*time.Hour))

	reports, err := svc.ShiftsByUser(context.Background(), ShiftQuery{From: day, To: day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	require.Len(t, reports, 3)

	// unknown users sort first with an empty profile
	assert.Equal(t, stranger, reports[0].UserID)
	assert.Empty(t, reports[0].LastName)

	assert.Equal(t, zoe, reports[1].UserID)
	assert.Equal(t, (80 * time.Minute).Milliseconds(), reports[1].TotalWorkedMs)
	assert.Equal(t, "1.33", reports[1].TotalWorkedHours.String())
	assert.True(t, reports[1].OpenShift)

	assert.Equal(t, ann, reports[2].UserID)
	assert.Equal(t, "Brown", reports[2].LastName)
	assert.Len(t, reports[2].Shifts, 2)
	assert.Equal(t, "7", reports[2].TotalWorkedHours.String())
	assert.False(t, reports[2].OpenShift)
}

func TestShiftsByUserFiltersOneUser(t *testing.T) {
	svc, conn := newTimeclockService(t, nil)
	ann := seedUser(t, conn, "Ann", "Brown")
	bob := seedUser(t, conn, "Bob", "Cole")
	seedPunches(t, conn, ann, at(9, 0), at(10, 0))
	seedPunches(t, conn, bob, at(9, 0), at(11, 0))

	reports, err := svc.ShiftsByUser(context.Background(), ShiftQuery{UserID: &bob, From: day, To: day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, bob, reports[0].UserID)
	assert.Equal(t, (2 * time.Hour).Milliseconds(), reports[0].TotalWorkedMs)
}

func TestShiftsByUserValidatesRange(t *testing.T) {
	svc, _ := newTimeclockService(t, nil)

	_, err := svc.ShiftsByUser(context.Background(), ShiftQuery{From: day, To: day})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidOperation), "got %v", err)

	reports, err := svc.ShiftsByUser(context.Background(), ShiftQuery{From: day, To: day.Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestPunchAlternatesPolarity(t *testing.T) {
	now := at(9, 0)
	svc, conn := newTimeclockService(t, func() time.Time { return now })
	user := seedUser(t, conn, "Ann", "Brown")
	actor := uuid.New()

	first, err := svc.Punch(context.Background(), PunchInput{UserID: user, HourCodeID: uuid.New(), ActorID: actor})
	require.NoError(t, err)
	assert.Equal(t, enums.PunchClockIn, first.Type)

	now = at(12, 30)
	second, err := svc.Punch(context.Background(), PunchInput{UserID: user, HourCodeID: uuid.New(), ActorID: actor})
	require.NoError(t, err)
	assert.Equal(t, enums.PunchClockOut, second.Type)

	now = at(13, 0)
	third, err := svc.Punch(context.Background(), PunchInput{UserID: user, HourCodeID: uuid.New(), ActorID: actor})
	require.NoError(t, err)
	assert.Equal(t, enums.PunchClockIn, third.Type)

	assert.EqualValues(t, 3, dbtest.Count(t, conn, &models.OutboxEvent{}))

	reports, err := svc.ShiftsByUser(context.Background(), ShiftQuery{From: day, To: day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, (210 * time.Minute).Milliseconds(), reports[0].TotalWorkedMs)
	assert.True(t, reports[0].OpenShift)
}

func TestPunchClosesShiftAcrossMidnight(t *testing.T) {
	now := at(23, 0)
	svc, conn := newTimeclockService(t, func() time.Time { return now })
	user := seedUser(t, conn, "Ann", "Brown")
	actor := uuid.New()

	in, err := svc.Punch(context.Background(), PunchInput{UserID: user, HourCodeID: uuid.New(), ActorID: actor})
	require.NoError(t, err)
	assert.Equal(t, enums.PunchClockIn, in.Type)

	now = day.AddDate(0, 0, 1).Add(2 * time.Hour)
	out, err := svc.Punch(context.Background(), PunchInput{UserID: user, HourCodeID: uuid.New(), ActorID: actor})
	require.NoError(t, err)
	assert.Equal(t, enums.PunchClockOut, out.Type)

	reports, err := svc.ShiftsByUser(context.Background(), ShiftQuery{From: day, To: day.AddDate(0, 0, 2)})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Len(t, reports[0].Shifts, 1)
	assert.False(t, reports[0].OpenShift)
	assert.Equal(t, (3 * time.Hour).Milliseconds(), reports[0].TotalWorkedMs)
}

func TestPunchValidation(t *testing.T) {
	svc, _ := newTimeclockService(t, nil)
	_, err := svc.Punch(context.Background(), PunchInput{HourCodeID: uuid.New(), ActorID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidOperation), "got %v", err)
	_, err = svc.Punch(context.Background(), PunchInput{UserID: uuid.New(), ActorID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidOperation), "got %v", err)
}
