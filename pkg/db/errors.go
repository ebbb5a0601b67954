package db

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
)

// SQLSTATE codes that indicate a lost race rather than a bad request.
var raceSQLStates = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

// IsRaceFailure reports serialization, deadlock and lock errors from Postgres
// (pgx or lib/pq) and busy/locked errors from SQLite.
func IsRaceFailure(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := pkgerrors.AsStoreError(err); ok {
		_, race := raceSQLStates[se.SQLState]
		return race
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "sqlite_busy")
}

// ClassifyError converts a raw store error into the engine taxonomy. Typed
// errors pass through untouched, races become CONFLICT, cancellation becomes
// DEPENDENCY_ERROR and everything else is STORE_FAILURE with the store's message.
func ClassifyError(err error, step string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step+": operation cancelled")
	}
	if IsRaceFailure(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, step+": concurrent modification, retry the operation")
	}
	return pkgerrors.Wrap(pkgerrors.CodeStoreFailure, err, step+": "+storeMessage(err))
}

func storeMessage(err error) string {
	if se, ok := pkgerrors.AsStoreError(err); ok && se.Message != "" {
		return se.Message
	}
	return err.Error()
}
