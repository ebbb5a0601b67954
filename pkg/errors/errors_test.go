package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
		expose    bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized},
		{code: CodeNotFound, status: http.StatusNotFound, expose: true},
		{code: CodeInvalidOperation, status: http.StatusBadRequest, detailsOK: true, expose: true},
		{code: CodeConflict, status: http.StatusConflict, expose: true},
		{code: CodeStoreFailure, status: http.StatusBadRequest, detailsOK: true, expose: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests},
		{code: CodeInternal, status: http.StatusInternalServerError, retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
		if meta.ExposeMessage != tt.expose {
			t.Fatalf("code %s expected expose %v got %v", tt.code, tt.expose, meta.ExposeMessage)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeStoreFailure, cause, "create transaction")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeStoreFailure {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
	if wrapped.Error() != "STORE_FAILURE: create transaction: boom" {
		t.Fatalf("unexpected error text %q", wrapped.Error())
	}
}

func TestCodeOfAndIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeNotFound, "transaction not found"))
	if CodeOf(err) != CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %s", CodeOf(err))
	}
	if !IsCode(err, CodeNotFound) {
		t.Fatalf("expected IsCode to match")
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("untyped errors should map to INTERNAL_ERROR")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestAsStoreErrorReadsBothDrivers(t *testing.T) {
	pgxErr := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40001", Message: "could not serialize access"})
	se, ok := AsStoreError(pgxErr)
	if !ok || se.SQLState != "40001" {
		t.Fatalf("expected pgx sqlstate 40001, got %+v ok=%v", se, ok)
	}

	pqErr := &pq.Error{Code: "40P01", Message: "deadlock detected", Table: "inventory_items"}
	se, ok = AsStoreError(pqErr)
	if !ok || se.SQLState != "40P01" || se.Table != "inventory_items" {
		t.Fatalf("expected pq sqlstate 40P01, got %+v ok=%v", se, ok)
	}

	if _, ok := AsStoreError(stdErrors.New("plain")); ok {
		t.Fatalf("plain errors are not store errors")
	}
}

func TestDumpIncludesChainAndCode(t *testing.T) {
	err := Wrap(CodeConflict, &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}, "decrement stock")
	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", d.Code)
	}
	if d.SQLState != "40P01" {
		t.Fatalf("expected sql state, got %q", d.SQLState)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(d.Chain))
	}
}
