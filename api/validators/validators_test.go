package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
)

type sampleRequest struct {
	Reason string `json:"reason" validate:"required,max=10"`
	Amount int    `json:"amount" validate:"min=1,max=200"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"reason":"","amount":0}`))
	var dest sampleRequest
	err := DecodeJSONBody(r, &dest)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["reason"] != "is required" || details["amount"] != "must be at least 1" {
		t.Fatalf("unexpected details %#v", typed.Details())
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"reason":"ok","amount":1,"extra":true}`))
	var dest sampleRequest
	if err := DecodeJSONBody(r, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryTimeAndUUID(t *testing.T) {
	r := httptest.NewRequest("GET", "/?from=2026-03-14T09:00:00Z&user_id=not-a-uuid", nil)
	from, err := ParseQueryTime(r, "from")
	if err != nil || from.Hour() != 9 {
		t.Fatalf("unexpected from %v err=%v", from, err)
	}
	if _, err := ParseQueryUUID(r, "user_id"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	missing, err := ParseQueryUUID(r, "other")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing parameter, got %v %v", missing, err)
	}
}

func TestSanitizeStringCountsRunes(t *testing.T) {
	if got := SanitizeString("  héllo wörld ", 5); got != "héllo" {
		t.Fatalf("unexpected %q", got)
	}
}
