package controllers

import (
	"net/http"

	"github.com/angelmondragon/venueops-backend/api/responses"
	"github.com/angelmondragon/venueops-backend/api/validators"
	"github.com/angelmondragon/venueops-backend/internal/voids"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

type voidRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// VoidTransaction reverses a purchase and reports the refund.
func VoidTransaction(svc voids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := decodeVoid(r, svc, "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VoidTransaction(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// VoidAdmission marks an admission event voided.
func VoidAdmission(svc voids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := decodeVoid(r, svc, "admissionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.VoidAdmission(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"admission_id": input.ID, "voided": true})
	}
}

func decodeVoid(r *http.Request, svc voids.Service, param string) (voids.VoidInput, error) {
	if svc == nil {
		return voids.VoidInput{}, pkgerrors.New(pkgerrors.CodeInternal, "void service unavailable")
	}
	actorID, err := requireActor(r)
	if err != nil {
		return voids.VoidInput{}, err
	}
	id, err := pathUUID(r, param)
	if err != nil {
		return voids.VoidInput{}, err
	}

	var payload voidRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return voids.VoidInput{}, err
	}
	return voids.VoidInput{ID: id, Reason: payload.Reason, ActorID: actorID}, nil
}
