package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/api/middleware"
	"github.com/angelmondragon/venueops-backend/api/responses"
	"github.com/angelmondragon/venueops-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/venueops-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

type checkoutLineRequest struct {
	ItemID     uuid.UUID `json:"item_id" validate:"required"`
	AmountSold int       `json:"amount_sold"`
}

// Amount bounds, duplicates and empty carts are judged by the processor so the
// register sees one set of messages.
type checkoutRequest struct {
	Lines []checkoutLineRequest `json:"lines" validate:"dive"`
}

// Checkout sells a cart and returns the receipt.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		actorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]checkoutsvc.CartLine, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, checkoutsvc.CartLine{ItemID: line.ItemID, AmountSold: line.AmountSold})
		}

		receipt, err := svc.Checkout(r.Context(), checkoutsvc.CheckoutInput{ActorID: actorID, Lines: lines})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}

func requireActor(r *http.Request) (uuid.UUID, error) {
	actorID := middleware.ActorIDFromContext(r.Context())
	if actorID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated staff member required")
	}
	return actorID, nil
}
