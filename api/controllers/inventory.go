package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/api/responses"
	"github.com/angelmondragon/venueops-backend/api/validators"
	"github.com/angelmondragon/venueops-backend/internal/inventory"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

const maxLabelLength = 120

type createItemRequest struct {
	Label              string `json:"label" validate:"required"`
	Category           string `json:"category" validate:"required,oneof=concession admission"`
	SellingPriceCents  int    `json:"selling_price_cents" validate:"min=0"`
	PurchasePriceCents *int   `json:"purchase_price_cents,omitempty" validate:"omitempty,min=0"`
	InStock            *int   `json:"in_stock,omitempty" validate:"omitempty,min=0"`
	IsSeasonal         bool   `json:"is_seasonal"`
	IsDay              bool   `json:"is_day"`
	PatronLimit        *int   `json:"patron_limit,omitempty" validate:"omitempty,min=1"`
}

type movementResponse struct {
	ID          uuid.UUID               `json:"id"`
	Kind        enums.StockMovementKind `json:"kind"`
	Delta       int                     `json:"delta"`
	StockBefore int                     `json:"stock_before"`
	StockAfter  int                     `json:"stock_after"`
	ReferenceID *uuid.UUID              `json:"reference_id,omitempty"`
	CreatedBy   uuid.UUID               `json:"created_by"`
	CreatedAt   time.Time               `json:"created_at"`
}

type restockRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type itemResponse struct {
	ID                 uuid.UUID          `json:"id"`
	Label              string             `json:"label"`
	Category           enums.ItemCategory `json:"category"`
	SellingPriceCents  int                `json:"selling_price_cents"`
	PurchasePriceCents *int               `json:"purchase_price_cents,omitempty"`
	InStock            *int               `json:"in_stock,omitempty"`
	IsSeasonal         bool               `json:"is_seasonal"`
	IsDay              bool               `json:"is_day,omitempty"`
	PatronLimit        *int               `json:"patron_limit,omitempty"`
	IsArchived         bool               `json:"is_archived"`
}

func newItemResponse(item inventory.Item) itemResponse {
	switch v := item.(type) {
	case inventory.Concession:
		stock := v.InStock
		return itemResponse{
			ID:                 v.ID,
			Label:              v.Label,
			Category:           enums.ItemCategoryConcession,
			SellingPriceCents:  v.SellingPriceCents,
			PurchasePriceCents: v.PurchasePriceCents,
			InStock:            &stock,
			IsSeasonal:         v.IsSeasonal,
			IsArchived:         v.IsArchived,
		}
	case inventory.Admission:
		return itemResponse{
			ID:                v.ID,
			Label:             v.Label,
			Category:          enums.ItemCategoryAdmission,
			SellingPriceCents: v.SellingPriceCents,
			IsSeasonal:        v.IsSeasonal,
			IsDay:             v.IsDay,
			PatronLimit:       v.PatronLimit,
			IsArchived:        v.IsArchived,
		}
	}
	return itemResponse{}
}

// CreateItem adds a concession or admission to the catalogue.
func CreateItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		actorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := enums.ParseItemCategory(payload.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}

		created, err := svc.CreateItem(r.Context(), inventory.CreateItemInput{
			Label:              validators.SanitizeString(payload.Label, maxLabelLength),
			Category:           category,
			SellingPriceCents:  payload.SellingPriceCents,
			PurchasePriceCents: payload.PurchasePriceCents,
			InStock:            payload.InStock,
			IsSeasonal:         payload.IsSeasonal,
			IsDay:              payload.IsDay,
			PatronLimit:        payload.PatronLimit,
			ActorID:            actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := inventory.FromModel(*created)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newItemResponse(item))
	}
}

// GetItem returns one catalogue item.
func GetItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Get(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newItemResponse(item))
	}
}

// RestockItem adds units to a concession.
func RestockItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		actorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload restockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		concession, err := svc.Restock(r.Context(), inventory.RestockInput{
			ItemID:   itemID,
			Quantity: payload.Quantity,
			ActorID:  actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newItemResponse(*concession))
	}
}

// ItemMovements lists the stock history of one item.
func ItemMovements(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.Movements(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]movementResponse, 0, len(rows))
		for _, m := range rows {
			out = append(out, movementResponse{
				ID:          m.ID,
				Kind:        m.Kind,
				Delta:       m.Delta,
				StockBefore: m.StockBefore,
				StockAfter:  m.StockAfter,
				ReferenceID: m.ReferenceID,
				CreatedBy:   m.CreatedBy,
				CreatedAt:   m.CreatedAt,
			})
		}
		responses.WriteSuccess(w, out)
	}
}
