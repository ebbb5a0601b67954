package inventory

import (
	"fmt"

	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	"github.com/google/uuid"
)

// Item is a sellable inventory item: exactly one of Concession or Admission.
type Item interface {
	ItemID() uuid.UUID
	ItemLabel() string
	PriceCents() int
	Seasonal() bool
	Archived() bool
	isItem()
}

// Concession is a stock-tracked item such as food or drink.
type Concession struct {
	ID                 uuid.UUID
	Label              string
	SellingPriceCents  int
	PurchasePriceCents *int
	InStock            int
	IsSeasonal         bool
	IsArchived         bool
}

// Admission is an entry product; it never carries stock.
type Admission struct {
	ID                uuid.UUID
	Label             string
	SellingPriceCents int
	IsSeasonal        bool
	IsDay             bool
	PatronLimit       *int
	IsArchived        bool
}

func (c Concession) ItemID() uuid.UUID { return c.ID }
func (c Concession) ItemLabel() string { return c.Label }
func (c Concession) PriceCents() int   { return c.SellingPriceCents }
func (c Concession) Seasonal() bool    { return c.IsSeasonal }
func (c Concession) Archived() bool    { return c.IsArchived }
func (Concession) isItem()             {}

func (a Admission) ItemID() uuid.UUID { return a.ID }
func (a Admission) ItemLabel() string { return a.Label }
func (a Admission) PriceCents() int   { return a.SellingPriceCents }
func (a Admission) Seasonal() bool    { return a.IsSeasonal }
func (a Admission) Archived() bool    { return a.IsArchived }
func (Admission) isItem()             {}

// FromModel converts a stored row into its variant. Rows whose stock columns
// contradict their category are rejected.
func FromModel(m models.InventoryItem) (Item, error) {
	switch m.Category {
	case enums.ItemCategoryConcession:
		if m.InStock == nil {
			return nil, fmt.Errorf("concession %s has no stock column", m.ID)
		}
		return Concession{
			ID:                 m.ID,
			Label:              m.Label,
			SellingPriceCents:  m.SellingPriceCents,
			PurchasePriceCents: m.PurchasePriceCents,
			InStock:            *m.InStock,
			IsSeasonal:         m.IsSeasonal,
			IsArchived:         m.IsArchived,
		}, nil
	case enums.ItemCategoryAdmission:
		if m.InStock != nil {
			return nil, fmt.Errorf("admission %s carries stock", m.ID)
		}
		return Admission{
			ID:                m.ID,
			Label:             m.Label,
			SellingPriceCents: m.SellingPriceCents,
			IsSeasonal:        m.IsSeasonal,
			IsDay:             m.IsDay,
			PatronLimit:       m.PatronLimit,
			IsArchived:        m.IsArchived,
		}, nil
	default:
		return nil, fmt.Errorf("inventory item %s has unknown category %q", m.ID, m.Category)
	}
}
