package helpers

import (
	"github.com/angelmondragon/venueops-backend/internal/inventory"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/google/uuid"
)

// MaxAmountPerLine caps the quantity of a single cart line.
const MaxAmountPerLine = 200

// CartLine is one requested item and quantity.
type CartLine struct {
	ItemID     uuid.UUID `json:"item_id"`
	AmountSold int       `json:"amount_sold"`
}

// simplifyMessage is the message shown for any cart whose ids do not map
// one-to-one onto stored items.
const simplifyMessage = "could not match every cart line to an item, simplify your request"

// NormalizeLines validates quantities and applies the duplicate policy. The
// returned lines keep first-seen order and name each item once.
func NormalizeLines(lines []CartLine, policy enums.DuplicatePolicy) ([]CartLine, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation, "cart is empty")
	}

	index := make(map[uuid.UUID]int, len(lines))
	out := make([]CartLine, 0, len(lines))
	for _, line := range lines {
		if line.ItemID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation, "cart line is missing an item id")
		}
		if err := checkAmount(line); err != nil {
			return nil, err
		}
		pos, seen := index[line.ItemID]
		if !seen {
			index[line.ItemID] = len(out)
			out = append(out, line)
			continue
		}
		if policy != enums.DuplicatePolicyMerge {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation, simplifyMessage).
				WithDetails(map[string]any{"duplicate_item_id": line.ItemID})
		}
		out[pos].AmountSold += line.AmountSold
		if err := checkAmount(out[pos]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func checkAmount(line CartLine) error {
	if line.AmountSold < 1 || line.AmountSold > MaxAmountPerLine {
		return pkgerrors.Newf(pkgerrors.CodeInvalidOperation, "amount for item %s must be between 1 and %d", line.ItemID, MaxAmountPerLine).
			WithDetails(map[string]any{"item_id": line.ItemID, "amount_sold": line.AmountSold})
	}
	return nil
}

// MatchItems pairs each line with its loaded item. A missing item means the
// cart cannot be honoured as sent.
func MatchItems(lines []CartLine, items []inventory.Item) (map[uuid.UUID]inventory.Item, error) {
	byID := make(map[uuid.UUID]inventory.Item, len(items))
	for _, item := range items {
		byID[item.ItemID()] = item
	}
	if len(byID) != len(lines) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation, simplifyMessage)
	}
	for _, line := range lines {
		if _, ok := byID[line.ItemID]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation, simplifyMessage)
		}
	}
	return byID, nil
}

// ValidateAvailability rejects archived items and concession lines asking for
// more than is on hand.
func ValidateAvailability(lines []CartLine, items map[uuid.UUID]inventory.Item) error {
	for _, line := range lines {
		item := items[line.ItemID]
		if item.Archived() {
			return pkgerrors.Newf(pkgerrors.CodeInvalidOperation, "%s is archived and cannot be sold", item.ItemLabel())
		}
		concession, ok := item.(inventory.Concession)
		if !ok {
			continue
		}
		if concession.InStock < line.AmountSold {
			return pkgerrors.Newf(pkgerrors.CodeInvalidOperation, "insufficient stock for %s", concession.Label).
				WithDetails(map[string]any{
					"item_id":   concession.ID,
					"requested": line.AmountSold,
					"in_stock":  concession.InStock,
				})
		}
	}
	return nil
}

// LineTotal is a priced cart line.
type LineTotal struct {
	ItemID         uuid.UUID
	Label          string
	AmountSold     int
	LineTotalCents int
}

// Totals is the priced cart.
type Totals struct {
	Lines              []LineTotal
	TotalCents         int
	SeasonPassFollowUp bool
}

// ComputeTotals prices each line at the item's selling price and flags carts
// containing any seasonal item.
func ComputeTotals(lines []CartLine, items map[uuid.UUID]inventory.Item) Totals {
	totals := Totals{Lines: make([]LineTotal, 0, len(lines))}
	for _, line := range lines {
		item := items[line.ItemID]
		lineTotal := line.AmountSold * item.PriceCents()
		totals.Lines = append(totals.Lines, LineTotal{
			ItemID:         line.ItemID,
			Label:          item.ItemLabel(),
			AmountSold:     line.AmountSold,
			LineTotalCents: lineTotal,
		})
		totals.TotalCents += lineTotal
		if item.Seasonal() {
			totals.SeasonPassFollowUp = true
		}
	}
	return totals
}
