package enums

import "fmt"

// StockMovementKind labels why a concession's stock changed.
type StockMovementKind string

const (
	StockMovementSale        StockMovementKind = "sale"
	StockMovementVoidRestore StockMovementKind = "void_restore"
	StockMovementRestock     StockMovementKind = "restock"
)

var validStockMovementKinds = []StockMovementKind{
	StockMovementSale,
	StockMovementVoidRestore,
	StockMovementRestock,
}

func (k StockMovementKind) String() string {
	return string(k)
}

func (k StockMovementKind) IsValid() bool {
	for _, candidate := range validStockMovementKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

func ParseStockMovementKind(value string) (StockMovementKind, error) {
	for _, candidate := range validStockMovementKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement kind %q", value)
}
