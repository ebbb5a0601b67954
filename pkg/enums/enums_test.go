package enums

import "testing"

func TestParseItemCategory(t *testing.T) {
	got, err := ParseItemCategory("concession")
	if err != nil || got != ItemCategoryConcession {
		t.Fatalf("expected concession, got %q err=%v", got, err)
	}
	if _, err := ParseItemCategory("merch"); err == nil {
		t.Fatalf("expected error for unknown category")
	}
	if ItemCategory("admission").IsValid() != true {
		t.Fatalf("admission should be valid")
	}
}

func TestParseStockMovementKind(t *testing.T) {
	for _, raw := range []string{"sale", "void_restore", "restock"} {
		if _, err := ParseStockMovementKind(raw); err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}
	}
	if StockMovementKind("shrinkage").IsValid() {
		t.Fatalf("unexpected valid kind")
	}
}

func TestOutboxEnums(t *testing.T) {
	if _, err := ParseOutboxEventType("transaction_voided"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseOutboxAggregateType("vendor_order"); err == nil {
		t.Fatalf("expected unknown aggregate to fail")
	}
	if !LedgerEventTypeRefund.IsValid() {
		t.Fatalf("refund should be valid")
	}
}

func TestParseDuplicatePolicy(t *testing.T) {
	got, err := ParseDuplicatePolicy(" Merge ")
	if err != nil || got != DuplicatePolicyMerge {
		t.Fatalf("expected merge, got %q err=%v", got, err)
	}
	if _, err := ParseDuplicatePolicy("sometimes"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
