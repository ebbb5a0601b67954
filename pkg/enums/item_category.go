package enums

import "fmt"

// ItemCategory distinguishes stock-tracked concessions from admissions.
type ItemCategory string

const (
	ItemCategoryConcession ItemCategory = "concession"
	ItemCategoryAdmission  ItemCategory = "admission"
)

var validItemCategories = []ItemCategory{
	ItemCategoryConcession,
	ItemCategoryAdmission,
}

// String implements fmt.Stringer.
func (c ItemCategory) String() string {
	return string(c)
}

// IsValid reports whether the value matches a known category.
func (c ItemCategory) IsValid() bool {
	for _, candidate := range validItemCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseItemCategory converts raw input into ItemCategory.
func ParseItemCategory(value string) (ItemCategory, error) {
	for _, candidate := range validItemCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item category %q", value)
}
