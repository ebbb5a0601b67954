package enums

import (
	"fmt"
	"strings"
)

// DuplicatePolicy decides how checkout treats a cart naming the same item twice.
type DuplicatePolicy string

const (
	DuplicatePolicyReject DuplicatePolicy = "reject"
	DuplicatePolicyMerge  DuplicatePolicy = "merge"
)

var validDuplicatePolicies = []DuplicatePolicy{
	DuplicatePolicyReject,
	DuplicatePolicyMerge,
}

func (p DuplicatePolicy) IsValid() bool {
	for _, candidate := range validDuplicatePolicies {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseDuplicatePolicy converts raw input into DuplicatePolicy. Case and
// surrounding whitespace are ignored.
func ParseDuplicatePolicy(value string) (DuplicatePolicy, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validDuplicatePolicies {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid duplicate policy %q", value)
}
