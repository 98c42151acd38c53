package enums

import (
	"fmt"
	"strings"
)

// Brand partitions the catalog between the two storefront labels.
type Brand string

const (
	BrandForge   Brand = "forge"
	BrandFormula Brand = "formula"
)

var validBrands = []Brand{BrandForge, BrandFormula}

func (b Brand) String() string {
	return string(b)
}

func (b Brand) IsValid() bool {
	for _, candidate := range validBrands {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBrand is case-insensitive; an empty value is rejected.
func ParseBrand(value string) (Brand, error) {
	normalized := Brand(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid brand %q", value)
}
