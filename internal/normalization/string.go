package normalization

import (
	"strings"
)

// ParseInputString trims and lower-cases free-form tokens such as verb URIs
// and verb filters.
func ParseInputString(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

func ParseInputStringPtr(input *string) *string {
	if input == nil {
		return nil
	}
	normalized := ParseInputString(*input)
	return &normalized
}
