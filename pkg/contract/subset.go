package contract

import (
	"slices"
	"strings"

	jerrors "github.com/porthorian/jamfpro/pkg/errors"
)

// ValidateSubsets reports whether a subset segment should be added. It is false
// for an empty request and fails on any token outside allowed.
func ValidateSubsets(requested, allowed []string) (bool, error) {
	if len(requested) == 0 {
		return false, nil
	}

	var invalid []string
	for _, token := range requested {
		if !slices.Contains(allowed, token) {
			invalid = append(invalid, token)
		}
	}
	if len(invalid) > 0 {
		return false, jerrors.Newf(jerrors.CodeInvalidSubset, "invalid subset(s) %s, allowed: %s", strings.Join(invalid, ", "), strings.Join(allowed, ", "))
	}

	return true, nil
}

// SubsetPath renders "subset/<a>&<b>" with each token escaped.
func SubsetPath(requested []string) string {
	escaped := make([]string, 0, len(requested))
	for _, token := range requested {
		escaped = append(escaped, EscapeSegment(token))
	}
	return "subset/" + strings.Join(escaped, "&")
}
