package permissions

import (
	"slices"
	"sort"
	"strings"
)

const (
	// Separator splits multiple permissions in a single string.
	Separator = " "

	// Wildcard matches any permission when held on its own, or one trailing
	// segment when used as a ".*" suffix.
	Wildcard = "*"

	// Delimiter separates the resource and action parts of a permission.
	Delimiter = "."
)

// Parse converts a space-separated permission string into a slice.
// Trims spaces and drops empty entries. Returns nil for empty input.
func Parse(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	parts := strings.Split(s, Separator)
	perms := make([]string, 0, len(parts))
	for i := range parts {
		if parts[i] = strings.TrimSpace(parts[i]); parts[i] != "" {
			perms = append(perms, parts[i])
		}
	}
	return perms
}

// Join converts a permission slice back to its space-separated form.
func Join(perms []string) string {
	if len(perms) == 0 {
		return ""
	}
	return strings.Join(perms, Separator)
}

// Matches reports whether a held pattern grants the requested permission.
//
// Matching rules:
//   - Exact match: "policies.read" grants "policies.read".
//   - Global wildcard: "*" grants anything.
//   - Trailing wildcard: "policies.*" grants exactly one additional segment,
//     so it grants "policies.read" but not "policies.audit.read".
func Matches(perm, pattern string) bool {
	if perm == "" {
		return false
	}
	if perm == pattern || pattern == Wildcard {
		return true
	}

	if strings.HasSuffix(pattern, Delimiter+Wildcard) {
		prefix := strings.TrimSuffix(pattern, Wildcard)
		rest, ok := strings.CutPrefix(perm, prefix)
		// One trailing segment only: the remainder must be a bare action.
		return ok && rest != "" && !strings.Contains(rest, Delimiter)
	}

	return false
}

// Has reports whether the held set grants the requested permission,
// directly or through a wildcard.
func Has(held []string, perm string) bool {
	for _, h := range held {
		if Matches(perm, h) {
			return true
		}
	}
	return false
}

// HasAny reports whether the held set grants at least one of the required
// permissions. An empty required set is always satisfied.
func HasAny(held, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if len(held) == 0 {
		return false
	}
	if slices.Contains(held, Wildcard) {
		return true
	}
	for _, req := range required {
		if Has(held, req) {
			return true
		}
	}
	return false
}

// HasAll reports whether the held set grants every required permission.
// An empty required set is always satisfied.
func HasAll(held, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if len(held) == 0 {
		return false
	}
	if slices.Contains(held, Wildcard) {
		return true
	}
	for _, req := range required {
		if !Has(held, req) {
			return false
		}
	}
	return true
}

// Normalize removes duplicates and sorts the set for a canonical
// representation. Returns nil for empty input.
func Normalize(perms []string) []string {
	if len(perms) == 0 {
		return nil
	}

	unique := make(map[string]struct{}, len(perms))
	for i := range perms {
		unique[perms[i]] = struct{}{}
	}

	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	sort.Strings(normalized)
	return normalized
}
