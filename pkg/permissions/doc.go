// Package permissions provides the string permission model shared by the
// authorization packages.
//
// A permission is a dot-delimited "resource.action" string such as
// "policies.create". Two wildcard forms are understood:
//
//   - The global wildcard "*" matches any permission.
//   - A trailing ".*" matches exactly one additional segment: "policies.*"
//     matches "policies.read" and "policies.create" but not
//     "policies.audit.read". Deeper matching is intentionally not supported.
//
// The package treats permissions as opaque tokens otherwise and provides
// helpers to parse, join, normalize and test membership against a held set.
//
// # Usage
//
//	held := permissions.Parse("policies.* agents.read")
//
//	if permissions.Has(held, "policies.create") {
//	    // granted via the "policies.*" wildcard
//	}
//
//	if !permissions.HasAll(held, []string{"policies.read", "agents.read"}) {
//	    return errors.New("insufficient permissions")
//	}
package permissions
