package engine

import (
	"strings"

	"pkgsweep/internal/registry"
)

// FilterByKeyword keeps the packages whose name contains keyword
// (case-sensitive), preserving order. An empty keyword matches nothing.
func FilterByKeyword(pkgs []registry.Package, keyword string) []registry.Package {
	if keyword == "" {
		return nil
	}
	var matched []registry.Package
	for _, p := range pkgs {
		if strings.Contains(p.Name, keyword) {
			matched = append(matched, p)
		}
	}
	return matched
}

// mergeFetched concatenates the packages of every completed fetch in key
// order. Duplicates are kept.
func mergeFetched(slots []slot[registry.FetchResult]) []registry.Package {
	var all []registry.Package
	for _, s := range slots {
		if s.Done {
			all = append(all, s.Value.Packages...)
		}
	}
	return all
}
